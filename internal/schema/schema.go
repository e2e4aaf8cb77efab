// Package schema owns the static per-category field descriptor tables.
// Form shape stays data, not branching logic: the orchestration core only
// ever sees a category name and a built FeatureVector.
package schema

import (
	"fmt"
	"strings"

	"medrisk.app/console/internal/model"
)

type FieldKind string

const (
	// FieldNumeric is a free numeric input.
	FieldNumeric FieldKind = "numeric"
	// FieldChoice is a yes/no (or dummy-encoded) input carried as 0 or 1.
	FieldChoice FieldKind = "boolean-choice"
)

// Field describes one input of a category. Min/Max are validation bounds
// for numeric fields; nil means unconstrained. Choice fields are implicitly
// bounded to {0, 1}.
type Field struct {
	Name string
	Kind FieldKind
	Min  *float64
	Max  *float64
}

// Category is one prediction domain with its ordered field list. The order
// is the backend model's training order and also drives stable display
// colors, so it must not be rearranged.
type Category struct {
	Name        string
	DisplayName string
	Fields      []Field
}

// palette is indexed by a category's position in the registry. Colors must
// stay a function of registry position, never of insertion order.
var palette = []string{"#ef4444", "#3b82f6", "#10b981", "#f59e0b", "#8b5cf6", "#ec4899"}

func num(min, max float64) (*float64, *float64) { return &min, &max }

func numeric(name string, min, max float64) Field {
	lo, hi := num(min, max)
	return Field{Name: name, Kind: FieldNumeric, Min: lo, Max: hi}
}

func choice(name string) Field {
	return Field{Name: name, Kind: FieldChoice}
}

// Field lists are transcribed from the backend's per-disease input models.
// Every field is required: the caller blocks submission while any is unset.
var categories = []Category{
	{
		Name:        "heart",
		DisplayName: "Heart Disease",
		Fields: []Field{
			numeric("Age", 1, 120),
			choice("Sex"),
			numeric("RestingBP", 0, 250),
			numeric("Cholesterol", 0, 700),
			choice("FastingBS"),
			numeric("MaxHR", 40, 250),
			choice("ExerciseAngina"),
			numeric("Oldpeak", -4, 8),
			choice("ChestPainType_ATA"),
			choice("ChestPainType_NAP"),
			choice("ChestPainType_TA"),
			choice("RestingECG_Normal"),
			choice("RestingECG_ST"),
			choice("ST_Slope_Flat"),
			choice("ST_Slope_Up"),
		},
	},
	{
		Name:        "diabetes",
		DisplayName: "Diabetes",
		Fields: []Field{
			numeric("Pregnancies", 0, 20),
			numeric("Glucose", 0, 300),
			numeric("BloodPressure", 0, 200),
			numeric("SkinThickness", 0, 110),
			numeric("Insulin", 0, 900),
			numeric("BMI", 0, 80),
			numeric("DiabetesPedigreeFunction", 0, 3),
			numeric("Age", 1, 120),
		},
	},
	{
		Name:        "kidney",
		DisplayName: "Chronic Kidney Disease",
		Fields: []Field{
			numeric("Age_yrs", 1, 120),
			numeric("Blood_Pressure_mm_Hg", 0, 250),
			numeric("Specific_Gravity", 1.0, 1.05),
			numeric("Albumin", 0, 5),
			numeric("Sugar", 0, 5),
			numeric("Blood_Glucose_Random_mgs_dL", 0, 500),
			numeric("Blood_Urea_mgs_dL", 0, 400),
			numeric("Serum_Creatinine_mgs_dL", 0, 80),
			numeric("Sodium_mEq_L", 0, 170),
			numeric("Potassium_mEq_L", 0, 50),
			numeric("Hemoglobin_gms", 0, 20),
			numeric("Packed_Cell_Volume", 0, 60),
			numeric("White_Blood_Cells_cells_cmm", 0, 30000),
			numeric("Red_Blood_Cells_millions_cmm", 0, 10),
			choice("Red_Blood_Cells_normal"),
			choice("Pus_Cells_normal"),
			choice("Pus_Cell_Clumps_present"),
			choice("Bacteria_present"),
			choice("Hypertension_yes"),
			choice("Diabetes_Mellitus_yes"),
			choice("Coronary_Artery_Disease_yes"),
			choice("Appetite_poor"),
			choice("Pedal_Edema_yes"),
			choice("Anemia_yes"),
		},
	},
	{
		Name:        "hypertension",
		DisplayName: "Hypertension",
		Fields: []Field{
			numeric("Age", 1, 120),
			numeric("Salt_Intake", 0, 30),
			numeric("Stress_Score", 0, 10),
			numeric("Sleep_Duration", 0, 24),
			numeric("BMI", 0, 80),
			choice("BP_History_Normal"),
			choice("BP_History_Prehypertension"),
			choice("Medication_Beta_Blocker"),
			choice("Medication_Diuretic"),
			choice("Medication_Other"),
			choice("Exercise_Level_Low"),
			choice("Exercise_Level_Moderate"),
			choice("Smoking_Status_Smoker"),
			choice("Family_History_Yes"),
		},
	},
}

var byName = func() map[string]int {
	m := make(map[string]int, len(categories))
	for i, c := range categories {
		m[c.Name] = i
	}
	return m
}()

// Categories returns the registry in its fixed order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup resolves a category by name.
func Lookup(name string) (Category, bool) {
	i, ok := byName[strings.ToLower(name)]
	if !ok {
		return Category{}, false
	}
	return categories[i], true
}

// CategoryColor returns the display color for a known category, "" otherwise.
func CategoryColor(name string) string {
	i, ok := byName[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return palette[i%len(palette)]
}

// BuildVector coerces raw inputs into a FeatureVector. A nil (or missing)
// value stays unset rather than becoming 0, so absence is distinguishable
// from a true zero. Unknown field names are rejected.
func (c Category) BuildVector(raw map[string]*float64) (model.FeatureVector, error) {
	known := make(map[string]Field, len(c.Fields))
	for _, f := range c.Fields {
		known[f.Name] = f
	}

	vec := make(model.FeatureVector, len(raw))
	for name, val := range raw {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown field %q for category %q", name, c.Name)
		}
		if val == nil {
			continue // unset sentinel
		}
		vec[name] = *val
	}
	return vec, nil
}

// Validate reports the first constraint violation: an unset field (all
// fields are required) or a set value outside its bounds.
func (c Category) Validate(vec model.FeatureVector) error {
	for _, f := range c.Fields {
		val, ok := vec.Get(f.Name)
		if !ok {
			return fmt.Errorf("required field %q is unset", f.Name)
		}
		switch f.Kind {
		case FieldChoice:
			if val != 0 && val != 1 {
				return fmt.Errorf("field %q must be 0 or 1, got %v", f.Name, val)
			}
		case FieldNumeric:
			if f.Min != nil && val < *f.Min {
				return fmt.Errorf("field %q below minimum %v", f.Name, *f.Min)
			}
			if f.Max != nil && val > *f.Max {
				return fmt.Errorf("field %q above maximum %v", f.Name, *f.Max)
			}
		}
	}
	return nil
}
