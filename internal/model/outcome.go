package model

// Classification is the successful payload of the classification call.
type Classification struct {
	Label       int     `json:"label"` // 0 = negative, 1 = positive
	Probability float64 `json:"probability"`
}

// Contribution is one feature's signed weight in an explanation bucket.
// Weights in the positive bucket push the prediction toward label 1,
// weights in the negative bucket away from it.
type Contribution struct {
	Feature string  `json:"feature_name"`
	Weight  float64 `json:"shap_value"`
}

// Explanation is the successful payload of the explanation call.
type Explanation struct {
	Positive []Contribution `json:"positive_features"`
	Negative []Contribution `json:"negative_features"`
}

// PredictionOutcome is the settled result of the classification call:
// either Result is non-nil or Err is non-nil, never both.
type PredictionOutcome struct {
	Result *Classification
	Err    error
}

func (o PredictionOutcome) OK() bool { return o.Err == nil && o.Result != nil }

// ExplanationOutcome is the settled result of the explanation call.
type ExplanationOutcome struct {
	Result *Explanation
	Err    error
}

func (o ExplanationOutcome) OK() bool { return o.Err == nil && o.Result != nil }

// SubmissionResult pairs the two independent call outcomes for one
// submission. Neither outcome's success implies the other's. EntryID is set
// only when the classification succeeded and the append was durably
// recorded.
type SubmissionResult struct {
	SubmissionID   int64
	Classification PredictionOutcome
	Explanation    ExplanationOutcome
	EntryID        *int64
}
