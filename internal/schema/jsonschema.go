package schema

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"
)

// JSONSchema renders the category's descriptor table as a JSON Schema for
// the form layer. Built programmatically rather than reflected: the field
// set is data-driven configuration, not a Go type.
func (c Category) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	required := make([]string, 0, len(c.Fields))

	for _, f := range c.Fields {
		fs := &jsonschema.Schema{Type: "number"}
		switch f.Kind {
		case FieldChoice:
			fs.Enum = []any{0, 1}
		case FieldNumeric:
			if f.Min != nil {
				fs.Minimum = jsonNumber(*f.Min)
			}
			if f.Max != nil {
				fs.Maximum = jsonNumber(*f.Max)
			}
		}
		props.Set(f.Name, fs)
		required = append(required, f.Name)
	}

	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                c.DisplayName,
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func jsonNumber(v float64) json.Number {
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
}
