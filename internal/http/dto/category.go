package dto

import "medrisk.app/console/internal/schema"

type FieldResponse struct {
	Name string   `json:"name"`
	Kind string   `json:"kind"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

type CategoryResponse struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Color       string          `json:"color"`
	Fields      []FieldResponse `json:"fields"`
}

func ToCategoryResponse(c schema.Category) CategoryResponse {
	fields := make([]FieldResponse, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, FieldResponse{
			Name: f.Name,
			Kind: string(f.Kind),
			Min:  f.Min,
			Max:  f.Max,
		})
	}
	return CategoryResponse{
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Color:       schema.CategoryColor(c.Name),
		Fields:      fields,
	}
}
