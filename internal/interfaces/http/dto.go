package http

import "github.com/garyjia/travel-support/internal/domain/form"

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// FormSummary is one entry of the form catalogue listing
type FormSummary struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	AllowAttachments bool   `json:"allow_attachments"`
	FieldCount       int    `json:"field_count"`
}

// SchemaResponse describes a form so the portal can render and pre-check it
type SchemaResponse struct {
	Key              string              `json:"key"`
	Title            string              `json:"title"`
	AllowAttachments bool                `json:"allow_attachments"`
	ReceiptField     string              `json:"receipt_field,omitempty"`
	Fields           []FieldResponse     `json:"fields"`
	Lookups          []form.LookupTarget `json:"lookups"`
}

// FieldResponse describes one field rule
type FieldResponse struct {
	Name           string           `json:"name"`
	Label          string           `json:"label,omitempty"`
	Type           form.FieldType   `json:"type"`
	Required       bool             `json:"required"`
	MinLength      int              `json:"min_length,omitempty"`
	Min            *float64         `json:"min,omitempty"`
	Default        any              `json:"default,omitempty"`
	DynamicDefault bool             `json:"dynamic_default,omitempty"`
	OneOf          []string         `json:"one_of,omitempty"`
	NotOneOf       []string         `json:"not_one_of,omitempty"`
	MustBe         *bool            `json:"must_be,omitempty"`
	Refinement     *form.Refinement `json:"refinement,omitempty"`
}

// LookupRequest is the body of a session lookup
type LookupRequest struct {
	Target string `json:"target" binding:"required"`
	Field  string `json:"field" binding:"required,oneof=id email"`
	Value  string `json:"value" binding:"required"`
}

// ValuesRequest carries draft or submitted field values
type ValuesRequest struct {
	Values map[string]any `json:"values"`
}

// EmployeeQuery are the query parameters of a direct employee lookup
type EmployeeQuery struct {
	Field string `form:"field" binding:"required,oneof=id email"`
	Value string `form:"value" binding:"required"`
}

// ListRequestsQuery are the query parameters of the request listing
type ListRequestsQuery struct {
	Form   string `form:"form"`
	Since  string `form:"since"`
	Until  string `form:"until"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func toFormSummary(s *form.Schema) FormSummary {
	return FormSummary{
		Key:              s.Key,
		Title:            s.Title,
		AllowAttachments: s.AllowAttachments,
		FieldCount:       len(s.FieldNames()),
	}
}

func toSchemaResponse(s *form.Schema) SchemaResponse {
	rules := s.Rules()
	fields := make([]FieldResponse, 0, len(rules))
	for _, r := range rules {
		fields = append(fields, FieldResponse{
			Name:           r.Name,
			Label:          r.Label,
			Type:           r.Type,
			Required:       r.Required,
			MinLength:      r.MinLength,
			Min:            r.Min,
			Default:        r.Default,
			DynamicDefault: r.DefaultFunc != nil,
			OneOf:          r.Constraint.OneOf,
			NotOneOf:       r.Constraint.NotOneOf,
			MustBe:         r.MustBe,
			Refinement:     r.Refinement,
		})
	}

	return SchemaResponse{
		Key:              s.Key,
		Title:            s.Title,
		AllowAttachments: s.AllowAttachments,
		ReceiptField:     s.ReceiptField,
		Fields:           fields,
		Lookups:          s.LookupTargets(),
	}
}
