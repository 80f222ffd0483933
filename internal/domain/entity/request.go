package entity

import "time"

// Request is a submitted form record as kept by the record store
type Request struct {
	ID        int64          `json:"id"`
	FormKey   string         `json:"form_key"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
}

// Field returns a field value rendered as text, or "" when absent
func (r *Request) Field(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return stringValue(v)
}
