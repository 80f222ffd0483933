// Package form holds the declarative field schemas used by every business-process form
// and the engine that validates submitted values against them.
package form

import (
	"time"

	"github.com/shopspring/decimal"
)

// FieldType is the base type of a form field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeEmail   FieldType = "email"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeDecimal FieldType = "decimal"
)

var validTypes = map[FieldType]bool{
	TypeString:  true,
	TypeEmail:   true,
	TypeNumber:  true,
	TypeBoolean: true,
	TypeDate:    true,
	TypeDecimal: true,
}

// IsValid returns true if the type is known to the engine
func (t FieldType) IsValid() bool {
	return validTypes[t]
}

// Constraint is the set of acceptable values for a text field.
// An empty OneOf accepts any value not listed in NotOneOf.
type Constraint struct {
	OneOf    []string `json:"one_of,omitempty"`
	NotOneOf []string `json:"not_one_of,omitempty"`
}

// narrow combines a refinement case with the base constraint.
// A case's OneOf replaces the base list; NotOneOf entries accumulate.
func (c Constraint) narrow(refined Constraint) Constraint {
	out := Constraint{OneOf: c.OneOf}
	if len(refined.OneOf) > 0 {
		out.OneOf = refined.OneOf
	}
	out.NotOneOf = append(append([]string{}, c.NotOneOf...), refined.NotOneOf...)
	return out
}

// Refinement narrows a field's constraint depending on the current value of
// another field of the same schema (the discriminator).
type Refinement struct {
	Discriminator string                `json:"discriminator"`
	Cases         map[string]Constraint `json:"cases"`
}

// resolve returns the effective constraint for the given discriminator value.
// Values without a case leave the base constraint untouched.
func (r *Refinement) resolve(discriminatorValue string, base Constraint) Constraint {
	refined, ok := r.Cases[discriminatorValue]
	if !ok {
		return base
	}
	return base.narrow(refined)
}

// Record is the normalized mapping produced by a successful validation.
// Values are string, float64, bool, time.Time or decimal.Decimal depending on the field type.
type Record map[string]any

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the value of a text field, or "" when absent or not text
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Time returns the value of a date field
func (r Record) Time(name string) (time.Time, bool) {
	t, ok := r[name].(time.Time)
	return t, ok
}

// Decimal returns the value of a decimal field
func (r Record) Decimal(name string) (decimal.Decimal, bool) {
	d, ok := r[name].(decimal.Decimal)
	return d, ok
}
