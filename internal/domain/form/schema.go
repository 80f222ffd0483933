package form

import (
	"fmt"
	"sort"

	"github.com/garyjia/travel-support/internal/domain/entity"
)

// LookupTarget is a group of fields auto-populated from one employee lookup,
// e.g. every BENEFICIARIO_* field of a form.
type LookupTarget struct {
	Name   string                        `json:"name"`
	Fields map[entity.EmployeeAttr]string `json:"fields"`
}

// Populate maps an employee onto the target's form fields.
// A nil employee yields blank values, clearing previously populated fields.
func (t LookupTarget) Populate(emp *entity.Employee) map[string]any {
	out := make(map[string]any, len(t.Fields))
	for attr, field := range t.Fields {
		if emp == nil {
			out[field] = ""
			continue
		}
		out[field] = emp.Attribute(attr)
	}
	return out
}

// Schema is an ordered set of field rules for one form
type Schema struct {
	Key              string
	Title            string
	AllowAttachments bool
	ReceiptField     string

	rules   []FieldRule
	index   map[string]int
	lookups map[string]LookupTarget
}

// SchemaOption configures a Schema
type SchemaOption func(*Schema)

// WithAttachments allows files to be staged and uploaded with the record
func WithAttachments() SchemaOption {
	return func(s *Schema) { s.AllowAttachments = true }
}

// WithLookup declares a group of fields filled from the employee directory
func WithLookup(target LookupTarget) SchemaOption {
	return func(s *Schema) { s.lookups[target.Name] = target }
}

// WithReceipt names the e-mail field that receives the submission receipt
func WithReceipt(field string) SchemaOption {
	return func(s *Schema) { s.ReceiptField = field }
}

// NewSchema builds a schema and checks it is self-consistent: field names are unique,
// types are known, and every discriminator and lookup field is declared in the schema.
func NewSchema(key, title string, rules []FieldRule, opts ...SchemaOption) (*Schema, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidSchema)
	}

	s := &Schema{
		Key:     key,
		Title:   title,
		rules:   append([]FieldRule{}, rules...),
		index:   make(map[string]int, len(rules)),
		lookups: make(map[string]LookupTarget),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, rule := range s.rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("%w: %s: field %d has no name", ErrInvalidSchema, key, i)
		}
		if !rule.Type.IsValid() {
			return nil, fmt.Errorf("%w: %s: field %s has unknown type %q", ErrInvalidSchema, key, rule.Name, rule.Type)
		}
		if _, dup := s.index[rule.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %s", ErrInvalidSchema, key, rule.Name)
		}
		s.index[rule.Name] = i
	}

	for _, rule := range s.rules {
		if rule.Refinement == nil {
			continue
		}
		d := rule.Refinement.Discriminator
		if _, ok := s.index[d]; !ok {
			return nil, fmt.Errorf("%w: %s: field %s refers to undeclared discriminator %s", ErrInvalidSchema, key, rule.Name, d)
		}
		if d == rule.Name {
			return nil, fmt.Errorf("%w: %s: field %s cannot discriminate itself", ErrInvalidSchema, key, rule.Name)
		}
	}

	for name, target := range s.lookups {
		for _, field := range target.Fields {
			if _, ok := s.index[field]; !ok {
				return nil, fmt.Errorf("%w: %s: lookup %s fills undeclared field %s", ErrInvalidSchema, key, name, field)
			}
		}
	}

	if s.ReceiptField != "" {
		if _, ok := s.index[s.ReceiptField]; !ok {
			return nil, fmt.Errorf("%w: %s: receipt field %s is not declared", ErrInvalidSchema, key, s.ReceiptField)
		}
	}

	return s, nil
}

// MustSchema is NewSchema for statically declared forms; it panics on an inconsistent declaration
func MustSchema(key, title string, rules []FieldRule, opts ...SchemaOption) *Schema {
	s, err := NewSchema(key, title, rules, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Rules returns the field rules in declaration order
func (s *Schema) Rules() []FieldRule {
	return append([]FieldRule{}, s.rules...)
}

// FieldNames returns the declared field names in order
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		names = append(names, r.Name)
	}
	return names
}

// Rule returns the rule declared for a field
func (s *Schema) Rule(name string) (FieldRule, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldRule{}, false
	}
	return s.rules[i], true
}

// LookupTarget returns the named lookup group
func (s *Schema) LookupTarget(name string) (LookupTarget, bool) {
	t, ok := s.lookups[name]
	return t, ok
}

// LookupTargets returns every lookup group declared by the form
func (s *Schema) LookupTargets() []LookupTarget {
	out := make([]LookupTarget, 0, len(s.lookups))
	for _, t := range s.lookups {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
