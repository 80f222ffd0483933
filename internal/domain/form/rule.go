package form

import "fmt"

// FieldRule declares how one named field is validated
type FieldRule struct {
	Name        string
	Label       string
	Type        FieldType
	Required    bool
	MinLength   int
	Min         *float64
	Default     any
	DefaultFunc func() any
	Constraint  Constraint
	MustBe      *bool
	Check       func(string) error
	Refinement  *Refinement
	Messages    map[Rule]string
}

// Option configures a FieldRule
type Option func(*FieldRule)

// Field declares a field of the given type
func Field(name string, typ FieldType, opts ...Option) FieldRule {
	rule := FieldRule{Name: name, Type: typ}
	for _, opt := range opts {
		opt(&rule)
	}
	return rule
}

// Text declares a free text field
func Text(name string, opts ...Option) FieldRule { return Field(name, TypeString, opts...) }

// Email declares an e-mail field
func Email(name string, opts ...Option) FieldRule { return Field(name, TypeEmail, opts...) }

// Number declares a numeric field
func Number(name string, opts ...Option) FieldRule { return Field(name, TypeNumber, opts...) }

// Boolean declares a yes/no field
func Boolean(name string, opts ...Option) FieldRule { return Field(name, TypeBoolean, opts...) }

// Date declares a date field
func Date(name string, opts ...Option) FieldRule { return Field(name, TypeDate, opts...) }

// Money declares an exact decimal field
func Money(name string, opts ...Option) FieldRule { return Field(name, TypeDecimal, opts...) }

func Required() Option { return func(r *FieldRule) { r.Required = true } }

func Label(label string) Option { return func(r *FieldRule) { r.Label = label } }

func MinLength(n int) Option { return func(r *FieldRule) { r.MinLength = n } }

func Min(v float64) Option { return func(r *FieldRule) { r.Min = &v } }

// Default substitutes v when the field is absent
func Default(v any) Option { return func(r *FieldRule) { r.Default = v } }

// DefaultFunc computes the substitute at validation time (e.g. "now" for dates)
func DefaultFunc(fn func() any) Option { return func(r *FieldRule) { r.DefaultFunc = fn } }

func OneOf(values ...string) Option {
	return func(r *FieldRule) { r.Constraint.OneOf = values }
}

func NotOneOf(values ...string) Option {
	return func(r *FieldRule) { r.Constraint.NotOneOf = values }
}

// MustBe requires a boolean field to hold exactly v
func MustBe(v bool) Option { return func(r *FieldRule) { r.MustBe = &v } }

// Check adds a format check on the trimmed text value
func Check(fn func(string) error) Option { return func(r *FieldRule) { r.Check = fn } }

// RefinedBy narrows the field's constraint by the value of the discriminator field
func RefinedBy(discriminator string, cases map[string]Constraint) Option {
	return func(r *FieldRule) {
		r.Refinement = &Refinement{Discriminator: discriminator, Cases: cases}
	}
}

// Message overrides the message reported for one rule
func Message(rule Rule, msg string) Option {
	return func(r *FieldRule) {
		if r.Messages == nil {
			r.Messages = make(map[Rule]string)
		}
		r.Messages[rule] = msg
	}
}

func (r *FieldRule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// defaultValue returns the declared default, if any
func (r *FieldRule) defaultValue() (any, bool) {
	if r.DefaultFunc != nil {
		return r.DefaultFunc(), true
	}
	if r.Default != nil {
		return r.Default, true
	}
	return nil, false
}

func (r *FieldRule) fail(rule Rule, format string, args ...any) FieldError {
	msg, ok := r.Messages[rule]
	if !ok {
		msg = fmt.Sprintf(format, args...)
	}
	return FieldError{Field: r.Name, Rule: rule, Message: msg}
}
