package form

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is returned when a schema declaration is inconsistent
var ErrInvalidSchema = errors.New("invalid form schema")

// Rule identifies which check a field failed
type Rule string

const (
	RuleRequired  Rule = "required"
	RuleType      Rule = "type"
	RuleFormat    Rule = "format"
	RuleMinLength Rule = "min_length"
	RuleMin       Rule = "min"
	RuleOneOf     Rule = "one_of"
	RuleNotOneOf  Rule = "not_one_of"
	RuleEquals    Rule = "equals"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// FieldErrors is the full list of failures found in one validation pass, in schema order
type FieldErrors []FieldError

// Error implements error
func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByField groups the messages by field name for inline display
func (e FieldErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Has reports whether the given field failed the given rule
func (e FieldErrors) Has(field string, rule Rule) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Rule == rule {
			return true
		}
	}
	return false
}

// AsFieldErrors extracts FieldErrors from an error returned by Validate
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
