package form

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/garyjia/travel-support/pkg/utils"
)

// dateLayouts are the accepted textual date formats, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
	"02/01/2006",
}

// Validate checks raw values against the schema. It visits every field in schema order
// and accumulates all failures; on success it returns the normalized record with
// defaults applied, otherwise a nil record and a FieldErrors error.
// Keys that the schema does not declare are dropped.
func (s *Schema) Validate(raw map[string]any) (Record, error) {
	var errs FieldErrors
	record := make(Record, len(s.rules))

	for i := range s.rules {
		rule := &s.rules[i]

		constraint := rule.Constraint
		if rule.Refinement != nil {
			constraint = rule.Refinement.resolve(s.discriminatorValue(rule.Refinement.Discriminator, raw), constraint)
		}

		value, present := presentValue(raw, rule.Name)
		if !present {
			if def, ok := rule.defaultValue(); ok {
				record[rule.Name] = rule.normalizeDefault(def)
				continue
			}
			if rule.Required {
				errs = append(errs, rule.fail(RuleRequired, "%s is required", rule.label()))
			}
			continue
		}

		normalized, ferr := rule.check(value, constraint)
		if ferr != nil {
			errs = append(errs, *ferr)
			continue
		}
		record[rule.Name] = normalized
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return record, nil
}

// discriminatorValue reads the raw discriminator, falling back to its declared default
func (s *Schema) discriminatorValue(name string, raw map[string]any) string {
	if v, ok := presentValue(raw, name); ok {
		return strings.TrimSpace(stringify(v))
	}
	rule, ok := s.Rule(name)
	if !ok {
		return ""
	}
	if def, ok := rule.defaultValue(); ok {
		return stringify(def)
	}
	return ""
}

// presentValue reports a value as absent when the key is missing, nil, or a blank string
func presentValue(raw map[string]any, name string) (any, bool) {
	v, ok := raw[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// normalizeDefault converts a declared default to the field's record type so that
// re-validating a normalized record is a no-op. Defaults are never reported as errors.
func (r *FieldRule) normalizeDefault(def any) any {
	if s, ok := def.(string); ok && strings.TrimSpace(s) == "" {
		return def
	}
	if normalized, ferr := r.check(def, Constraint{}); ferr == nil {
		return normalized
	}
	return def
}

func (r *FieldRule) check(value any, constraint Constraint) (any, *FieldError) {
	switch r.Type {
	case TypeString, TypeEmail:
		return r.checkText(value, constraint)
	case TypeNumber:
		return r.checkNumber(value)
	case TypeBoolean:
		return r.checkBoolean(value)
	case TypeDate:
		return r.checkDate(value)
	case TypeDecimal:
		return r.checkDecimal(value)
	}
	fe := r.fail(RuleType, "%s has an unsupported type", r.label())
	return nil, &fe
}

func (r *FieldRule) checkText(value any, constraint Constraint) (any, *FieldError) {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case float64, float32, int, int64, json.Number, bool:
		text = stringify(v)
	default:
		fe := r.fail(RuleType, "%s must be text", r.label())
		return nil, &fe
	}
	text = strings.TrimSpace(utils.SanitizeString(text))

	if r.Type == TypeEmail && !utils.IsEmail(text) {
		fe := r.fail(RuleFormat, "%s must be a valid e-mail address", r.label())
		return nil, &fe
	}
	if r.Check != nil {
		if err := r.Check(text); err != nil {
			fe := r.fail(RuleFormat, "%s %s", r.label(), err.Error())
			return nil, &fe
		}
	}
	if r.MinLength > 0 && utf8.RuneCountInString(text) < r.MinLength {
		fe := r.fail(RuleMinLength, "%s must be at least %d characters", r.label(), r.MinLength)
		return nil, &fe
	}
	if len(constraint.OneOf) > 0 && !contains(constraint.OneOf, text) {
		fe := r.fail(RuleOneOf, "%s must be one of: %s", r.label(), strings.Join(constraint.OneOf, ", "))
		return nil, &fe
	}
	if contains(constraint.NotOneOf, text) {
		fe := r.fail(RuleNotOneOf, "%s must not be one of: %s", r.label(), strings.Join(constraint.NotOneOf, ", "))
		return nil, &fe
	}
	return text, nil
}

func (r *FieldRule) checkNumber(value any) (any, *FieldError) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, r.typeError("a number")
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, r.typeError("a number")
		}
		n = parsed
	default:
		return nil, r.typeError("a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, r.typeError("a number")
	}
	if r.Min != nil && n < *r.Min {
		fe := r.fail(RuleMin, "%s must be greater than or equal to %v", r.label(), *r.Min)
		return nil, &fe
	}
	return n, nil
}

func (r *FieldRule) checkBoolean(value any) (any, *FieldError) {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes", "sim":
			b = true
		case "off", "no", "nao", "não":
			b = false
		default:
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, r.typeError("true or false")
			}
			b = parsed
		}
	default:
		return nil, r.typeError("true or false")
	}
	if r.MustBe != nil && b != *r.MustBe {
		fe := r.fail(RuleEquals, "%s must be %t", r.label(), *r.MustBe)
		return nil, &fe
	}
	return b, nil
}

func (r *FieldRule) checkDate(value any) (any, *FieldError) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		text := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t, nil
			}
		}
	}
	return nil, r.typeError("a valid date")
}

func (r *FieldRule) checkDecimal(value any) (any, *FieldError) {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, r.typeError("a decimal amount")
		}
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, r.typeError("a decimal amount")
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, r.typeError("a decimal amount")
		}
		d = parsed
	default:
		return nil, r.typeError("a decimal amount")
	}
	if r.Min != nil && d.LessThan(decimal.NewFromFloat(*r.Min)) {
		fe := r.fail(RuleMin, "%s must be greater than or equal to %v", r.label(), *r.Min)
		return nil, &fe
	}
	return d, nil
}

func (r *FieldRule) typeError(want string) *FieldError {
	fe := r.fail(RuleType, "%s must be %s", r.label(), want)
	return &fe
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case decimal.Decimal:
		return t.String()
	}
	return fmt.Sprint(v)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
