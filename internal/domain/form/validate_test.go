package form

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tierCases = map[string]Constraint{
	"SUP": {NotOneOf: []string{"STAFF"}},
	"D-4": {NotOneOf: []string{"STAFF", "SUP"}},
	"D-3": {OneOf: []string{"D-3", "D-2", "D-1", "DE"}},
	"D-2": {OneOf: []string{"D-2", "D-1", "DE"}},
	"D-1": {OneOf: []string{"D-1", "DE"}},
}

func newTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("test-form", "Test", []FieldRule{
		Text("ALCADA", Default("SUP")),
		Text("LEVEL", Required(), RefinedBy("ALCADA", tierCases)),
		Email("EMAIL", Required()),
		Text("MOTIVO", Required(), MinLength(10)),
		Number("SLA", Default(24)),
		Boolean("TFD", Required(), MustBe(true)),
		Date("OPENED_AT", DefaultFunc(func() any { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) })),
		Money("LIMIT", Min(0)),
		Text("NOTES"),
	})
	require.NoError(t, err)
	return s
}

func validInput() map[string]any {
	return map[string]any{
		"LEVEL":  "D-1",
		"EMAIL":  "ana@example.com",
		"MOTIVO": "client visit in Recife",
		"TFD":    true,
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	s := newTestSchema(t)

	record, err := s.Validate(validInput())
	require.NoError(t, err)

	assert.Equal(t, "SUP", record["ALCADA"])
	assert.Equal(t, float64(24), record["SLA"])
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), record["OPENED_AT"])
	assert.Equal(t, true, record["TFD"])
	assert.NotContains(t, record, "NOTES")
	assert.NotContains(t, record, "LIMIT")
}

func TestValidate_BlankValueUsesDefault(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["SLA"] = "   "

	record, err := s.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, float64(24), record["SLA"])
}

func TestValidate_DropsUndeclaredKeys(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["UNKNOWN"] = "x"

	record, err := s.Validate(in)
	require.NoError(t, err)
	assert.NotContains(t, record, "UNKNOWN")
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	s := newTestSchema(t)

	record, err := s.Validate(map[string]any{
		"MOTIVO": "short",
		"TFD":    false,
		"SLA":    "abc",
	})
	require.Error(t, err)
	assert.Nil(t, record)

	errs, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.True(t, errs.Has("LEVEL", RuleRequired))
	assert.True(t, errs.Has("EMAIL", RuleRequired))
	assert.True(t, errs.Has("MOTIVO", RuleMinLength))
	assert.True(t, errs.Has("SLA", RuleType))
	assert.True(t, errs.Has("TFD", RuleEquals))
	assert.Len(t, errs, 5)

	// schema order
	assert.Equal(t, "LEVEL", errs[0].Field)
	assert.Equal(t, "TFD", errs[len(errs)-1].Field)
}

func TestValidate_Totality(t *testing.T) {
	s := newTestSchema(t)

	inputs := []map[string]any{
		nil,
		{},
		{"LEVEL": 12, "EMAIL": false, "MOTIVO": []string{"x"}, "TFD": "maybe"},
		{"OPENED_AT": "not a date", "LIMIT": "1,5"},
		{"LIMIT": -3, "SLA": map[string]any{}},
		validInput(),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			record, err := s.Validate(in)
			if err != nil {
				assert.Nil(t, record)
				errs, ok := AsFieldErrors(err)
				require.True(t, ok)
				assert.NotEmpty(t, errs)
				return
			}
			for _, name := range s.FieldNames() {
				rule, _ := s.Rule(name)
				if rule.Required {
					assert.Contains(t, record, name)
				}
			}
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["LIMIT"] = "1500.50"
	in["OPENED_AT"] = "2024-06-10"
	in["SLA"] = "48"

	first, err := s.Validate(in)
	require.NoError(t, err)

	second, err := s.Validate(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	limit, ok := second.Decimal("LIMIT")
	require.True(t, ok)
	assert.True(t, limit.Equal(decimal.RequireFromString("1500.5")))
}

func TestValidate_TierRefinement(t *testing.T) {
	s := newTestSchema(t)
	codes := []string{"STAFF", "SUP", "D-4", "D-3", "D-2", "D-1", "DE"}

	accepted := map[string][]string{
		"D-2": {"D-2", "D-1", "DE"},
		"D-3": {"D-3", "D-2", "D-1", "DE"},
		"D-1": {"D-1", "DE"},
		"D-4": {"D-4", "D-3", "D-2", "D-1", "DE"},
		"SUP": {"SUP", "D-4", "D-3", "D-2", "D-1", "DE"},
	}

	for tier, allowed := range accepted {
		for _, code := range codes {
			in := validInput()
			in["ALCADA"] = tier
			in["LEVEL"] = code

			_, err := s.Validate(in)
			if contains(allowed, code) {
				assert.NoError(t, err, "tier %s should accept %s", tier, code)
				continue
			}
			require.Error(t, err, "tier %s should reject %s", tier, code)
			errs, _ := AsFieldErrors(err)
			assert.True(t, errs.Has("LEVEL", RuleOneOf) || errs.Has("LEVEL", RuleNotOneOf))
		}
	}
}

func TestValidate_RefinementUsesDiscriminatorDefault(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["LEVEL"] = "STAFF"

	_, err := s.Validate(in)
	require.Error(t, err)
	errs, _ := AsFieldErrors(err)
	assert.True(t, errs.Has("LEVEL", RuleNotOneOf))
}

func TestValidate_UnknownTierLeavesBaseConstraint(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["ALCADA"] = "CEO"
	in["LEVEL"] = "STAFF"

	_, err := s.Validate(in)
	assert.NoError(t, err)
}

func TestValidate_RequiredBeforeFormat(t *testing.T) {
	s := newTestSchema(t)

	in := validInput()
	in["EMAIL"] = ""
	_, err := s.Validate(in)
	require.Error(t, err)
	errs, _ := AsFieldErrors(err)
	assert.True(t, errs.Has("EMAIL", RuleRequired))
	assert.False(t, errs.Has("EMAIL", RuleFormat))

	in["EMAIL"] = "not-an-address"
	_, err = s.Validate(in)
	require.Error(t, err)
	errs, _ = AsFieldErrors(err)
	assert.True(t, errs.Has("EMAIL", RuleFormat))
	assert.False(t, errs.Has("EMAIL", RuleRequired))
}

func TestValidate_CustomMessage(t *testing.T) {
	s, err := NewSchema("hotel", "Hotel", []FieldRule{
		Text("HOTEL", Required(), Message(RuleRequired, "Inform the hotel name")),
	})
	require.NoError(t, err)

	_, err = s.Validate(map[string]any{})
	errs, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Inform the hotel name", errs[0].Message)
	assert.Equal(t, map[string][]string{"HOTEL": {"Inform the hotel name"}}, errs.ByField())
}

func TestValidate_BooleanSpellings(t *testing.T) {
	s, err := NewSchema("flags", "Flags", []FieldRule{Boolean("FLAG", Required())})
	require.NoError(t, err)

	for in, want := range map[string]bool{"on": true, "sim": true, "true": true, "off": false, "não": false, "0": false} {
		record, err := s.Validate(map[string]any{"FLAG": in})
		require.NoError(t, err, in)
		assert.Equal(t, want, record["FLAG"], in)
	}
}

func TestValidate_TextTrimsAndSanitizes(t *testing.T) {
	s, err := NewSchema("text", "Text", []FieldRule{Text("NAME", Required())})
	require.NoError(t, err)

	record, err := s.Validate(map[string]any{"NAME": "  Ana\x00 Souza  "})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", record.String("NAME"))
}

func TestValidate_CheckFunction(t *testing.T) {
	s, err := NewSchema("check", "Check", []FieldRule{
		Text("CODE", Required(), Check(func(v string) error {
			if len(v) != 3 {
				return assert.AnError
			}
			return nil
		})),
	})
	require.NoError(t, err)

	_, err = s.Validate(map[string]any{"CODE": "ABCD"})
	errs, _ := AsFieldErrors(err)
	assert.True(t, errs.Has("CODE", RuleFormat))

	_, err = s.Validate(map[string]any{"CODE": "ABC"})
	assert.NoError(t, err)
}

func TestValidate_MoneyMinimum(t *testing.T) {
	s := newTestSchema(t)
	in := validInput()
	in["LIMIT"] = "-0.01"

	_, err := s.Validate(in)
	errs, _ := AsFieldErrors(err)
	assert.True(t, errs.Has("LIMIT", RuleMin))
}
