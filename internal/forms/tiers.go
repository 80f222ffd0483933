package forms

import "github.com/garyjia/travel-support/internal/domain/form"

// Approval-level codes, lowest first
const (
	LevelStaff = "STAFF"
	LevelSUP   = "SUP"
	LevelD4    = "D-4"
	LevelD3    = "D-3"
	LevelD2    = "D-2"
	LevelD1    = "D-1"
	LevelDE    = "DE"
)

// ApprovalTiers maps the required approval tier (ALCADA_APROVACAO) to the approver
// levels allowed to sign for it. A tier missing from the table adds no restriction.
var ApprovalTiers = map[string]form.Constraint{
	LevelSUP: {NotOneOf: []string{LevelStaff}},
	LevelD4:  {NotOneOf: []string{LevelStaff, LevelSUP}},
	LevelD3:  {OneOf: []string{LevelD3, LevelD2, LevelD1, LevelDE}},
	LevelD2:  {OneOf: []string{LevelD2, LevelD1, LevelDE}},
	LevelD1:  {OneOf: []string{LevelD1, LevelDE}},
}

// approverLevel declares APROVADOR_LEVEL refined by the form's approval tier
func approverLevel() form.FieldRule {
	return form.Text(FieldApproverLevel,
		form.Required(),
		form.Label("Approver level"),
		form.RefinedBy(FieldApprovalTier, ApprovalTiers),
		form.Message(form.RuleOneOf, "The approver's level is below the tier required for this request"),
		form.Message(form.RuleNotOneOf, "The approver's level is below the tier required for this request"),
	)
}
