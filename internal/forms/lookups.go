package forms

import (
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

// Lookup target names; each is also the prefix of the fields it fills
const (
	TargetBeneficiary = "BENEFICIARIO"
	TargetApprover    = "APROVADOR"
	TargetRequester   = "SOLICITANTE"
	TargetBaseManager = "GESTOR_DA_BASE"
	TargetMeasurement = "RESP_MEDICAO"
)

// personTarget maps the common employee attributes onto <prefix>_ID, _NOME, _EMAIL and
// _EMPRESA_NOME, plus any extra attribute/field pairs.
func personTarget(prefix string, extra map[entity.EmployeeAttr]string) form.LookupTarget {
	fields := map[entity.EmployeeAttr]string{
		entity.AttrID:          prefix + "_ID",
		entity.AttrFullName:    prefix + "_NOME",
		entity.AttrEmail:       prefix + "_EMAIL",
		entity.AttrCompanyName: prefix + "_EMPRESA_NOME",
	}
	for attr, field := range extra {
		fields[attr] = field
	}
	return form.LookupTarget{Name: prefix, Fields: fields}
}

// personFields declares the fields personTarget fills. Id, name and e-mail are required
// when the person is mandatory for the form.
func personFields(prefix, label string, required bool, withCompanyCode bool) []form.FieldRule {
	var req []form.Option
	if required {
		req = append(req, form.Required())
	}
	rules := []form.FieldRule{
		form.Text(prefix+"_ID", append(req, form.Label(label+" id"))...),
		form.Text(prefix+"_NOME", append(req, form.Label(label+" name"))...),
		form.Email(prefix+"_EMAIL", append(req, form.Label(label+" e-mail"))...),
	}
	if withCompanyCode {
		rules = append(rules, form.Text(prefix+"_EMPRESA_COD", form.Label(label+" company code")))
	}
	return append(rules, form.Text(prefix+"_EMPRESA_NOME", form.Label(label+" company")))
}
