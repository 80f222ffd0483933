// Package forms declares the business-process forms served by the portal.
package forms

import (
	"fmt"
	"sort"
	"time"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

// Form keys
const (
	TravelRequestIssue    = "travel-request-issue"
	NonExistentApprover   = "non-existent-approver"
	HostingRegularization = "hosting-regularization"
	FuelCardBaseCreation  = "fuel-card-base-creation"
)

// Shared field names
const (
	FieldMacroProcess   = "MACROPROCESSO"
	FieldProcess        = "PROCESSO"
	FieldSLA            = "SLA"
	FieldResolverArea   = "AREA_RESOLVEDORA"
	FieldApprovalTier   = "ALCADA_APROVACAO"
	FieldApprovalFlow   = "WF_APROVACAO"
	FieldApprovalDate   = "DATA_DE_APROVACAO"
	FieldApprovalStatus = "STATUS_APROVACAO"
	FieldApproverLevel  = "APROVADOR_LEVEL"
	FieldCostCenter     = "CENTRO_DE_CUSTOS"
	FieldReason         = "MOTIVO"
)

const (
	macroTravelRequest  = "Solicitação de viagem"
	macroCorporateCards = "Cartões corporativos"
	resolverArea        = "Viagens Corporativas"
	statusApproved      = "Aprovado"
)

// Catalogue is the read-only set of form schemas
type Catalogue struct {
	schemas map[string]*form.Schema
}

// NewCatalogue declares every form. now supplies the default approval date.
func NewCatalogue(now func() time.Time) *Catalogue {
	if now == nil {
		now = time.Now
	}
	c := &Catalogue{schemas: make(map[string]*form.Schema)}
	for _, s := range []*form.Schema{
		travelRequestIssue(now),
		nonExistentApprover(now),
		hostingRegularization(),
		fuelCardBaseCreation(),
	} {
		c.schemas[s.Key] = s
	}
	return c
}

// Get returns the schema registered under key
func (c *Catalogue) Get(key string) (*form.Schema, error) {
	s, ok := c.schemas[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, key)
	}
	return s, nil
}

// List returns every schema ordered by key
func (c *Catalogue) List() []*form.Schema {
	out := make([]*form.Schema, 0, len(c.schemas))
	for _, s := range c.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// preApproved declares the approval fields of forms that skip the approval workflow
func preApproved(sla float64, now func() time.Time) []form.FieldRule {
	return []form.FieldRule{
		form.Number(FieldSLA, form.Default(sla)),
		form.Text(FieldResolverArea, form.Default(resolverArea)),
		form.Text(FieldApprovalTier, form.Default("")),
		form.Boolean(FieldApprovalFlow, form.Default(false)),
		form.Date(FieldApprovalDate, form.DefaultFunc(func() any { return now() })),
		form.Text(FieldApprovalStatus, form.Default(statusApproved)),
	}
}

func travelRequestIssue(now func() time.Time) *form.Schema {
	rules := []form.FieldRule{
		form.Text(FieldMacroProcess, form.Required(), form.OneOf(macroTravelRequest)),
		form.Text(FieldProcess, form.Required(), form.OneOf(
			"Dificuldade de acesso ao sistema",
			"Passagem aérea",
			"Hospedagem",
			"Locação de veículo",
			"Emissão de visto",
			"Seguro viagem",
		)),
	}
	rules = append(rules, preApproved(48, now)...)
	rules = append(rules, personFields(TargetBeneficiary, "Beneficiary", true, true)...)
	rules = append(rules,
		form.Text("BENEFICIARIO_NACIONALIDADE", form.Label("Beneficiary country")),
		form.Text(FieldCostCenter, form.Label("Cost center")),
		form.Text(FieldReason, form.Required(), form.Label("Problem description")),
	)

	return form.MustSchema(TravelRequestIssue, "Travel request issue", rules,
		form.WithAttachments(),
		form.WithReceipt("BENEFICIARIO_EMAIL"),
		form.WithLookup(personTarget(TargetBeneficiary, map[entity.EmployeeAttr]string{
			entity.AttrCompanyCode: "BENEFICIARIO_EMPRESA_COD",
			entity.AttrCountry:     "BENEFICIARIO_NACIONALIDADE",
			entity.AttrCostCenter:  FieldCostCenter,
		})),
	)
}

func nonExistentApprover(now func() time.Time) *form.Schema {
	rules := []form.FieldRule{
		form.Text(FieldMacroProcess, form.Required(), form.OneOf(macroTravelRequest)),
		form.Text(FieldProcess, form.Required(), form.OneOf("Aprovador inexistente")),
	}
	rules = append(rules, preApproved(24, now)...)
	rules = append(rules, personFields(TargetBeneficiary, "Beneficiary", true, true)...)
	rules = append(rules,
		form.Text("NACIONAL_INTERNACIONAL", form.Required(), form.Label("Travel type"), form.OneOf("Nacional", "Internacional")),
		form.Text(FieldReason, form.Required(), form.Label("Problem description"), form.MinLength(50)),
	)

	return form.MustSchema(NonExistentApprover, "Non-existent approver", rules,
		form.WithReceipt("BENEFICIARIO_EMAIL"),
		form.WithLookup(personTarget(TargetBeneficiary, map[entity.EmployeeAttr]string{
			entity.AttrCompanyCode: "BENEFICIARIO_EMPRESA_COD",
		})),
	)
}

func hostingRegularization() *form.Schema {
	rules := []form.FieldRule{
		form.Text(FieldMacroProcess, form.Required(), form.OneOf(macroTravelRequest)),
		form.Text(FieldProcess, form.Required(), form.OneOf("Regularização de hospedagem")),
		form.Number(FieldSLA, form.Default(48)),
		form.Text(FieldResolverArea, form.Default(resolverArea)),
		form.Text(FieldApprovalTier, form.Default(LevelSUP)),
		form.Boolean(FieldApprovalFlow, form.Default(true)),
	}

	approver := personFields(TargetApprover, "Approver", true, true)
	for i := range approver {
		approver[i].Required = true
	}
	rules = append(rules, approver...)
	rules = append(rules, approverLevel())

	requester := personFields(TargetRequester, "Requester", true, true)
	for i := range requester {
		if requester[i].Name == TargetRequester+"_EMPRESA_NOME" {
			requester[i].Required = true
		}
	}
	rules = append(rules, requester...)
	rules = append(rules, personFields(TargetBeneficiary, "Beneficiary", true, true)...)
	rules = append(rules,
		form.Boolean("TFD", form.Required(), form.Label("Employee in out-of-town medical treatment"), form.MustBe(true),
			form.Message(form.RuleEquals, "Only regularizations for employees in out-of-town medical treatment (TFD) are accepted")),
		form.Text(FieldCostCenter, form.Required(), form.Label("Cost center")),
		form.Text("ACOMPANHANTES", form.Label("Companions")),
		form.Date("PERIODO_INICIO", form.Required(), form.Label("Stay start")),
		form.Date("PERIODO_FIM", form.Required(), form.Label("Stay end")),
		form.Text(FieldReason, form.Required(), form.Label("Reason"), form.MinLength(20)),
		form.Text("MOTIVO_DA_VIAGEM", form.Required(), form.Label("Travel reason"), form.MinLength(10)),
		form.Text("OBS_PARA_SOLICITACAO", form.Label("Notes")),
		form.Text("ESTABELECIMENTO", form.Required(), form.Message(form.RuleRequired, "Hotel name is required")),
		form.Text("END_LOGRADOURO", form.Required(), form.Message(form.RuleRequired, "City is required")),
	)

	return form.MustSchema(HostingRegularization, "Hosting regularization", rules,
		form.WithReceipt("SOLICITANTE_EMAIL"),
		form.WithLookup(personTarget(TargetApprover, map[entity.EmployeeAttr]string{
			entity.AttrCompanyCode:   "APROVADOR_EMPRESA_COD",
			entity.AttrApprovalLevel: FieldApproverLevel,
		})),
		form.WithLookup(personTarget(TargetRequester, map[entity.EmployeeAttr]string{
			entity.AttrCompanyCode: "SOLICITANTE_EMPRESA_COD",
		})),
		form.WithLookup(personTarget(TargetBeneficiary, map[entity.EmployeeAttr]string{
			entity.AttrCompanyCode: "BENEFICIARIO_EMPRESA_COD",
			entity.AttrCostCenter:  FieldCostCenter,
		})),
	)
}
