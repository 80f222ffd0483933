package forms

import (
	"fmt"
	"regexp"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/pkg/utils"
)

var postalCode = regexp.MustCompile(`^\d{5}-?\d{3}$`)

func checkPostalCode(v string) error {
	if !postalCode.MatchString(v) {
		return fmt.Errorf("must be a postal code like 01310-100")
	}
	return nil
}

func fuelCardBaseCreation() *form.Schema {
	rules := []form.FieldRule{
		form.Text(FieldMacroProcess, form.Required(), form.OneOf(macroCorporateCards)),
		form.Text(FieldProcess, form.Required(), form.OneOf("Criação de base")),
		form.Number(FieldSLA, form.Default(72)),
		form.Text(FieldResolverArea, form.Default(resolverArea)),
		form.Text(FieldApprovalTier, form.Default(LevelD4)),
		form.Boolean(FieldApprovalFlow, form.Default(true)),
	}
	rules = append(rules, personFields(TargetBaseManager, "Base manager", true, false)...)
	rules = append(rules, personFields(TargetMeasurement, "Measurement owner", true, false)...)
	rules = append(rules, personFields(TargetApprover, "Approver", true, false)...)
	rules = append(rules,
		approverLevel(),
		form.Text("CNPJ_DE_FATURAMENTO", form.Required(), form.Label("Billing CNPJ"),
			form.Check(utils.ValidateCNPJ), form.Message(form.RuleFormat, "Billing CNPJ is not valid")),
		form.Text("END_CEP", form.Required(), form.Label("Postal code"), form.Check(checkPostalCode)),
		form.Text("END_LOGRADOURO", form.Required(), form.Label("Street")),
		form.Text("END_NUMERO", form.Required(), form.Label("Number")),
		form.Text("END_COMPLEMENTO", form.Label("Complement")),
		form.Number("QUANTIDADE_DE_CARTOES", form.Required(), form.Label("Card quantity"), form.Min(1)),
		form.Money("NOVO_LIMITE", form.Required(), form.Label("New limit"), form.Min(0)),
		form.Text(FieldCostCenter, form.Required(), form.Label("Cost center")),
		form.Text(FieldReason, form.Required(), form.Label("Reason"), form.MinLength(20)),
	)

	return form.MustSchema(FuelCardBaseCreation, "Fuel card base creation", rules,
		form.WithAttachments(),
		form.WithReceipt("GESTOR_DA_BASE_EMAIL"),
		form.WithLookup(personTarget(TargetBaseManager, nil)),
		form.WithLookup(personTarget(TargetMeasurement, nil)),
		form.WithLookup(personTarget(TargetApprover, map[entity.EmployeeAttr]string{
			entity.AttrApprovalLevel: FieldApproverLevel,
		})),
	)
}
