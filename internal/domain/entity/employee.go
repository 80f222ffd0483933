package entity

import (
	"fmt"
	"strings"
)

// EmployeeAttr names one attribute of a directory entry that a form can auto-populate
type EmployeeAttr string

const (
	AttrID            EmployeeAttr = "id"
	AttrFullName      EmployeeAttr = "full_name"
	AttrEmail         EmployeeAttr = "email"
	AttrCompanyCode   EmployeeAttr = "company_code"
	AttrCompanyName   EmployeeAttr = "company_name"
	AttrCostCenter    EmployeeAttr = "cost_center"
	AttrApprovalLevel EmployeeAttr = "approval_level"
	AttrCountry       EmployeeAttr = "country"
)

// Employee is a read-only entry from the corporate employee directory
type Employee struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	WorkEmail     string `json:"work_email"`
	CompanyCode   string `json:"company_code"`
	CompanyName   string `json:"company_name"`
	CostCenter    string `json:"cost_center"`
	ApprovalLevel string `json:"approval_level"`
	Country       string `json:"country,omitempty"`
}

// Attribute returns the value of one attribute
func (e *Employee) Attribute(attr EmployeeAttr) string {
	switch attr {
	case AttrID:
		return e.ID
	case AttrFullName:
		return e.FullName
	case AttrEmail:
		return e.WorkEmail
	case AttrCompanyCode:
		return e.CompanyCode
	case AttrCompanyName:
		return e.CompanyName
	case AttrCostCenter:
		return e.CostCenter
	case AttrApprovalLevel:
		return e.ApprovalLevel
	case AttrCountry:
		return e.Country
	}
	return ""
}

// LookupField selects which directory key a lookup uses
type LookupField string

const (
	LookupByID    LookupField = "id"
	LookupByEmail LookupField = "email"
)

// LookupKey identifies an employee by id or work e-mail
type LookupKey struct {
	Field LookupField `json:"field"`
	Value string      `json:"value"`
}

// Normalize trims the value; ids are upper-cased and e-mails lower-cased as the directory stores them
func (k LookupKey) Normalize() LookupKey {
	v := strings.TrimSpace(k.Value)
	switch k.Field {
	case LookupByID:
		v = strings.ToUpper(v)
	case LookupByEmail:
		v = strings.ToLower(v)
	}
	return LookupKey{Field: k.Field, Value: v}
}

// Validate checks the key can be sent to the directory
func (k LookupKey) Validate() error {
	if k.Field != LookupByID && k.Field != LookupByEmail {
		return fmt.Errorf("unsupported lookup field %q", k.Field)
	}
	if strings.TrimSpace(k.Value) == "" {
		return fmt.Errorf("lookup value is required")
	}
	return nil
}
