package lark

import (
	"strings"

	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"

	"github.com/garyjia/travel-support/internal/domain/entity"
)

// contactUser is the subset of a contact user both the REST API and the contact
// events carry
type contactUser struct {
	UserID          string            `json:"user_id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	EnterpriseEmail string            `json:"enterprise_email"`
	Country         string            `json:"country"`
	CustomAttrs     []contactUserAttr `json:"custom_attrs"`
}

type contactUserAttr struct {
	ID    string `json:"id"`
	Value struct {
		Text        string `json:"text"`
		OptionValue string `json:"option_value"`
	} `json:"value"`
}

// employee maps the user onto an Employee. The enterprise mailbox wins over the
// personal one when both are set.
func (u contactUser) employee(m AttrMapping) *entity.Employee {
	attrs := make(map[string]string, len(u.CustomAttrs))
	for _, a := range u.CustomAttrs {
		v := a.Value.Text
		if v == "" {
			v = a.Value.OptionValue
		}
		attrs[a.ID] = strings.TrimSpace(v)
	}

	email := u.EnterpriseEmail
	if email == "" {
		email = u.Email
	}

	return &entity.Employee{
		ID:            strings.ToUpper(strings.TrimSpace(u.UserID)),
		FullName:      strings.TrimSpace(u.Name),
		WorkEmail:     strings.ToLower(strings.TrimSpace(email)),
		CompanyCode:   attrs[m.CompanyCode],
		CompanyName:   attrs[m.CompanyName],
		CostCenter:    attrs[m.CostCenter],
		ApprovalLevel: attrs[m.ApprovalLevel],
		Country:       strings.TrimSpace(u.Country),
	}
}

// fromSDKUser copies the SDK's pointer-heavy user into a contactUser
func fromSDKUser(u *larkcontact.User) contactUser {
	out := contactUser{
		UserID:          derefString(u.UserId),
		Name:            derefString(u.Name),
		Email:           derefString(u.Email),
		EnterpriseEmail: derefString(u.EnterpriseEmail),
		Country:         derefString(u.Country),
	}
	for _, a := range u.CustomAttrs {
		if a == nil {
			continue
		}
		attr := contactUserAttr{ID: derefString(a.Id)}
		if a.Value != nil {
			attr.Value.Text = derefString(a.Value.Text)
			attr.Value.OptionValue = derefString(a.Value.OptionValue)
		}
		out.CustomAttrs = append(out.CustomAttrs, attr)
	}
	return out
}

// derefString safely dereferences a string pointer
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
