package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

var testAttrs = AttrMapping{
	CompanyCode:   "C-1",
	CompanyName:   "C-2",
	CostCenter:    "C-3",
	ApprovalLevel: "C-4",
}

func strPtr(s string) *string { return &s }

func sdkUser() *larkcontact.User {
	return &larkcontact.User{
		UserId:          strPtr("e100"),
		Name:            strPtr(" Ana Lima "),
		Email:           strPtr("ana@gmail.com"),
		EnterpriseEmail: strPtr("Ana.Lima@Example.com"),
		Country:         strPtr("BR"),
		CustomAttrs: []*larkcontact.UserCustomAttr{
			{Id: strPtr("C-1"), Value: &larkcontact.UserCustomAttrValue{Text: strPtr("0001")}},
			{Id: strPtr("C-2"), Value: &larkcontact.UserCustomAttrValue{Text: strPtr("Example SA")}},
			{Id: strPtr("C-3"), Value: &larkcontact.UserCustomAttrValue{Text: strPtr("CC-10")}},
			{Id: strPtr("C-4"), Value: &larkcontact.UserCustomAttrValue{OptionValue: strPtr("D-2")}},
			nil,
		},
	}
}

func TestFromSDKUser_MapsEmployee(t *testing.T) {
	emp := fromSDKUser(sdkUser()).employee(testAttrs)

	assert.Equal(t, &entity.Employee{
		ID:            "E100",
		FullName:      "Ana Lima",
		WorkEmail:     "ana.lima@example.com",
		CompanyCode:   "0001",
		CompanyName:   "Example SA",
		CostCenter:    "CC-10",
		ApprovalLevel: "D-2",
		Country:       "BR",
	}, emp)
}

func TestDirectory_LookupByEmail(t *testing.T) {
	var gotID string
	d := &Directory{
		attrs:  testAttrs,
		logger: zap.NewNop(),
		batchGetID: func(ctx context.Context, req *larkcontact.BatchGetIdUserReq, _ ...larkcore.RequestOptionFunc) (*larkcontact.BatchGetIdUserResp, error) {
			assert.Equal(t, []string{"ana.lima@example.com"}, req.Body.Emails)
			return &larkcontact.BatchGetIdUserResp{Data: &larkcontact.BatchGetIdUserRespData{
				UserList: []*larkcontact.UserContactInfo{{UserId: strPtr("e100"), Email: strPtr("ana.lima@example.com")}},
			}}, nil
		},
		getUser: func(ctx context.Context, req *larkcontact.GetUserReq, _ ...larkcore.RequestOptionFunc) (*larkcontact.GetUserResp, error) {
			gotID = "called"
			return &larkcontact.GetUserResp{Data: &larkcontact.GetUserRespData{User: sdkUser()}}, nil
		},
	}

	emp, err := d.Lookup(context.Background(), entity.LookupKey{Field: entity.LookupByEmail, Value: "Ana.Lima@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "called", gotID)
	assert.Equal(t, "E100", emp.ID)
}

func TestDirectory_EmailWithoutUser(t *testing.T) {
	d := &Directory{
		logger: zap.NewNop(),
		batchGetID: func(ctx context.Context, req *larkcontact.BatchGetIdUserReq, _ ...larkcore.RequestOptionFunc) (*larkcontact.BatchGetIdUserResp, error) {
			return &larkcontact.BatchGetIdUserResp{Data: &larkcontact.BatchGetIdUserRespData{
				UserList: []*larkcontact.UserContactInfo{{Email: strPtr("ghost@example.com")}},
			}}, nil
		},
		getUser: func(ctx context.Context, req *larkcontact.GetUserReq, _ ...larkcore.RequestOptionFunc) (*larkcontact.GetUserResp, error) {
			t.Fatal("user fetched for an unresolved e-mail")
			return nil, nil
		},
	}

	_, err := d.Lookup(context.Background(), entity.LookupKey{Field: entity.LookupByEmail, Value: "ghost@example.com"})
	assert.ErrorIs(t, err, port.ErrEmployeeNotFound)
}

func TestDirectory_LookupByIDResponses(t *testing.T) {
	tests := []struct {
		name     string
		resp     *larkcontact.GetUserResp
		err      error
		notFound bool
	}{
		{name: "unknown id", resp: &larkcontact.GetUserResp{CodeError: larkcore.CodeError{Code: 41050, Msg: "no user authority"}}, notFound: true},
		{name: "empty data", resp: &larkcontact.GetUserResp{}, notFound: true},
		{name: "api failure", resp: &larkcontact.GetUserResp{CodeError: larkcore.CodeError{Code: 99991663, Msg: "token invalid"}}},
		{name: "transport failure", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Directory{
				logger: zap.NewNop(),
				getUser: func(ctx context.Context, req *larkcontact.GetUserReq, _ ...larkcore.RequestOptionFunc) (*larkcontact.GetUserResp, error) {
					return tt.resp, tt.err
				},
			}
			_, err := d.Lookup(context.Background(), entity.LookupKey{Field: entity.LookupByID, Value: "e1"})
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, port.ErrEmployeeNotFound))
		})
	}
}

func TestMessenger_SendReceipt(t *testing.T) {
	var body *larkim.CreateMessageReqBody
	m := &Messenger{
		logger: zap.NewNop(),
		create: func(ctx context.Context, req *larkim.CreateMessageReq, _ ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
			body = req.Body
			return &larkim.CreateMessageResp{}, nil
		},
	}

	err := m.SendReceipt(context.Background(), "ana@example.com", port.Receipt{RequestID: 42, FormTitle: "Hosting \"regularization\""})
	require.NoError(t, err)
	require.NotNil(t, body)
	assert.Equal(t, "ana@example.com", *body.ReceiveId)
	assert.Equal(t, "text", *body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, "Hosting \"regularization\"\nRequest recorded successfully! ID:42", content["text"])
}

func TestMessenger_SendReceiptFailure(t *testing.T) {
	m := &Messenger{
		logger: zap.NewNop(),
		create: func(ctx context.Context, req *larkim.CreateMessageReq, _ ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
			return &larkim.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230013, Msg: "bot has no availability to this user"}}, nil
		},
	}

	err := m.SendReceipt(context.Background(), "ana@example.com", port.Receipt{RequestID: 1})
	assert.ErrorContains(t, err, "230013")
	assert.Error(t, m.SendReceipt(context.Background(), "", port.Receipt{}))
}
