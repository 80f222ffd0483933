package lark

import (
	"context"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkcontact "github.com/larksuite/oapi-sdk-go/v3/service/contact/v3"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

// codes the contact API answers with for user ids it cannot resolve for this app
var userNotFoundCodes = map[int]bool{
	41050: true,
	40013: true,
}

// Directory implements port.EmployeeDirectory over the contact v3 API.
// Ids are the tenant's user_id; e-mails are first resolved to a user_id.
type Directory struct {
	getUser    func(ctx context.Context, req *larkcontact.GetUserReq, options ...larkcore.RequestOptionFunc) (*larkcontact.GetUserResp, error)
	batchGetID func(ctx context.Context, req *larkcontact.BatchGetIdUserReq, options ...larkcore.RequestOptionFunc) (*larkcontact.BatchGetIdUserResp, error)
	attrs      AttrMapping
	logger     *zap.Logger
}

// NewDirectory creates a new Lark-backed employee directory
func NewDirectory(c *SDKClient, logger *zap.Logger) *Directory {
	return &Directory{
		getUser:    c.GetClient().Contact.User.Get,
		batchGetID: c.GetClient().Contact.User.BatchGetId,
		attrs:      c.Attrs(),
		logger:     logger,
	}
}

// Lookup resolves an employee by id or e-mail
func (d *Directory) Lookup(ctx context.Context, key entity.LookupKey) (*entity.Employee, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	userID := key.Value
	if key.Field == entity.LookupByEmail {
		id, err := d.resolveEmail(ctx, key.Value)
		if err != nil {
			return nil, err
		}
		userID = id
	}
	return d.fetch(ctx, userID)
}

func (d *Directory) resolveEmail(ctx context.Context, email string) (string, error) {
	req := larkcontact.NewBatchGetIdUserReqBuilder().
		UserIdType("user_id").
		Body(larkcontact.NewBatchGetIdUserReqBodyBuilder().
			Emails([]string{email}).
			Build()).
		Build()

	resp, err := d.batchGetID(ctx, req)
	if err != nil {
		d.logger.Error("Failed to resolve e-mail", zap.Error(err))
		return "", fmt.Errorf("failed to resolve e-mail: %w", err)
	}
	if !resp.Success() {
		d.logger.Error("API returned failure", zap.Int("code", resp.Code), zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data != nil {
		for _, u := range resp.Data.UserList {
			if u != nil && u.UserId != nil && *u.UserId != "" {
				return *u.UserId, nil
			}
		}
	}
	return "", port.ErrEmployeeNotFound
}

func (d *Directory) fetch(ctx context.Context, userID string) (*entity.Employee, error) {
	req := larkcontact.NewGetUserReqBuilder().
		UserId(userID).
		UserIdType("user_id").
		Build()

	resp, err := d.getUser(ctx, req)
	if err != nil {
		d.logger.Error("Failed to get user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if userNotFoundCodes[resp.Code] {
		return nil, port.ErrEmployeeNotFound
	}
	if !resp.Success() {
		d.logger.Error("API returned failure",
			zap.String("user_id", userID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return nil, fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data == nil || resp.Data.User == nil {
		return nil, port.ErrEmployeeNotFound
	}

	emp := fromSDKUser(resp.Data.User).employee(d.attrs)
	if emp.ID == "" {
		emp.ID = userID
	}
	return emp, nil
}

var _ port.EmployeeDirectory = (*Directory)(nil)
