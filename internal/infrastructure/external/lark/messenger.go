package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

// Messenger implements port.ReceiptSender with IM text messages addressed by e-mail
type Messenger struct {
	create func(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
	logger *zap.Logger
}

// NewMessenger creates a new Lark message sender
func NewMessenger(c *SDKClient, logger *zap.Logger) *Messenger {
	return &Messenger{
		create: c.GetClient().Im.Message.Create,
		logger: logger,
	}
}

// SendReceipt tells the submitter their request was recorded
func (m *Messenger) SendReceipt(ctx context.Context, email string, receipt port.Receipt) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": receiptText(receipt)})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(email).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message", zap.String("receive_id", email), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", email),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

func receiptText(r port.Receipt) string {
	text := fmt.Sprintf(entity.MessageRecorded, r.RequestID)
	if r.FormTitle != "" {
		text = r.FormTitle + "\n" + text
	}
	return text
}

var _ port.ReceiptSender = (*Messenger)(nil)
