package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/event"
)

// ReceiptService sends the submitter a receipt for each recorded request
type ReceiptService struct {
	sender port.ReceiptSender
	logger Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(sender port.ReceiptSender, logger Logger) *ReceiptService {
	return &ReceiptService{sender: sender, logger: logger}
}

// HandleRequestRecorded is subscribed to event.TypeRequestRecorded. Events without a
// receipt address are skipped.
func (s *ReceiptService) HandleRequestRecorded(ctx context.Context, evt *event.Event) error {
	email := evt.GetPayloadString(event.KeyReceiptEmail)
	if email == "" {
		return nil
	}

	receipt := port.Receipt{
		RequestID: evt.RequestID,
		FormKey:   evt.FormKey,
		FormTitle: evt.GetPayloadString(event.KeyFormTitle),
	}
	if err := s.sender.SendReceipt(ctx, email, receipt); err != nil {
		s.logger.Error("Failed to send receipt", "request_id", evt.RequestID, "email", email, "error", err)
		return fmt.Errorf("send receipt: %w", err)
	}

	s.logger.Info("Receipt sent", "request_id", evt.RequestID, "email", email)
	return nil
}
