package port

import (
	"context"
	"errors"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

// ErrEmployeeNotFound means the directory has no employee for the key. It is an
// absent result, not a failure.
var ErrEmployeeNotFound = errors.New("employee not found")

// EmployeeDirectory resolves employees by id or work e-mail. Results are never cached.
type EmployeeDirectory interface {
	Lookup(ctx context.Context, key entity.LookupKey) (*entity.Employee, error)
}

// EmployeeWriter maintains a local copy of the directory
type EmployeeWriter interface {
	Upsert(ctx context.Context, emp *entity.Employee) error
	Delete(ctx context.Context, id string) error
}

// ReceiptSender notifies the submitter that a request was recorded
type ReceiptSender interface {
	SendReceipt(ctx context.Context, email string, receipt Receipt) error
}

// Receipt summarizes a recorded request
type Receipt struct {
	RequestID int64
	FormKey   string
	FormTitle string
}

// RefreshPublisher announces that the request listing changed
type RefreshPublisher interface {
	Publish(event RefreshEvent)
}

// RefreshEvent is sent to listing subscribers after a successful submission
type RefreshEvent struct {
	RequestID int64  `json:"request_id"`
	FormKey   string `json:"form_key"`
}

// SpreadsheetExporter renders requests as a workbook
type SpreadsheetExporter interface {
	Export(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error)
}
