package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

// ErrRequestNotFound is returned when no request exists with the given id
var ErrRequestNotFound = errors.New("request not found")

// RecordStore is the list store that receives submitted forms
type RecordStore interface {
	// Create stores a normalized record and returns its id
	Create(ctx context.Context, formKey string, record form.Record) (int64, error)

	// AddAttachments uploads files to an existing record
	AddAttachments(ctx context.Context, id int64, files []entity.StagedAttachment) error

	// GetAttachments lists the files stored against a record
	GetAttachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error)
}

// RequestFilter narrows a request listing
type RequestFilter struct {
	FormKey string
	Since   time.Time
	Until   time.Time
}

// RequestReader is the listing side of the record store
type RequestReader interface {
	Get(ctx context.Context, id int64) (*entity.Request, error)
	List(ctx context.Context, filter RequestFilter, limit, offset int) ([]*entity.Request, error)
	Count(ctx context.Context, filter RequestFilter) (int, error)
	ReadAttachment(ctx context.Context, id int64, fileName string) (*entity.StoredFile, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
