package service

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxExportRows   = 10000
)

// RequestPage is one page of a request listing
type RequestPage struct {
	Items  []*entity.Request `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// RequestService serves the listing views of recorded requests
type RequestService interface {
	List(ctx context.Context, filter port.RequestFilter, limit, offset int) (*RequestPage, error)
	Get(ctx context.Context, id int64) (*entity.Request, error)
	Attachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error)
	ReadAttachment(ctx context.Context, id int64, name string) (*entity.StoredFile, error)
	Export(ctx context.Context, filter port.RequestFilter) ([]byte, error)
}

type requestServiceImpl struct {
	reader    port.RequestReader
	store     port.RecordStore
	exporter  port.SpreadsheetExporter
	catalogue FormCatalogue
	logger    Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	reader port.RequestReader,
	store port.RecordStore,
	exporter port.SpreadsheetExporter,
	catalogue FormCatalogue,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		reader:    reader,
		store:     store,
		exporter:  exporter,
		catalogue: catalogue,
		logger:    logger,
	}
}

func (s *requestServiceImpl) List(ctx context.Context, filter port.RequestFilter, limit, offset int) (*RequestPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if filter.FormKey != "" {
		if _, err := s.catalogue.Get(filter.FormKey); err != nil {
			return nil, err
		}
	}

	items, err := s.reader.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	total, err := s.reader.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	if items == nil {
		items = []*entity.Request{}
	}
	return &RequestPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *requestServiceImpl) Get(ctx context.Context, id int64) (*entity.Request, error) {
	return s.reader.Get(ctx, id)
}

func (s *requestServiceImpl) Attachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
	if _, err := s.reader.Get(ctx, id); err != nil {
		return nil, err
	}
	files, err := s.store.GetAttachments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}
	return files, nil
}

func (s *requestServiceImpl) ReadAttachment(ctx context.Context, id int64, name string) (*entity.StoredFile, error) {
	return s.reader.ReadAttachment(ctx, id, name)
}

// Export renders the matching requests as a workbook with one sheet per form
func (s *requestServiceImpl) Export(ctx context.Context, filter port.RequestFilter) ([]byte, error) {
	schemas := s.catalogue.List()
	if filter.FormKey != "" {
		schema, err := s.catalogue.Get(filter.FormKey)
		if err != nil {
			return nil, err
		}
		schemas = schemas[:0:0]
		schemas = append(schemas, schema)
	}

	requests, err := s.reader.List(ctx, filter, maxExportRows, 0)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	data, err := s.exporter.Export(ctx, schemas, requests)
	if err != nil {
		s.logger.Error("Failed to export requests", "error", err)
		return nil, fmt.Errorf("export requests: %w", err)
	}
	s.logger.Info("Requests exported", "rows", len(requests), "forms", len(schemas))
	return data, nil
}
