package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/internal/forms"
)

func newRequestService(reader *mockRequestReader, store *mockRecordStore, exporter *mockExporter) RequestService {
	return NewRequestService(reader, store, exporter, forms.NewCatalogue(time.Now), &mockLogger{})
}

func TestRequestService_ListClampsPaging(t *testing.T) {
	var gotLimit, gotOffset int
	reader := &mockRequestReader{
		listFunc: func(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*entity.Request, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
		countFunc: func(ctx context.Context, filter port.RequestFilter) (int, error) { return 7, nil },
	}
	svc := newRequestService(reader, &mockRecordStore{}, &mockExporter{})

	page, err := svc.List(context.Background(), port.RequestFilter{}, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, gotLimit)
	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, 7, page.Total)
	assert.NotNil(t, page.Items)

	_, err = svc.List(context.Background(), port.RequestFilter{}, 10000, 20)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, gotLimit)
	assert.Equal(t, 20, gotOffset)
}

func TestRequestService_ListUnknownForm(t *testing.T) {
	svc := newRequestService(&mockRequestReader{}, &mockRecordStore{}, &mockExporter{})
	_, err := svc.List(context.Background(), port.RequestFilter{FormKey: "nope"}, 10, 0)
	assert.ErrorIs(t, err, forms.ErrUnknownForm)
}

func TestRequestService_AttachmentsRequiresRequest(t *testing.T) {
	reader := &mockRequestReader{
		getFunc: func(ctx context.Context, id int64) (*entity.Request, error) {
			return nil, port.ErrRequestNotFound
		},
	}
	store := &mockRecordStore{
		getAttachments: func(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
			t.Fatal("attachments read for a missing request")
			return nil, nil
		},
	}
	svc := newRequestService(reader, store, &mockExporter{})

	_, err := svc.Attachments(context.Background(), 9)
	assert.ErrorIs(t, err, port.ErrRequestNotFound)
}

func TestRequestService_Attachments(t *testing.T) {
	store := &mockRecordStore{
		getAttachments: func(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
			return []entity.AttachmentInfo{{FileName: "a.pdf", URL: "/api/requests/3/attachments/a.pdf"}}, nil
		},
	}
	svc := newRequestService(&mockRequestReader{}, store, &mockExporter{})

	files, err := svc.Attachments(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0].FileName)
}

func TestRequestService_ExportSingleForm(t *testing.T) {
	var keys []string
	exporter := &mockExporter{
		exportFunc: func(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error) {
			for _, s := range schemas {
				keys = append(keys, s.Key)
			}
			return []byte("ok"), nil
		},
	}
	var gotLimit int
	reader := &mockRequestReader{
		listFunc: func(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*entity.Request, error) {
			gotLimit = limit
			return []*entity.Request{{ID: 1, FormKey: forms.HostingRegularization}}, nil
		},
	}
	svc := newRequestService(reader, &mockRecordStore{}, exporter)

	data, err := svc.Export(context.Background(), port.RequestFilter{FormKey: forms.HostingRegularization})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, []string{forms.HostingRegularization}, keys)
	assert.Equal(t, maxExportRows, gotLimit)
}

func TestRequestService_ExportAllFormsAndFailure(t *testing.T) {
	var count int
	exporter := &mockExporter{
		exportFunc: func(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error) {
			count = len(schemas)
			return nil, errors.New("disk full")
		},
	}
	logger := &mockLogger{}
	svc := NewRequestService(&mockRequestReader{}, &mockRecordStore{}, exporter, forms.NewCatalogue(time.Now), logger)

	_, err := svc.Export(context.Background(), port.RequestFilter{})
	assert.Error(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, []string{"Failed to export requests"}, logger.errors)
}
