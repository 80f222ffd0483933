package service

import (
	"context"
	"sync"

	"github.com/garyjia/travel-support/internal/application/dispatcher"
	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/event"
	"github.com/garyjia/travel-support/internal/domain/form"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockDirectory struct {
	lookupFunc func(ctx context.Context, key entity.LookupKey) (*entity.Employee, error)
	keys       []entity.LookupKey
}

func (m *mockDirectory) Lookup(ctx context.Context, key entity.LookupKey) (*entity.Employee, error) {
	m.keys = append(m.keys, key)
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, key)
	}
	return nil, port.ErrEmployeeNotFound
}

type mockRecordStore struct {
	createFunc     func(ctx context.Context, formKey string, record form.Record) (int64, error)
	addFunc        func(ctx context.Context, id int64, files []entity.StagedAttachment) error
	getAttachments func(ctx context.Context, id int64) ([]entity.AttachmentInfo, error)
	created        []form.Record
}

func (m *mockRecordStore) Create(ctx context.Context, formKey string, record form.Record) (int64, error) {
	m.created = append(m.created, record)
	if m.createFunc != nil {
		return m.createFunc(ctx, formKey, record)
	}
	return int64(len(m.created)), nil
}

func (m *mockRecordStore) AddAttachments(ctx context.Context, id int64, files []entity.StagedAttachment) error {
	if m.addFunc != nil {
		return m.addFunc(ctx, id, files)
	}
	return nil
}

func (m *mockRecordStore) GetAttachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
	if m.getAttachments != nil {
		return m.getAttachments(ctx, id)
	}
	return nil, nil
}

type mockRequestReader struct {
	getFunc   func(ctx context.Context, id int64) (*entity.Request, error)
	listFunc  func(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*entity.Request, error)
	countFunc func(ctx context.Context, filter port.RequestFilter) (int, error)
	readFunc  func(ctx context.Context, id int64, name string) (*entity.StoredFile, error)
}

func (m *mockRequestReader) Get(ctx context.Context, id int64) (*entity.Request, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.Request{ID: id}, nil
}

func (m *mockRequestReader) List(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*entity.Request, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockRequestReader) Count(ctx context.Context, filter port.RequestFilter) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockRequestReader) ReadAttachment(ctx context.Context, id int64, name string) (*entity.StoredFile, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, id, name)
	}
	return nil, nil
}

type mockExporter struct {
	exportFunc func(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error)
}

func (m *mockExporter) Export(ctx context.Context, schemas []*form.Schema, requests []*entity.Request) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, schemas, requests)
	}
	return []byte("xlsx"), nil
}

type mockReceiptSender struct {
	sendFunc func(ctx context.Context, email string, receipt port.Receipt) error
	sent     []port.Receipt
}

func (m *mockReceiptSender) SendReceipt(ctx context.Context, email string, receipt port.Receipt) error {
	m.sent = append(m.sent, receipt)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, email, receipt)
	}
	return nil
}

type mockEmployeeWriter struct {
	upserted []*entity.Employee
	deleted  []string
	err      error
}

func (m *mockEmployeeWriter) Upsert(ctx context.Context, emp *entity.Employee) error {
	m.upserted = append(m.upserted, emp)
	return m.err
}

func (m *mockEmployeeWriter) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

// recordingDispatcher runs async dispatches inline
type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (d *recordingDispatcher) Subscribe(event.Type, string, dispatcher.Handler) {}

func (d *recordingDispatcher) Unsubscribe(event.Type, string) {}

func (d *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evt)
	return nil
}

func (d *recordingDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	_ = d.Dispatch(ctx, evt)
}

func (d *recordingDispatcher) Handlers(event.Type) []string { return nil }

func (d *recordingDispatcher) Close() error { return nil }

var _ dispatcher.Dispatcher = (*recordingDispatcher)(nil)
