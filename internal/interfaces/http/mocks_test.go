package http

import (
	"context"

	"github.com/garyjia/travel-support/internal/application/pipeline"
	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/service"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
)

type mockFormService struct {
	formsFunc        func() []*form.Schema
	schemaFunc       func(key string) (*form.Schema, error)
	openFunc         func(formKey string) (session.View, error)
	sessionFunc      func(id string) (session.View, error)
	resetFunc        func(id string) (session.View, error)
	closeFunc        func(id string) error
	updateFunc       func(id string, values map[string]any) (session.View, error)
	stageFunc        func(id string, files []entity.StagedAttachment) (session.View, error)
	removeFunc       func(id, name string) (session.View, error)
	lookupFunc       func(ctx context.Context, id, target string, key entity.LookupKey) (*service.LookupResult, error)
	findEmployeeFunc func(ctx context.Context, key entity.LookupKey) (*entity.Employee, error)
	submitFunc       func(ctx context.Context, id string, values map[string]any) (*pipeline.Outcome, error)
	submitOnceFunc   func(ctx context.Context, formKey string, values map[string]any, files []entity.StagedAttachment) (*pipeline.Outcome, error)
}

func (m *mockFormService) Forms() []*form.Schema {
	if m.formsFunc != nil {
		return m.formsFunc()
	}
	return nil
}

func (m *mockFormService) Schema(key string) (*form.Schema, error) {
	if m.schemaFunc != nil {
		return m.schemaFunc(key)
	}
	return nil, nil
}

func (m *mockFormService) OpenSession(formKey string) (session.View, error) {
	if m.openFunc != nil {
		return m.openFunc(formKey)
	}
	return session.View{}, nil
}

func (m *mockFormService) Session(id string) (session.View, error) {
	if m.sessionFunc != nil {
		return m.sessionFunc(id)
	}
	return session.View{}, nil
}

func (m *mockFormService) ResetSession(id string) (session.View, error) {
	if m.resetFunc != nil {
		return m.resetFunc(id)
	}
	return session.View{}, nil
}

func (m *mockFormService) CloseSession(id string) error {
	if m.closeFunc != nil {
		return m.closeFunc(id)
	}
	return nil
}

func (m *mockFormService) UpdateValues(id string, values map[string]any) (session.View, error) {
	if m.updateFunc != nil {
		return m.updateFunc(id, values)
	}
	return session.View{}, nil
}

func (m *mockFormService) StageAttachments(id string, files []entity.StagedAttachment) (session.View, error) {
	if m.stageFunc != nil {
		return m.stageFunc(id, files)
	}
	return session.View{}, nil
}

func (m *mockFormService) RemoveAttachment(id, name string) (session.View, error) {
	if m.removeFunc != nil {
		return m.removeFunc(id, name)
	}
	return session.View{}, nil
}

func (m *mockFormService) Lookup(ctx context.Context, id, target string, key entity.LookupKey) (*service.LookupResult, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, id, target, key)
	}
	return &service.LookupResult{}, nil
}

func (m *mockFormService) FindEmployee(ctx context.Context, key entity.LookupKey) (*entity.Employee, error) {
	if m.findEmployeeFunc != nil {
		return m.findEmployeeFunc(ctx, key)
	}
	return nil, port.ErrEmployeeNotFound
}

func (m *mockFormService) Submit(ctx context.Context, id string, values map[string]any) (*pipeline.Outcome, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, id, values)
	}
	return &pipeline.Outcome{}, nil
}

func (m *mockFormService) SubmitOnce(ctx context.Context, formKey string, values map[string]any, files []entity.StagedAttachment) (*pipeline.Outcome, error) {
	if m.submitOnceFunc != nil {
		return m.submitOnceFunc(ctx, formKey, values, files)
	}
	return &pipeline.Outcome{}, nil
}

type mockRequestService struct {
	listFunc        func(ctx context.Context, filter port.RequestFilter, limit, offset int) (*service.RequestPage, error)
	getFunc         func(ctx context.Context, id int64) (*entity.Request, error)
	attachmentsFunc func(ctx context.Context, id int64) ([]entity.AttachmentInfo, error)
	readFunc        func(ctx context.Context, id int64, name string) (*entity.StoredFile, error)
	exportFunc      func(ctx context.Context, filter port.RequestFilter) ([]byte, error)
}

func (m *mockRequestService) List(ctx context.Context, filter port.RequestFilter, limit, offset int) (*service.RequestPage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, limit, offset)
	}
	return &service.RequestPage{}, nil
}

func (m *mockRequestService) Get(ctx context.Context, id int64) (*entity.Request, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, port.ErrRequestNotFound
}

func (m *mockRequestService) Attachments(ctx context.Context, id int64) ([]entity.AttachmentInfo, error) {
	if m.attachmentsFunc != nil {
		return m.attachmentsFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestService) ReadAttachment(ctx context.Context, id int64, name string) (*entity.StoredFile, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, id, name)
	}
	return nil, port.ErrFileNotFound
}

func (m *mockRequestService) Export(ctx context.Context, filter port.RequestFilter) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, filter)
	}
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

var (
	_ service.FormService    = (*mockFormService)(nil)
	_ service.RequestService = (*mockRequestService)(nil)
)
