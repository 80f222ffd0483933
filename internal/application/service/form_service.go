package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/travel-support/internal/application/dispatcher"
	"github.com/garyjia/travel-support/internal/application/pipeline"
	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/event"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/internal/domain/workflow"
)

var (
	// ErrLookupFailed wraps directory failures other than NotFound
	ErrLookupFailed = errors.New("employee lookup failed")

	// ErrInvalidLookup is returned for a lookup key the directory cannot take
	ErrInvalidLookup = errors.New("invalid lookup")
)

// FormCatalogue provides the form schemas
type FormCatalogue interface {
	Get(key string) (*form.Schema, error)
	List() []*form.Schema
}

// Submitter runs one submission attempt
type Submitter interface {
	Run(ctx context.Context, sub pipeline.Submission) (*pipeline.Outcome, error)
}

// LookupObserver receives one call per lookup with its result: found, not_found, stale or error
type LookupObserver interface {
	ObserveLookup(target, result string)
}

// LookupResult is what a lookup did to the session draft
type LookupResult struct {
	Found    bool             `json:"found"`
	Applied  bool             `json:"applied"`
	Employee *entity.Employee `json:"employee,omitempty"`
	Fields   map[string]any   `json:"fields,omitempty"`
}

// FormService serves the form lifecycle: open, fill, look up, stage, submit
type FormService interface {
	Forms() []*form.Schema
	Schema(key string) (*form.Schema, error)

	OpenSession(formKey string) (session.View, error)
	Session(id string) (session.View, error)
	ResetSession(id string) (session.View, error)
	CloseSession(id string) error
	UpdateValues(id string, values map[string]any) (session.View, error)
	StageAttachments(id string, files []entity.StagedAttachment) (session.View, error)
	RemoveAttachment(id, name string) (session.View, error)

	Lookup(ctx context.Context, id, target string, key entity.LookupKey) (*LookupResult, error)
	FindEmployee(ctx context.Context, key entity.LookupKey) (*entity.Employee, error)

	Submit(ctx context.Context, id string, values map[string]any) (*pipeline.Outcome, error)
	SubmitOnce(ctx context.Context, formKey string, values map[string]any, files []entity.StagedAttachment) (*pipeline.Outcome, error)
}

type formServiceImpl struct {
	catalogue  FormCatalogue
	sessions   *session.Store
	directory  port.EmployeeDirectory
	submitter  Submitter
	dispatcher dispatcher.Dispatcher
	limits     session.Limits
	observer   LookupObserver
	logger     Logger
}

// FormServiceOption configures the form service
type FormServiceOption func(*formServiceImpl)

// WithLookupObserver reports lookup results to o
func WithLookupObserver(o LookupObserver) FormServiceOption {
	return func(s *formServiceImpl) { s.observer = o }
}

// NewFormService creates a new FormService
func NewFormService(
	catalogue FormCatalogue,
	sessions *session.Store,
	directory port.EmployeeDirectory,
	submitter Submitter,
	d dispatcher.Dispatcher,
	limits session.Limits,
	logger Logger,
	opts ...FormServiceOption,
) FormService {
	s := &formServiceImpl{
		catalogue:  catalogue,
		sessions:   sessions,
		directory:  directory,
		submitter:  submitter,
		dispatcher: d,
		limits:     limits,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *formServiceImpl) Forms() []*form.Schema {
	return s.catalogue.List()
}

func (s *formServiceImpl) Schema(key string) (*form.Schema, error) {
	return s.catalogue.Get(key)
}

func (s *formServiceImpl) OpenSession(formKey string) (session.View, error) {
	schema, err := s.catalogue.Get(formKey)
	if err != nil {
		return session.View{}, err
	}
	sess := s.sessions.Open(schema)
	s.logger.Info("Form session opened", "form", formKey, "session_id", sess.ID())
	return sess.View(), nil
}

func (s *formServiceImpl) Session(id string) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	return sess.View(), nil
}

func (s *formServiceImpl) ResetSession(id string) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	sess.Reset()
	return sess.View(), nil
}

func (s *formServiceImpl) CloseSession(id string) error {
	if !s.sessions.Delete(id) {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *formServiceImpl) UpdateValues(id string, values map[string]any) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	sess.SetValues(values)
	return sess.View(), nil
}

// StageAttachments stages every file or, on the first invalid one, none of them
func (s *formServiceImpl) StageAttachments(id string, files []entity.StagedAttachment) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	if err := sess.StageAll(files); err != nil {
		return session.View{}, err
	}
	return sess.View(), nil
}

func (s *formServiceImpl) RemoveAttachment(id, name string) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	sess.Unstage(name)
	return sess.View(), nil
}

// Lookup resolves an employee and fills the target's fields in the session draft.
// Only the most recent lookup of a target may write; earlier ones resolving later are dropped.
func (s *formServiceImpl) Lookup(ctx context.Context, id, target string, key entity.LookupKey) (*LookupResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLookup, err)
	}

	ticket, err := sess.BeginLookup(target)
	if err != nil {
		return nil, err
	}

	emp, err := s.FindEmployee(ctx, key)
	if err != nil && !errors.Is(err, port.ErrEmployeeNotFound) {
		s.observe(target, "error")
		return nil, err
	}

	fields, applied := sess.CompleteLookup(ticket, emp)
	switch {
	case !applied:
		s.observe(target, "stale")
		s.logger.Info("Dropped superseded lookup", "session_id", id, "target", target, "generation", ticket.Generation)
	case emp == nil:
		s.observe(target, "not_found")
	default:
		s.observe(target, "found")
	}

	return &LookupResult{Found: emp != nil, Applied: applied, Employee: emp, Fields: fields}, nil
}

// FindEmployee queries the directory; it never caches
func (s *formServiceImpl) FindEmployee(ctx context.Context, key entity.LookupKey) (*entity.Employee, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLookup, err)
	}

	emp, err := s.directory.Lookup(ctx, key)
	if errors.Is(err, port.ErrEmployeeNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("Employee directory lookup failed", "field", key.Field, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	return emp, nil
}

// Submit runs the pipeline on the session's draft with values layered on top
func (s *formServiceImpl) Submit(ctx context.Context, id string, values map[string]any) (*pipeline.Outcome, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	merged, files, err := sess.BeginSubmit(values)
	if err != nil {
		return nil, err
	}

	outcome, err := s.run(ctx, sess.Schema(), merged, files)
	if err != nil {
		sess.FinishSubmit(true)
		return nil, err
	}
	sess.FinishSubmit(inputRejected(outcome))
	return outcome, nil
}

// SubmitOnce runs the pipeline for a client that keeps its own draft
func (s *formServiceImpl) SubmitOnce(ctx context.Context, formKey string, values map[string]any, files []entity.StagedAttachment) (*pipeline.Outcome, error) {
	schema, err := s.catalogue.Get(formKey)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 && !schema.AllowAttachments {
		return nil, session.ErrAttachmentsNotAllowed
	}
	files, err = session.PrepareAttachments(files, s.limits)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, schema, values, files)
}

func (s *formServiceImpl) run(ctx context.Context, schema *form.Schema, values map[string]any, files []entity.StagedAttachment) (*pipeline.Outcome, error) {
	return s.submitter.Run(ctx, pipeline.Submission{
		Schema:      schema,
		Values:      values,
		Attachments: files,
		OnSucceeded: s.announce(schema, values),
	})
}

// announce returns the success callback that tells the listing and the submitter
func (s *formServiceImpl) announce(schema *form.Schema, values map[string]any) func(ctx context.Context, id int64) {
	return func(ctx context.Context, id int64) {
		payload := map[string]interface{}{event.KeyFormTitle: schema.Title}
		if schema.ReceiptField != "" {
			if email, ok := values[schema.ReceiptField].(string); ok && strings.TrimSpace(email) != "" {
				payload[event.KeyReceiptEmail] = strings.ToLower(strings.TrimSpace(email))
			}
		}
		s.dispatcher.DispatchAsync(ctx, event.NewRequestRecorded(id, schema.Key, payload))
	}
}

func (s *formServiceImpl) observe(target, result string) {
	if s.observer != nil {
		s.observer.ObserveLookup(target, result)
	}
}

func inputRejected(o *pipeline.Outcome) bool {
	return o.State == workflow.StateFailed && len(o.FieldErrors) > 0
}
