// Package pipeline runs one submission attempt of a form: validate, create the record,
// upload staged files, and report a terminal outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/domain/entity"
	"github.com/garyjia/travel-support/internal/domain/form"
	"github.com/garyjia/travel-support/internal/domain/workflow"
)

var (
	// ErrCreateFailed wraps any rejection from the record store on create
	ErrCreateFailed = errors.New("create record failed")

	// ErrInvalidSubmission is returned for a submission without a schema
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Logger defines logging interface
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Observer receives one call per finished attempt
type Observer interface {
	ObserveSubmission(formKey string, state workflow.State, elapsed time.Duration)
}

// Submission is the input of one attempt
type Submission struct {
	Schema      *form.Schema
	Values      map[string]any
	Attachments []entity.StagedAttachment

	// OnSucceeded runs once the attempt reaches SUCCEEDED, never otherwise
	OnSucceeded func(ctx context.Context, id int64)
}

// Outcome is the terminal result of an attempt
type Outcome struct {
	State        workflow.State        `json:"state"`
	RequestID    int64                 `json:"request_id,omitempty"`
	Record       form.Record           `json:"-"`
	FieldErrors  form.FieldErrors      `json:"field_errors,omitempty"`
	Notification entity.Notification   `json:"notification"`
	Trail        []workflow.Transition `json:"trail"`

	// Failure holds the create error for logging; it is never shown to the user
	Failure error `json:"-"`
}

// Succeeded reports whether the record was created
func (o *Outcome) Succeeded() bool {
	return o.State == workflow.StateSucceeded
}

// Pipeline drives submissions through the workflow state machine
type Pipeline struct {
	store    port.RecordStore
	logger   Logger
	observer Observer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithObserver reports finished attempts to o
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New creates a pipeline backed by the given record store
func New(store port.RecordStore, logger Logger, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one attempt. Validation and record-store failures are reported in the
// Outcome; the returned error is reserved for misuse and broken transitions.
//
// The record-store calls run on a context detached from ctx's cancellation so that an
// attempt, once started, always reaches a terminal state.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.Schema == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrInvalidSubmission)
	}

	started := time.Now()
	callCtx := context.WithoutCancel(ctx)
	hasAttachments := len(sub.Attachments) > 0 && sub.Schema.AllowAttachments
	machine := workflow.NewSubmissionBuilder(func(context.Context) bool { return hasAttachments }).
		Build(workflow.StateIdle)

	outcome, err := p.run(callCtx, machine, sub, hasAttachments)
	if err != nil {
		p.logger.Error("Submission pipeline broke", "form", sub.Schema.Key, "state", machine.State(), "error", err)
		return nil, err
	}
	outcome.State = machine.State()
	outcome.Trail = machine.History()

	if p.observer != nil {
		p.observer.ObserveSubmission(sub.Schema.Key, outcome.State, time.Since(started))
	}

	if outcome.Succeeded() && sub.OnSucceeded != nil {
		sub.OnSucceeded(callCtx, outcome.RequestID)
	}
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, machine workflow.StateMachine, sub Submission, hasAttachments bool) (*Outcome, error) {
	key := sub.Schema.Key

	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, err
	}

	record, err := sub.Schema.Validate(sub.Values)
	if err != nil {
		errs, ok := form.AsFieldErrors(err)
		if !ok {
			return nil, err
		}
		if err := machine.Fire(ctx, workflow.TriggerRejectInput); err != nil {
			return nil, err
		}
		p.logger.Info("Submission rejected by validation", "form", key, "errors", len(errs))
		return &Outcome{FieldErrors: errs, Notification: entity.InvalidInputNotification()}, nil
	}
	if err := machine.Fire(ctx, workflow.TriggerAcceptInput); err != nil {
		return nil, err
	}

	id, err := p.store.Create(ctx, key, record)
	if err != nil {
		if fireErr := machine.Fire(ctx, workflow.TriggerCreateFailed); fireErr != nil {
			return nil, fireErr
		}
		p.logger.Error("Failed to create request", "form", key, "error", err)
		return &Outcome{
			Record:       record,
			Notification: entity.CreateFailedNotification(),
			Failure:      fmt.Errorf("%w: %v", ErrCreateFailed, err),
		}, nil
	}
	if err := machine.Fire(ctx, workflow.TriggerCreateSucceeded); err != nil {
		return nil, err
	}
	p.logger.Info("Request created", "form", key, "request_id", id)

	if hasAttachments {
		if err := p.store.AddAttachments(ctx, id, sub.Attachments); err != nil {
			p.absorbAttachmentFailure(key, id, sub.Attachments, err)
		}
		if err := machine.Fire(ctx, workflow.TriggerAttachmentsSettled); err != nil {
			return nil, err
		}
	}

	return &Outcome{
		RequestID:    id,
		Record:       record,
		Notification: entity.RecordedNotification(id),
	}, nil
}

// absorbAttachmentFailure keeps an upload failure out of the outcome. The record
// already exists, so the attempt still succeeds; the failure is only logged.
func (p *Pipeline) absorbAttachmentFailure(formKey string, id int64, files []entity.StagedAttachment, err error) {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	p.logger.Error("Failed to upload attachments, request kept without them",
		"form", formKey,
		"request_id", id,
		"files", names,
		"error", err,
	)
}
