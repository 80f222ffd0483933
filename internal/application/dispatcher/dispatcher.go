// Package dispatcher fans domain events out to the handlers subscribed to their type.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/travel-support/internal/domain/event"
)

// ErrClosed is returned when dispatching after Close
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for an event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs every handler in registration order and returns the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs each handler on its own goroutine; errors are logged
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Handlers returns the names registered for an event type
	Handlers(eventType event.Type) []string

	// Close rejects new events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	// lifecycle orders DispatchAsync's wg.Add against Close's wg.Wait
	lifecycle sync.RWMutex
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// New creates an event dispatcher
func New(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.info("Handler subscribed", "event_type", eventType, "handler", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.handlers[eventType][:0:0]
	for _, h := range d.handlers[eventType] {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	d.handlers[eventType] = kept
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo{}, d.handlers[eventType]...)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, h := range d.snapshot(evt.Type) {
		if err := d.run(ctx, evt, h); err != nil {
			d.error("Event handler failed", "event_type", evt.Type, "event_id", evt.ID, "handler", h.Name, "error", err)
			return fmt.Errorf("handler %s failed: %w", h.Name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()

	if d.closed.Load() {
		d.error("Dropping event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}

	for _, h := range d.snapshot(evt.Type) {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()
			if err := d.run(ctx, evt, h); err != nil {
				d.error("Async event handler failed", "event_type", evt.Type, "event_id", evt.ID, "handler", h.Name, "error", err)
			}
		}(h)
	}
}

func (d *eventDispatcher) Handlers(eventType event.Type) []string {
	handlers := d.snapshot(eventType)
	names := make([]string, 0, len(handlers))
	for _, h := range handlers {
		names = append(names, h.Name)
	}
	return names
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	if d.closed.Load() {
		d.lifecycle.Unlock()
		return ErrClosed
	}
	d.closed.Store(true)
	d.lifecycle.Unlock()

	d.wg.Wait()
	d.info("Dispatcher closed")
	return nil
}

// run calls a handler and turns a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, h HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) error(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
