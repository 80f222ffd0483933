package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Listener is a blocking event source such as the Lark WebSocket adapter
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
}

// ListenerWorker keeps a Listener connected, reconnecting after failures with a
// doubling delay capped at maxBackoff.
type ListenerWorker struct {
	name       string
	listener   Listener
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewListenerWorker wraps a listener as a Worker
func NewListenerWorker(name string, l Listener, logger *zap.Logger) *ListenerWorker {
	return &ListenerWorker{
		name:       name,
		listener:   l,
		minBackoff: time.Second,
		maxBackoff: time.Minute,
		logger:     logger,
	}
}

// Name implements Worker
func (w *ListenerWorker) Name() string { return w.name }

// Start implements Worker
func (w *ListenerWorker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		backoff := w.minBackoff
		for {
			err := w.listener.Start(runCtx)
			_ = w.listener.Stop()
			if runCtx.Err() != nil {
				return
			}
			w.logger.Error("Listener disconnected, retrying",
				zap.String("worker_name", w.name),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-runCtx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > w.maxBackoff {
				backoff = w.maxBackoff
			}
		}
	}()
	return nil
}

// Stop implements Worker
func (w *ListenerWorker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}
