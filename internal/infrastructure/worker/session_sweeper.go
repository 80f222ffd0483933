package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper is the part of the session store the sweeper needs
type SessionSweeper interface {
	Sweep(ttl time.Duration) int
	Len() int
}

// SweepObserver is told how many sessions each pass released
type SweepObserver interface {
	ObserveSweep(released, remaining int)
}

// SessionSweepWorker releases form sessions left idle longer than the TTL, together
// with their staged attachments.
type SessionSweepWorker struct {
	store    SessionSweeper
	ttl      time.Duration
	interval time.Duration
	observer SweepObserver
	logger   *zap.Logger

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewSessionSweepWorker creates a sweeper running every interval
func NewSessionSweepWorker(store SessionSweeper, ttl, interval time.Duration, observer SweepObserver, logger *zap.Logger) *SessionSweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweepWorker{
		store:    store,
		ttl:      ttl,
		interval: interval,
		observer: observer,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Name implements Worker
func (w *SessionSweepWorker) Name() string { return "session-sweeper" }

// Start implements Worker; the loop runs until ctx is done or Stop is called
func (w *SessionSweepWorker) Start(ctx context.Context) error {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.SweepOnce()
			}
		}
	}()
	return nil
}

// SweepOnce runs a single pass
func (w *SessionSweepWorker) SweepOnce() int {
	released := w.store.Sweep(w.ttl)
	remaining := w.store.Len()
	if w.observer != nil {
		w.observer.ObserveSweep(released, remaining)
	}
	if released > 0 {
		w.logger.Info("Idle form sessions released",
			zap.Int("released", released),
			zap.Int("remaining", remaining))
	}
	return released
}

// Stop implements Worker
func (w *SessionSweepWorker) Stop() error {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
	return nil
}
