package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background loop owned by the manager
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// Worker states reported by Statuses
const (
	StatusRegistered = "registered"
	StatusRunning    = "running"
	StatusFailed     = "failed"
	StatusStopped    = "stopped"
)

type managed struct {
	worker Worker
	status string
	err    error
}

// WorkerManager starts and stops the background workers of the form backend
type WorkerManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	workers []*managed
	running bool
	cancel  context.CancelFunc
}

// NewWorkerManager creates an empty manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a worker; it is started by the next StartAll
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, &managed{worker: w, status: StatusRegistered})
	m.logger.Info("Worker registered", zap.String("worker_name", w.Name()), zap.Int("total_workers", len(m.workers)))
}

// StartAll starts the registered workers in order. A worker that fails to start is
// marked failed and the rest still start.
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("workers already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	for _, mw := range m.workers {
		if err := mw.worker.Start(runCtx); err != nil {
			mw.status, mw.err = StatusFailed, err
			m.logger.Error("Failed to start worker", zap.String("worker_name", mw.worker.Name()), zap.Error(err))
			continue
		}
		mw.status, mw.err = StatusRunning, nil
		m.logger.Info("Worker started", zap.String("worker_name", mw.worker.Name()))
	}
	return nil
}

// StopAll cancels the workers' context and stops the running ones in reverse start order
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false
	if m.cancel != nil {
		m.cancel()
	}

	var errs []error
	for i := len(m.workers) - 1; i >= 0; i-- {
		mw := m.workers[i]
		if mw.status != StatusRunning {
			continue
		}
		mw.status = StatusStopped
		if err := mw.worker.Stop(); err != nil {
			mw.err = err
			m.logger.Error("Failed to stop worker", zap.String("worker_name", mw.worker.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", mw.worker.Name(), err))
			continue
		}
		m.logger.Info("Worker stopped", zap.String("worker_name", mw.worker.Name()))
	}
	return errors.Join(errs...)
}

// Statuses reports each worker's state by name, with the start error for failed ones
func (m *WorkerManager) Statuses() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.workers))
	for _, mw := range m.workers {
		status := mw.status
		if mw.status == StatusFailed && mw.err != nil {
			status = fmt.Sprintf("%s: %v", StatusFailed, mw.err)
		}
		out[mw.worker.Name()] = status
	}
	return out
}

// Healthy reports whether the manager runs and no worker failed to start
func (m *WorkerManager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return false
	}
	for _, mw := range m.workers {
		if mw.status == StatusFailed {
			return false
		}
	}
	return true
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning reports whether StartAll ran without a matching StopAll
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
