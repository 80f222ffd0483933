package container

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/dispatcher"
	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/refresh"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/infrastructure/metrics"
	"github.com/garyjia/travel-support/internal/infrastructure/worker"
)

// Container manages all application dependencies and lifecycle.
// Initialization is ordered and teardown runs in reverse order.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *DatabaseBundle
	fileStorage  port.FileStorage
	repositories *RepositoryBundle

	// Infrastructure - External
	lark      *LarkBundle
	directory port.EmployeeDirectory

	// Application
	dispatcher dispatcher.Dispatcher
	sessions   *session.Store
	hub        *refresh.Hub
	metrics    *metrics.Metrics
	services   *ServiceBundle

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database, storage and repositories
// 2. External clients (Lark) and the employee directory
// 3. Dispatcher, sessions, refresh hub and metrics
// 4. Application services and event subscriptions
// 5. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	if err := c.initExternalClients(); err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("Employee directory initialized", zap.String("provider", c.config.Directory))

	if err := c.initApplication(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initWorkers(); err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized and started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Waits for in-flight async handlers such as receipts
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.db != nil {
		if err := c.db.DB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health probes each component; Overall is false when any probe fails.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{Overall: true, Components: make(map[string]ComponentHealth)}
	for _, p := range c.probes() {
		h := p.check()
		status.Components[p.name] = h
		status.Overall = status.Overall && h.Healthy
	}
	return status
}

type probe struct {
	name  string
	check func() ComponentHealth
}

var notInitialized = ComponentHealth{Healthy: false, Message: "not initialized"}

func (c *Container) probes() []probe {
	return []probe{
		{"database", func() ComponentHealth {
			if c.db == nil {
				return notInitialized
			}
			if err := c.db.DB.Ping(); err != nil {
				return ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			}
			return ComponentHealth{Healthy: true}
		}},
		{"directory", func() ComponentHealth {
			if c.directory == nil {
				return notInitialized
			}
			return ComponentHealth{Healthy: true, Message: c.config.Directory}
		}},
		{"sessions", func() ComponentHealth {
			if c.sessions == nil {
				return notInitialized
			}
			return ComponentHealth{Healthy: true, Message: fmt.Sprintf("open: %d", c.sessions.Len())}
		}},
		{"workers", func() ComponentHealth {
			if c.workers == nil {
				return notInitialized
			}
			statuses := c.workers.Statuses()
			names := make([]string, 0, len(statuses))
			for name := range statuses {
				names = append(names, name)
			}
			sort.Strings(names)
			parts := make([]string, 0, len(names))
			for _, name := range names {
				parts = append(parts, name+"="+statuses[name])
			}
			return ComponentHealth{Healthy: c.workers.Healthy(), Message: strings.Join(parts, ", ")}
		}},
		{"dispatcher", func() ComponentHealth {
			if c.dispatcher == nil {
				return notInitialized
			}
			return ComponentHealth{Healthy: true}
		}},
	}
}

// initDatabase opens the database, the attachment storage and the repositories.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = dbBundle

	files, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		_ = dbBundle.DB.Close()
		return err
	}
	c.fileStorage = files

	repos, err := ProvideRepositories(dbBundle.DB.DB, dbBundle.TransactionMgr, files, c.logger)
	if err != nil {
		_ = dbBundle.DB.Close()
		return err
	}
	c.repositories = repos
	return nil
}

// initExternalClients creates the Lark clients and selects the directory.
func (c *Container) initExternalClients() error {
	larkBundle, err := ProvideLarkClients(c.config, c.logger)
	if err != nil {
		return err
	}
	c.lark = larkBundle

	directory, err := ProvideDirectory(c.config.Directory, c.repositories, larkBundle)
	if err != nil {
		return err
	}
	c.directory = directory
	return nil
}

// initApplication creates the dispatcher, the session store and the services, then
// subscribes the event handlers.
func (c *Container) initApplication() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	c.sessions = session.NewStore(sessionLimits(&c.config.Sessions))
	c.hub = refresh.NewHub(refreshBuffer)
	c.metrics = metrics.New()

	services, err := ProvideServices(&ServiceDeps{
		Config:     c.config,
		Repos:      c.repositories,
		Directory:  c.directory,
		Lark:       c.lark,
		Dispatcher: c.dispatcher,
		Sessions:   c.sessions,
		Metrics:    c.metrics,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	SubscribeHandlers(c.dispatcher, c.hub, services)
	return nil
}

// initWorkers creates and starts all background workers.
func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Config:     c.config,
		Sessions:   c.sessions,
		Dispatcher: c.dispatcher,
		Metrics:    c.metrics,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	return nil
}

// Getters for accessing container components

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Directory returns the selected employee directory.
func (c *Container) Directory() port.EmployeeDirectory {
	return c.directory
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Hub returns the listing refresh hub.
func (c *Container) Hub() *refresh.Hub {
	return c.hub
}

// Metrics returns the prometheus collectors.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}
