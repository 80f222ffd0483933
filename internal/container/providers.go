package container

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/dispatcher"
	"github.com/garyjia/travel-support/internal/application/pipeline"
	"github.com/garyjia/travel-support/internal/application/port"
	"github.com/garyjia/travel-support/internal/application/refresh"
	"github.com/garyjia/travel-support/internal/application/service"
	"github.com/garyjia/travel-support/internal/application/session"
	"github.com/garyjia/travel-support/internal/domain/event"
	"github.com/garyjia/travel-support/internal/forms"
	"github.com/garyjia/travel-support/internal/infrastructure/export"
	infraLark "github.com/garyjia/travel-support/internal/infrastructure/external/lark"
	"github.com/garyjia/travel-support/internal/infrastructure/metrics"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-support/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-support/internal/infrastructure/storage"
	"github.com/garyjia/travel-support/internal/infrastructure/worker"
	"github.com/garyjia/travel-support/internal/interfaces/websocket"
	"github.com/garyjia/travel-support/pkg/database"
	"github.com/garyjia/travel-support/pkg/utils"
)

// refreshBuffer is the per-subscriber queue of the listing refresh hub
const refreshBuffer = 16

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Requests  *repository.RequestRepository
	Employees *repository.EmployeeRepository
}

// LarkBundle holds all Lark-related components. Fields are nil when Lark is unused.
type LarkBundle struct {
	Client    *infraLark.SDKClient
	Directory *infraLark.Directory
	Messenger *infraLark.Messenger
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Forms         service.FormService
	Requests      service.RequestService
	Receipts      *service.ReceiptService
	DirectorySync *service.DirectorySyncService
}

// ProvideDatabase opens the database and applies pending migrations. The embedded
// migrations run unless cfg.MigrationsDir points somewhere else.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.Run()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideStorage creates the attachment file storage.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return storage.NewLocalFileStorage(cfg.AttachmentDir, logger), nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, tx port.TransactionManager, files port.FileStorage, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if files == nil {
		return nil, fmt.Errorf("file storage is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests:  repository.NewRequestRepository(sqlDB, tx, files, logger),
		Employees: repository.NewEmployeeRepository(sqlDB, logger),
	}, nil
}

// ProvideLarkClients creates the Lark clients when any component needs them.
func ProvideLarkClients(cfg *Config, logger *zap.Logger) (*LarkBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if !cfg.usesLark() {
		return &LarkBundle{}, nil
	}

	sdkClient := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		Attrs:     larkAttrs(&cfg.Lark),
	}, logger)

	return &LarkBundle{
		Client:    sdkClient,
		Directory: infraLark.NewDirectory(sdkClient, logger),
		Messenger: infraLark.NewMessenger(sdkClient, logger),
	}, nil
}

func larkAttrs(cfg *LarkConfig) infraLark.AttrMapping {
	return infraLark.AttrMapping{
		CompanyCode:   cfg.CompanyCodeAttr,
		CompanyName:   cfg.CompanyNameAttr,
		CostCenter:    cfg.CostCenterAttr,
		ApprovalLevel: cfg.ApprovalLevelAttr,
	}
}

// ProvideDirectory selects the employee directory.
func ProvideDirectory(provider string, repos *RepositoryBundle, lark *LarkBundle) (port.EmployeeDirectory, error) {
	switch provider {
	case DirectorySQLite:
		return repos.Employees, nil
	case DirectoryLark:
		if lark == nil || lark.Directory == nil {
			return nil, fmt.Errorf("lark directory is not configured")
		}
		return lark.Directory, nil
	default:
		return nil, fmt.Errorf("unknown directory provider %q", provider)
	}
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.New(dispatcher.WithLogger(utils.NewLoggerAdapter(logger))), nil
}

// ServiceDeps holds the dependencies of the application services.
type ServiceDeps struct {
	Config     *Config
	Repos      *RepositoryBundle
	Directory  port.EmployeeDirectory
	Lark       *LarkBundle
	Dispatcher dispatcher.Dispatcher
	Sessions   *session.Store
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("employee directory is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewLoggerAdapter(deps.Logger)
	catalogue := forms.NewCatalogue(time.Now)

	var pipelineOpts []pipeline.Option
	var formOpts []service.FormServiceOption
	if deps.Metrics != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithObserver(deps.Metrics))
		formOpts = append(formOpts, service.WithLookupObserver(deps.Metrics))
	}

	bundle := &ServiceBundle{
		Forms: service.NewFormService(
			catalogue,
			deps.Sessions,
			deps.Directory,
			pipeline.New(deps.Repos.Requests, serviceLogger, pipelineOpts...),
			deps.Dispatcher,
			sessionLimits(&deps.Config.Sessions),
			serviceLogger,
			formOpts...,
		),
		Requests: service.NewRequestService(
			deps.Repos.Requests,
			deps.Repos.Requests,
			export.NewXLSXExporter(deps.Logger),
			catalogue,
			serviceLogger,
		),
	}

	if deps.Lark != nil && deps.Lark.Messenger != nil && deps.Config.Lark.SendReceipts {
		bundle.Receipts = service.NewReceiptService(deps.Lark.Messenger, serviceLogger)
	}
	if deps.Config.Lark.SyncContacts {
		bundle.DirectorySync = service.NewDirectorySyncService(deps.Repos.Employees, serviceLogger)
	}

	return bundle, nil
}

func sessionLimits(cfg *SessionConfig) session.Limits {
	return session.Limits{
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
		MaxAttachments:     cfg.MaxAttachments,
	}
}

// SubscribeHandlers registers the event handlers of the refresh hub and the services.
func SubscribeHandlers(d dispatcher.Dispatcher, hub *refresh.Hub, services *ServiceBundle) {
	d.Subscribe(event.TypeRequestRecorded, "refresh_hub", hub.HandleRequestRecorded)

	if services.Receipts != nil {
		d.Subscribe(event.TypeRequestRecorded, "receipt_sender", services.Receipts.HandleRequestRecorded)
	}
	if services.DirectorySync != nil {
		d.Subscribe(event.TypeEmployeeChanged, "directory_sync", services.DirectorySync.HandleEmployeeChanged)
		d.Subscribe(event.TypeEmployeeRemoved, "directory_sync", services.DirectorySync.HandleEmployeeRemoved)
	}
}

// WorkerDeps holds the dependencies of the background workers.
type WorkerDeps struct {
	Config     *Config
	Sessions   *session.Store
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// ProvideWorkers creates the worker manager with all background workers registered.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	var observer worker.SweepObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	manager.Register(worker.NewSessionSweepWorker(
		deps.Sessions,
		deps.Config.Sessions.TTL,
		deps.Config.Sessions.SweepInterval,
		observer,
		deps.Logger,
	))

	if deps.Config.Lark.SyncContacts {
		adapter := websocket.NewLarkAdapter(websocket.LarkAdapterConfig{
			AppID:     deps.Config.Lark.AppID,
			AppSecret: deps.Config.Lark.AppSecret,
			Attrs:     larkAttrs(&deps.Config.Lark),
		}, deps.Dispatcher, deps.Logger)
		manager.Register(worker.NewListenerWorker("lark-contact-events", adapter, deps.Logger))
	}

	return manager, nil
}
