package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/config"
	"github.com/garyjia/travel-support/internal/container"
	httpapi "github.com/garyjia/travel-support/internal/interfaces/http"
	"github.com/garyjia/travel-support/internal/interfaces/websocket"
	"github.com/garyjia/travel-support/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// A missing .env is fine; the environment may already be set
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting travel support form backend",
		zap.String("version", httpapi.Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("directory", cfg.Directory.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	services := c.Services()
	server, err := httpapi.NewServer(
		httpapi.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			LookupRate:      cfg.RateLimit.Lookups,
			Uploads: httpapi.UploadLimits{
				MaxFileBytes: cfg.Sessions.MaxAttachmentBytes,
				MaxFiles:     cfg.Sessions.MaxAttachments,
			},
		},
		httpapi.Deps{
			Forms:    services.Forms,
			Requests: services.Requests,
			Refresh:  websocket.NewRefreshStream(c.Hub(), cfg.Server.AllowedOrigins, logger),
			Metrics:  c.Metrics(),
			Health: func() (bool, interface{}) {
				status := c.Health()
				return status.Overall, status.Components
			},
		},
		utils.NewLoggerAdapter(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// Start blocks until a signal cancels ctx, then drains in-flight requests
	return server.Start(ctx)
}
