package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/config"
	"github.com/garyjia/travel-support/internal/container"
	"github.com/garyjia/travel-support/pkg/utils"
)

// store is the database side of the container, opened without starting workers
type store struct {
	db     *container.DatabaseBundle
	repos  *container.RepositoryBundle
	logger *zap.Logger
}

func openStore(configPath string) (*store, error) {
	cfg, err := config.Load(configPathOrEmpty(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cc := cfg.ToContainerConfig()
	db, err := container.ProvideDatabase(&cc.Database, logger)
	if err != nil {
		return nil, err
	}
	files, err := container.ProvideStorage(&cc.Storage, logger)
	if err != nil {
		_ = db.DB.Close()
		return nil, err
	}
	repos, err := container.ProvideRepositories(db.DB.DB, db.TransactionMgr, files, logger)
	if err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	return &store{db: db, repos: repos, logger: logger}, nil
}

func (s *store) Close() error {
	_ = s.logger.Sync()
	return s.db.DB.Close()
}
