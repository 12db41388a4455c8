// Package app assembles the database, sources, readiness service and
// snapshot archive from a loaded configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"readiness-backend/internal/config"
	"readiness-backend/internal/database"
	"readiness-backend/internal/readiness"
	"readiness-backend/internal/storage"
)

// App holds the long-lived dependencies shared by the API and the CLI.
type App struct {
	DB       database.Service
	Store    *database.Store
	Service  *readiness.Service
	Files    storage.Store
	Archiver *readiness.Archiver
}

// New connects to Postgres, opens the snapshot store and builds the service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.New(ctx, &cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL", zap.Int32("max_conns", cfg.DB.MaxConns))

	files, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := database.NewStore(db.GetPool())
	svc := readiness.NewService(store.Sources(), cfg.Policy.Readiness(), logger.Named("readiness"))

	return &App{
		DB:       db,
		Store:    store,
		Service:  svc,
		Files:    files,
		Archiver: readiness.NewArchiver(svc, files, logger.Named("archive")),
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.DB.Close()
}

// OpenStorage returns the snapshot store selected by cfg.Driver.
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "r2":
		s, err := storage.NewR2Store(ctx, storage.R2Config{
			AccountID: cfg.R2AccountID,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init r2 storage: %w", err)
		}
		return s, nil
	case "local", "":
		s, err := storage.NewLocalStore(cfg.Dir, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
