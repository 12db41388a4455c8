// Command readiness-cli evaluates shift readiness from the terminal and
// prints the same JSON payloads the API serves.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"readiness-backend/internal/app"
	"readiness-backend/internal/config"
	"readiness-backend/internal/logging"
)

func main() {
	var (
		a      *app.App
		logger *zap.Logger
	)

	open := func(ctx context.Context) (*deps, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		// Logs go to stderr; stdout carries only the JSON payload.
		logger, err = logging.InitLogger(cfg.Environment, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a, err = app.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &deps{eval: a.Service, archiver: a.Archiver}, nil
	}

	cleanup := func() {
		if a != nil {
			a.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	}

	os.Exit(runCLI(newRootCmd(os.Stdout, open), cleanup))
}
