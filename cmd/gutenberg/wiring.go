package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/config"
	"github.com/jeancds29/gutenberg-back/internal/gutenberg"
	"github.com/jeancds29/gutenberg-back/internal/library"
	"github.com/jeancds29/gutenberg-back/internal/llm"
	"github.com/jeancds29/gutenberg-back/internal/storage/memory"
	"github.com/jeancds29/gutenberg-back/internal/storage/postgres"
)

var errNeedsPostgres = errors.New("this command needs database.driver=postgres")

func postgresConfig(cfg config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		URL:               cfg.URL,
		SSLEnabled:        cfg.SSLEnabled,
		SSLMode:           cfg.SSLMode,
		ConnectTimeout:    cfg.ConnectTimeout,
		MaxConns:          int32(cfg.MaxConns), //nolint:gosec // validated small
		MinConns:          int32(cfg.MinConns), //nolint:gosec // validated small
		MaxConnLifetime:   cfg.MaxConnLifetime,
		HealthCheckPeriod: cfg.HealthCheckPeriod,
	}
}

func archiveConfig(cfg config.ArchiveConfig) gutenberg.Config {
	return gutenberg.Config{
		BaseURL:         cfg.BaseURL,
		UserAgent:       cfg.UserAgent,
		Timeout:         cfg.Timeout,
		Delay:           cfg.Delay,
		MaxContentBytes: cfg.MaxContentBytes,
		TruncateChars:   cfg.TruncateChars,
	}
}

func llmConfig(cfg config.LLMConfig) llm.Config {
	return llm.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

// openStore returns the configured store, applying migrations first when
// migrate is set and the driver is postgres.
func openStore(ctx context.Context, a *app, migrate bool) (library.Store, error) {
	if a.cfg.Database.Driver == config.DriverMemory {
		a.logger.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(nil), nil
	}
	pgCfg := postgresConfig(a.cfg.Database)
	if migrate {
		if err := runMigrations(ctx, pgCfg, postgres.MigrateUp, a.logger); err != nil {
			return nil, err
		}
	}
	store, err := postgres.Open(ctx, pgCfg, a.logger.Named("postgres"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func runMigrations(ctx context.Context, cfg postgres.Config, direction string, logger *zap.Logger) error {
	db, err := postgres.OpenDB(cfg)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("close migration connection", zap.Error(cerr))
		}
	}()
	if err := postgres.Migrate(ctx, db, direction, logger.Named("migrate")); err != nil {
		logger.Error("migration failed", zap.String("hint", postgres.Hint(err)), zap.Error(err))
		return err
	}
	return nil
}

// newLibrary builds the service. analyzer may be nil for commands that never
// analyze.
func newLibrary(a *app, store library.Store, analyzer library.Analyzer) (*library.Service, error) {
	archive, err := gutenberg.New(archiveConfig(a.cfg.Archive), a.logger)
	if err != nil {
		return nil, fmt.Errorf("archive client: %w", err)
	}
	return library.NewService(store, store, archive, analyzer, a.logger.Named("library")), nil
}
