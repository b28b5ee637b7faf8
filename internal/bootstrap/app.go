// Package bootstrap assembles the application from configuration: database
// or in-memory repositories, services, handlers and the router.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"isotope-backend/internal/datasets"
	"isotope-backend/internal/runs"
	"isotope-backend/internal/shared/config"
	"isotope-backend/internal/shared/server"
	"isotope-backend/internal/shared/storage/db"
	"isotope-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config      config.Config
	Router      *gin.Engine
	DB          *sql.DB
	DatasetRepo datasets.Repo
	RunRepo     runs.Repo
	RunService  *runs.Service
	RunHandler  *runs.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}

	if sqlDB != nil {
		app.DatasetRepo = &datasets.PGRepo{DB: sqlDB}
		app.RunRepo = &runs.PGRepo{DB: sqlDB}
	} else {
		memDatasets := datasets.NewMemoryRepo()
		// Mirror the seed migration so the DB-less dev mode resolves the
		// same reference data.
		memDatasets.Seed(datasets.ReferenceDataset{
			Name:       "modern_png",
			Version:    "2026-01",
			StorageURI: "/reference_datasets/modern_png/2026-01/dataset.csv",
			IsActive:   true,
		})
		app.DatasetRepo = memDatasets
		app.RunRepo = runs.NewMemoryRepo(memDatasets)
	}

	app.RunService = &runs.Service{
		Repo:        app.RunRepo,
		Datasets:    app.DatasetRepo,
		MaxTake:     cfg.ListMaxTake,
		DefaultTake: cfg.ListDefaultTake,
	}
	app.RunHandler = runs.NewHandler(app.RunService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		RunHandler: app.RunHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db", map[string]any{"msg": "DATABASE_URL empty; using in-memory repositories"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db", map[string]any{"msg": "database connect failed; using in-memory repositories", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
