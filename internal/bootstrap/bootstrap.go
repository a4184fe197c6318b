// Package bootstrap wires configuration into a ready App for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/clipper"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/database"
	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/metrics"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

// Env is everything a binary needs after startup.
type Env struct {
	Config  *config.Config
	Logger  *logger.Logger
	KV      storage.KeyValueStore
	App     *app.App
	Metrics *metrics.Store // nil with the file store backend

	// Generated reports whether Open filled an empty plan.
	Generated bool

	db     *database.DB
	closer llm.Closer
}

// Open builds the store, catalog and optional integrations, then loads
// persisted state.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Env, error) {
	env := &Env{Config: cfg, Logger: log}

	switch cfg.StoreBackend {
	case config.StoreFile:
		fs, err := storage.NewFileStore(cfg.StorePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		env.KV = fs
	default:
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		env.db = db
		env.KV = storage.NewSQLiteStore(db.SQL)
		env.Metrics = metrics.NewStore(db.SQL)
	}

	seed := catalog.DefaultSeed()
	if cfg.SeedCSVPath != "" {
		s, err := catalog.LoadSeedCSV(cfg.SeedCSVPath)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("failed to load seed: %w", err)
		}
		seed = s
	}

	opts := app.Options{
		KV:   env.KV,
		Seed: seed,
		Capacities: planner.Capacities{
			shared.Lunch:  cfg.LunchCapacity,
			shared.Dinner: cfg.DinnerCapacity,
		},
		Logger:  log,
		Clipper: clipper.NewClipper(),
	}
	if env.Metrics != nil {
		opts.Metrics = env.Metrics
	}

	gen, err := llm.New(ctx, cfg)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Info("Recipe drafting disabled", "reason", err)
	case err != nil:
		env.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	default:
		opts.Drafter = recipe.NewDrafter(gen)
		if c, ok := gen.(llm.Closer); ok {
			env.closer = c
		}
	}

	env.App = app.New(opts)
	generated, err := env.App.Bootstrap(ctx)
	if err != nil && !errors.Is(err, storage.ErrPersist) {
		env.Close()
		return nil, err
	}
	if err != nil {
		log.Warn("Starter week could not be saved", "error", err)
	}
	env.Generated = generated
	return env, nil
}

// Close releases the database and LLM client.
func (e *Env) Close() error {
	var errs []error
	if e.closer != nil {
		errs = append(errs, e.closer.Close())
	}
	if e.db != nil {
		errs = append(errs, e.db.Close())
	}
	return errors.Join(errs...)
}
