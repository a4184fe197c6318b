package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:        dir,
		DatabasePath:   filepath.Join(dir, "meal-planner.db"),
		StoreBackend:   backend,
		LunchCapacity:  1,
		DinnerCapacity: 4,
		LLMProvider:    "gemini",
	}
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{config.StoreSQLite, config.StoreFile} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)

			env, err := Open(ctx, cfg, logger.Nop())
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !env.Generated {
				t.Error("expected a starter week on first run")
			}
			if n := env.App.Plan().Lunch.Count(); n != 7 {
				t.Errorf("expected 7 lunches, got %d", n)
			}
			if (env.Metrics != nil) != (backend == config.StoreSQLite) {
				t.Errorf("metrics store presence wrong for %s backend", backend)
			}
			want := env.App.Plan()
			if err := env.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			env, err = Open(ctx, cfg, logger.Nop())
			if err != nil {
				t.Fatalf("second Open failed: %v", err)
			}
			defer env.Close()
			if env.Generated {
				t.Error("expected the saved plan to be reused")
			}
			got := env.App.Plan()
			for _, day := range shared.Days {
				if len(got.Items(day, shared.Dinner)) != len(want.Items(day, shared.Dinner)) {
					t.Errorf("%s dinner differs after reopen", day)
				}
			}
		})
	}
}

func TestOpen_SeedCSV(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.SeedCSVPath = filepath.Join(cfg.DataDir, "seed.csv")
	csv := "meal,name,emoji,category\nlunch,Mee Pok,🍜,noodles\ndinner,Rice,🍚,rice\n"
	if err := os.WriteFile(cfg.SeedCSVPath, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer env.Close()

	lunch := env.App.Dishes(shared.Lunch)
	if len(lunch) != 1 || lunch[0].Name != "Mee Pok" {
		t.Errorf("expected the CSV lunch catalog, got %+v", lunch)
	}
}

func TestOpen_BadSeed(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	cfg.SeedCSVPath = filepath.Join(cfg.DataDir, "missing.csv")

	if _, err := Open(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatal("expected an error for a missing seed file")
	}
}
