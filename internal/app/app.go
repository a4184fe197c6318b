package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/clipper"
	"weekly-meal-planner/internal/export"
	"weekly-meal-planner/internal/history"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/share"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
	"weekly-meal-planner/internal/templates"
	"weekly-meal-planner/internal/version"
)

var (
	// ErrCapacityExceeded is returned when a day slot is already full.
	ErrCapacityExceeded = errors.New("day is full")
	// ErrNothingPlanned is returned when sharing an empty plan.
	ErrNothingPlanned = errors.New("no meals planned yet")
	// ErrNoTemplate is returned when applying a template before one is saved.
	ErrNoTemplate = errors.New("no saved template")
	// ErrUnavailable is returned when an optional integration is not configured.
	ErrUnavailable = errors.New("feature not configured")
)

// MetricsRecorder stores LLM usage.
type MetricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Options holds the application's dependencies. Only KV is required.
type Options struct {
	KV         storage.KeyValueStore
	Seed       catalog.Seed
	Capacities planner.Capacities
	Rand       *rand.Rand
	Logger     *logger.Logger
	Drafter    *recipe.Drafter
	Clipper    *clipper.Clipper
	Metrics    MetricsRecorder
	Now        func() time.Time
}

// App is the composition root. Every exported method runs as one
// serialised turn, so callers on different goroutines see consistent state.
type App struct {
	mu sync.Mutex

	kv        storage.KeyValueStore
	log       *logger.Logger
	caps      planner.Capacities
	catalog   *catalog.Catalog
	plan      *planner.Store
	suggester *planner.Suggester
	history   *history.Store
	templates *templates.Store
	recipes   *recipe.Book
	drafter   *recipe.Drafter
	clipper   *clipper.Clipper
	metrics   MetricsRecorder
	now       func() time.Time
}

// New wires the stores together. Call Bootstrap before use.
func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	seed := opts.Seed
	if seed == nil {
		seed = catalog.DefaultSeed()
	}
	caps := opts.Capacities
	if caps == nil {
		caps = planner.DefaultCapacities()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cat := catalog.New(opts.KV, seed, log)
	plan := planner.NewStore(opts.KV, log)

	return &App{
		kv:        opts.KV,
		log:       log.WithComponent("app"),
		caps:      caps,
		catalog:   cat,
		plan:      plan,
		suggester: planner.NewSuggester(plan, cat, opts.Rand, log),
		history:   history.NewStore(opts.KV, log),
		templates: templates.NewStore(opts.KV, log),
		recipes:   recipe.NewBook(opts.KV, log),
		drafter:   opts.Drafter,
		clipper:   opts.Clipper,
		metrics:   opts.Metrics,
		now:       now,
	}
}

// Catalog exposes the dish catalog, e.g. for a seed watcher.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Bootstrap loads persisted state. A first run with an empty plan gets a
// generated lunch and dinner week. It reports whether that happened.
func (a *App) Bootstrap(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.catalog.Load(ctx); err != nil {
		return false, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := a.plan.Load(ctx); err != nil {
		return false, fmt.Errorf("failed to load plan: %w", err)
	}
	if !a.plan.Snapshot().IsEmpty() {
		return false, nil
	}

	a.log.Info("Empty plan, generating a starter week")
	var persistErr error
	for _, meal := range shared.MealTypes {
		_, err := a.suggester.AutoSuggest(ctx, meal)
		if err := deferPersist(&persistErr, err); err != nil {
			return true, fmt.Errorf("failed to generate %s: %w", meal, err)
		}
	}
	return true, persistErr
}

// Capacities returns the per-day limit of each meal type.
func (a *App) Capacities() planner.Capacities {
	return a.caps
}

// Plan returns a copy of the current plan.
func (a *App) Plan() planner.PlanState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan.Snapshot()
}

// Dishes returns the selectable dishes of meal.
func (a *App) Dishes(meal shared.MealType) []shared.FoodItem {
	return a.catalog.Items(meal)
}

// AddDish places the catalog dish named name on a day, refusing once the
// day holds as many dishes as the meal type allows.
func (a *App) AddDish(ctx context.Context, day shared.Day, meal shared.MealType, name string) (shared.PlacedItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !day.Valid() || !meal.Valid() {
		return shared.PlacedItem{}, fmt.Errorf("%w: %s %s", planner.ErrNotFound, day, meal)
	}
	item, ok := a.catalog.Find(meal, name)
	if !ok {
		return shared.PlacedItem{}, fmt.Errorf("%w: %q in %s", catalog.ErrNotFound, name, meal)
	}
	if n := len(a.plan.Items(day, meal)); n >= a.caps.Of(meal) {
		return shared.PlacedItem{}, fmt.Errorf("%w: %s %s already has %d of %d", ErrCapacityExceeded, day, meal, n, a.caps.Of(meal))
	}

	placed := shared.Place(item)
	return placed, a.plan.AddItem(ctx, day, meal, placed)
}

// RemoveItem removes the dish at index from a day.
func (a *App) RemoveItem(ctx context.Context, day shared.Day, meal shared.MealType, index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan.RemoveItem(ctx, day, meal, index)
}

// ReorderItem moves a dish within a day.
func (a *App) ReorderItem(ctx context.Context, day shared.Day, meal shared.MealType, from, to int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan.ReorderItem(ctx, day, meal, from, to)
}

// ToggleLock flips the lock of a dish and returns the new state.
func (a *App) ToggleLock(ctx context.Context, day shared.Day, meal shared.MealType, index int) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan.ToggleLock(ctx, day, meal, index)
}

// ClearDay removes the unlocked dishes of a day.
func (a *App) ClearDay(ctx context.Context, day shared.Day, meal shared.MealType) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan.ClearDay(ctx, day, meal)
}

// ClearAll wipes every day of meal, locked dishes included, and returns how
// many dishes were removed.
func (a *App) ClearAll(ctx context.Context, meal shared.MealType) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := a.plan.Snapshot().Meal(meal).Count()
	if err := a.plan.ClearMealType(ctx, meal); err != nil {
		return 0, err
	}
	a.log.Info("Cleared meal type", "meal", meal, "dishes", count)
	return count, nil
}

// AutoSuggest replaces the week of meal with generated dishes.
func (a *App) AutoSuggest(ctx context.Context, meal shared.MealType) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.suggester.AutoSuggest(ctx, meal)
}

// AddCustomDish adds a user dish to the catalog of meal.
func (a *App) AddCustomDish(ctx context.Context, name, emoji string, meal shared.MealType, category shared.Category) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.AddCustomDish(ctx, name, emoji, meal, category)
}

// RemoveCustomDish deletes a user dish. Dishes already placed on the plan stay.
func (a *App) RemoveCustomDish(ctx context.Context, meal shared.MealType, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.RemoveCustomDish(ctx, meal, name)
}

// Summary returns the share text of the current week.
func (a *App) Summary() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return export.Summary(a.plan.Snapshot(), a.now())
}

// ExportXLSX writes the current week as a spreadsheet.
func (a *App) ExportXLSX(w io.Writer) error {
	a.mu.Lock()
	plan := a.plan.Snapshot()
	a.mu.Unlock()
	return export.WriteXLSX(w, plan, a.now())
}

// ShareResult is the outcome of sharing to one target.
type ShareResult struct {
	Target string
	Err    error
}

// Share sends the week summary to every target concurrently. A failing
// target does not stop the others; per-target outcomes are returned.
func (a *App) Share(ctx context.Context, targets ...share.Target) ([]ShareResult, error) {
	text, ok := a.Summary()
	if !ok {
		return nil, ErrNothingPlanned
	}

	results := make([]ShareResult, len(targets))
	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			err := target.Share(ctx, export.Title, text)
			if err != nil {
				a.log.Warn("Share failed", "target", target.Name(), "error", err)
			}
			results[i] = ShareResult{Target: target.Name(), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// SaveTemplate stores days as the saved template.
func (a *App) SaveTemplate(ctx context.Context, name string, days planner.DayMap) (*templates.Template, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.templates.Save(ctx, name, days)
}

// SaveTemplateFromPlan stores the current week of meal as the saved template.
func (a *App) SaveTemplateFromPlan(ctx context.Context, name string, meal shared.MealType) (*templates.Template, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !meal.Valid() {
		return nil, fmt.Errorf("%w: meal type %q", planner.ErrNotFound, meal)
	}
	return a.templates.Save(ctx, name, a.plan.Snapshot().Meal(meal))
}

// Template returns the saved template, or nil when there is none.
func (a *App) Template(ctx context.Context) (*templates.Template, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.templates.Load(ctx)
}

// DeleteTemplate removes the saved template.
func (a *App) DeleteTemplate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.templates.Delete(ctx)
}

// ApplyResult reports what ApplyTemplate loaded.
type ApplyResult struct {
	Name    string
	Loaded  int
	Skipped int
}

// ApplyTemplate loads the saved template onto meal. Each template day first
// loses its unlocked dishes, then receives template dishes until it is full.
// Dishes that do not fit are skipped.
func (a *App) ApplyTemplate(ctx context.Context, meal shared.MealType) (ApplyResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !meal.Valid() {
		return ApplyResult{}, fmt.Errorf("%w: meal type %q", planner.ErrNotFound, meal)
	}
	tmpl, err := a.templates.Load(ctx)
	if err != nil {
		return ApplyResult{}, err
	}
	if tmpl == nil {
		return ApplyResult{}, ErrNoTemplate
	}

	res := ApplyResult{Name: tmpl.Name}
	var persistErr error
	for _, day := range shared.Days {
		items, ok := tmpl.Data[day]
		if !ok {
			continue
		}
		if _, err := a.plan.ClearDay(ctx, day, meal); deferPersist(&persistErr, err) != nil {
			return res, err
		}

		for _, item := range items {
			if len(a.plan.Items(day, meal)) >= a.caps.Of(meal) {
				res.Skipped++
				continue
			}
			if item.Category == "" {
				item.Category = shared.CategoryOther
			}
			item.Locked = false
			if err := a.plan.AddItem(ctx, day, meal, item); deferPersist(&persistErr, err) != nil {
				return res, err
			}
			res.Loaded++
		}
	}

	a.log.Info("Template loaded", "name", tmpl.Name, "meal", meal, "loaded", res.Loaded, "skipped", res.Skipped)
	return res, persistErr
}

// SaveWeekLog saves the current plan to the log. Blank dates default to the
// week starting next Monday.
func (a *App) SaveWeekLog(ctx context.Context, startDate, endDate string) (history.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := history.NextMondayRange(a.now())
	if strings.TrimSpace(startDate) == "" {
		startDate = r.StartLabel
	}
	if strings.TrimSpace(endDate) == "" {
		endDate = r.EndLabel
	}
	return a.history.SaveSnapshot(ctx, startDate, endDate, a.plan.Snapshot())
}

// Logs lists saved weeks, newest first.
func (a *App) Logs(ctx context.Context) ([]history.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.List(ctx)
}

// LoadLog replaces the current plan with the logged week at index.
func (a *App) LoadLog(ctx context.Context, index int) (history.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, err := a.history.Get(ctx, index)
	if err != nil {
		return history.Entry{}, err
	}
	return entry, a.plan.SetPlan(ctx, entry.Plan)
}

// DeleteLog removes the logged week at index.
func (a *App) DeleteLog(ctx context.Context, index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.Delete(ctx, index)
}

// VersionNotice reports whether the "what's new" notice is due.
func (a *App) VersionNotice(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw, err := a.kv.Get(ctx, storage.KeyAppVersion)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		a.log.Warn("Failed to read last seen version", "error", err)
	}
	return version.NeedsNotice(lastSeenVersion(raw)), nil
}

// lastSeenVersion reads the stored version. Records written as a JSON string
// are accepted as well as the plain value.
func lastSeenVersion(raw []byte) string {
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(string(raw))
}

// AcknowledgeVersion records the current version as seen.
func (a *App) AcknowledgeVersion(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.kv.Set(ctx, storage.KeyAppVersion, []byte(version.Current)); err != nil {
		a.log.Error("Failed to save version", "key", storage.KeyAppVersion, "error", err)
		return fmt.Errorf("%w: %w", storage.ErrPersist, err)
	}
	return nil
}

// deferPersist records the first write failure in first and lets the caller
// carry on. Any other error is returned.
func deferPersist(first *error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrPersist) {
		if *first == nil {
			*first = err
		}
		return nil
	}
	return err
}
