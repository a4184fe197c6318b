package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	a := app.New(app.Options{
		KV: storage.NewMemoryStore(),
		Seed: catalog.Seed{
			shared.Lunch: {
				{Name: "Laksa", Emoji: "🍜", Category: shared.CategoryNoodles},
			},
			shared.Dinner: {
				{Name: "Rice", Emoji: "🍚", Category: shared.CategoryRice},
				{Name: "KaiLan", Emoji: "🥬", Category: shared.CategoryVegetables},
				{Name: "Chicken", Emoji: "🍗", Category: shared.CategoryChicken},
			},
		},
		Now: func() time.Time { return time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC) },
	})
	srv := httptest.NewServer(NewHandler(a, logger.Nop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestPlanEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday", `{"name":"Rice"}`)
	if status != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", status, body)
	}
	do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday", `{"name":"Chicken"}`)

	status, body = do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday/reorder", `{"from":0,"to":1}`)
	if status != http.StatusOK {
		t.Fatalf("reorder: expected 200, got %d: %s", status, body)
	}
	var items []shared.PlacedItem
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("failed to decode items: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Chicken" || items[1].Name != "Rice" {
		t.Errorf("unexpected order after reorder: %+v", items)
	}

	status, body = do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday/1/lock", "")
	if status != http.StatusOK || !strings.Contains(string(body), `"locked":true`) {
		t.Fatalf("lock: got %d: %s", status, body)
	}

	status, body = do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday/clear", "")
	if status != http.StatusOK || !strings.Contains(string(body), `"removed":1`) {
		t.Fatalf("clear day: got %d: %s", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/plan", "")
	if status != http.StatusOK {
		t.Fatalf("get plan: expected 200, got %d", status)
	}
	var plan planner.PlanState
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatalf("failed to decode plan: %v", err)
	}
	got := plan.Items(shared.Monday, shared.Dinner)
	if len(got) != 1 || got[0].Name != "Rice" || !got[0].Locked {
		t.Errorf("expected only the locked Rice to remain, got %+v", got)
	}

	status, _ = do(t, srv, http.MethodDelete, "/api/v1/plan/dinner/monday/0", "")
	if status != http.StatusNoContent {
		t.Errorf("remove: expected 204, got %d", status)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 4; i++ {
		do(t, srv, http.MethodPost, "/api/v1/plan/dinner/friday", `{"name":"Rice"}`)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"full day", http.MethodPost, "/api/v1/plan/dinner/friday", `{"name":"Rice"}`, http.StatusConflict},
		{"unknown dish", http.MethodPost, "/api/v1/plan/dinner/monday", `{"name":"Pizza"}`, http.StatusNotFound},
		{"unknown meal", http.MethodGet, "/api/v1/catalog/brunch", "", http.StatusBadRequest},
		{"unknown day", http.MethodPost, "/api/v1/plan/dinner/someday", `{"name":"Rice"}`, http.StatusBadRequest},
		{"bad index", http.MethodDelete, "/api/v1/plan/dinner/monday/x", "", http.StatusBadRequest},
		{"index out of range", http.MethodDelete, "/api/v1/plan/dinner/monday/3", "", http.StatusNotFound},
		{"unknown field", http.MethodPost, "/api/v1/plan/dinner/monday", `{"dish":"Rice"}`, http.StatusBadRequest},
		{"duplicate dish", http.MethodPost, "/api/v1/catalog/dinner", `{"name":"rice"}`, http.StatusConflict},
		{"no template", http.MethodPost, "/api/v1/template/apply/dinner", "", http.StatusNotFound},
		{"missing log", http.MethodPost, "/api/v1/logs/0/load", "", http.StatusNotFound},
		{"missing recipe", http.MethodGet, "/api/v1/recipes/Rice", "", http.StatusNotFound},
		{"no drafter", http.MethodPost, "/api/v1/recipes/Rice/draft", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, srv, tt.method, tt.path, tt.body)
			if status != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, status, body)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", app.ErrCapacityExceeded), http.StatusConflict},
		{app.ErrNothingPlanned, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: %w", storage.ErrPersist, errors.New("disk full")), http.StatusInsufficientStorage},
		{catalog.ErrInvalidDish, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, srv, http.MethodGet, "/api/v1/summary", "")
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an empty plan, got %d", status)
	}

	do(t, srv, http.MethodPost, "/api/v1/plan/lunch/tuesday", `{"name":"Laksa"}`)
	status, body := do(t, srv, http.MethodGet, "/api/v1/summary", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), "🍜 Laksa") {
		t.Errorf("summary missing lunch dish:\n%s", body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/export.xlsx", "")
	if status != http.StatusOK || len(body) == 0 {
		t.Errorf("xlsx export: got %d with %d bytes", status, len(body))
	}
}

func TestTemplateAndLogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/v1/plan/dinner/monday", `{"name":"Rice"}`)
	status, body := do(t, srv, http.MethodPut, "/api/v1/template", `{"name":"Weeknights","meal":"dinner"}`)
	if status != http.StatusOK {
		t.Fatalf("save template: got %d: %s", status, body)
	}

	do(t, srv, http.MethodDelete, "/api/v1/plan/dinner", "")
	status, body = do(t, srv, http.MethodPost, "/api/v1/template/apply/dinner", "")
	if status != http.StatusOK || !strings.Contains(string(body), `"loaded":1`) {
		t.Fatalf("apply template: got %d: %s", status, body)
	}

	status, body = do(t, srv, http.MethodPost, "/api/v1/logs", "")
	if status != http.StatusCreated {
		t.Fatalf("save log: got %d: %s", status, body)
	}
	if !strings.Contains(string(body), `"startDate":"Mon, Jan 19"`) {
		t.Errorf("expected next Monday as start date, got %s", body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/logs", "")
	if status != http.StatusOK {
		t.Fatalf("list logs: got %d", status)
	}
	var logs []json.RawMessage
	if err := json.Unmarshal(body, &logs); err != nil || len(logs) != 1 {
		t.Fatalf("expected one log, got %s (err %v)", body, err)
	}

	status, _ = do(t, srv, http.MethodDelete, "/api/v1/logs/0", "")
	if status != http.StatusNoContent {
		t.Errorf("delete log: expected 204, got %d", status)
	}
}

func TestRecipeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, srv, http.MethodPut, "/api/v1/recipes/Chicken%20Rice", `{"recipe":"Poach the chicken."}`)
	if status != http.StatusOK {
		t.Fatalf("set recipe: got %d: %s", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/recipes/Chicken%20Rice", "")
	if status != http.StatusOK || !strings.Contains(string(body), "Poach the chicken.") {
		t.Fatalf("get recipe: got %d: %s", status, body)
	}

	status, body = do(t, srv, http.MethodGet, "/api/v1/recipes", "")
	if status != http.StatusOK || !strings.Contains(string(body), "Chicken Rice") {
		t.Errorf("list recipes: got %d: %s", status, body)
	}
}
