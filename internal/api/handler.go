package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"weekly-meal-planner/internal/app"
	"weekly-meal-planner/internal/catalog"
	"weekly-meal-planner/internal/history"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
	"weekly-meal-planner/internal/version"
)

// Handler exposes the planner over a JSON HTTP API. It is a projection only:
// every request maps to one App operation.
type Handler struct {
	app    *app.App
	logger *logger.Logger
}

// NewHandler creates a new Handler.
func NewHandler(a *app.App, log *logger.Logger) *Handler {
	return &Handler{app: a, logger: log.WithComponent("api")}
}

// Routes returns the API mux wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/v1/version", h.getVersion)
	mux.HandleFunc("POST /api/v1/version/ack", h.ackVersion)

	mux.HandleFunc("GET /api/v1/catalog/{meal}", h.listDishes)
	mux.HandleFunc("POST /api/v1/catalog/{meal}", h.addCustomDish)
	mux.HandleFunc("DELETE /api/v1/catalog/{meal}/{name}", h.removeCustomDish)

	mux.HandleFunc("GET /api/v1/plan", h.getPlan)
	mux.HandleFunc("DELETE /api/v1/plan/{meal}", h.clearAll)
	mux.HandleFunc("POST /api/v1/plan/{meal}/suggest", h.suggest)
	mux.HandleFunc("POST /api/v1/plan/{meal}/{day}", h.addDish)
	mux.HandleFunc("POST /api/v1/plan/{meal}/{day}/clear", h.clearDay)
	mux.HandleFunc("POST /api/v1/plan/{meal}/{day}/reorder", h.reorder)
	mux.HandleFunc("POST /api/v1/plan/{meal}/{day}/{index}/lock", h.toggleLock)
	mux.HandleFunc("DELETE /api/v1/plan/{meal}/{day}/{index}", h.removeItem)

	mux.HandleFunc("GET /api/v1/summary", h.summary)
	mux.HandleFunc("GET /api/v1/export.xlsx", h.exportXLSX)

	mux.HandleFunc("GET /api/v1/template", h.getTemplate)
	mux.HandleFunc("PUT /api/v1/template", h.saveTemplate)
	mux.HandleFunc("DELETE /api/v1/template", h.deleteTemplate)
	mux.HandleFunc("POST /api/v1/template/apply/{meal}", h.applyTemplate)

	mux.HandleFunc("GET /api/v1/logs", h.listLogs)
	mux.HandleFunc("POST /api/v1/logs", h.saveLog)
	mux.HandleFunc("POST /api/v1/logs/{index}/load", h.loadLog)
	mux.HandleFunc("DELETE /api/v1/logs/{index}", h.deleteLog)

	mux.HandleFunc("GET /api/v1/recipes", h.listRecipes)
	mux.HandleFunc("GET /api/v1/recipes/{dish}", h.getRecipe)
	mux.HandleFunc("PUT /api/v1/recipes/{dish}", h.setRecipe)
	mux.HandleFunc("DELETE /api/v1/recipes/{dish}", h.deleteRecipe)
	mux.HandleFunc("POST /api/v1/recipes/{dish}/draft", h.draftRecipe)
	mux.HandleFunc("POST /api/v1/recipes/{dish}/clip", h.clipRecipe)

	return h.logger.HTTPMiddleware(mux)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	due, err := h.app.VersionNotice(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]any{"version": version.Current, "notice": due})
}

func (h *Handler) ackVersion(w http.ResponseWriter, r *http.Request) {
	if err := h.app.AcknowledgeVersion(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDishes(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	h.writeJSONResponse(w, http.StatusOK, h.app.Dishes(meal))
}

type customDishRequest struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`
}

func (h *Handler) addCustomDish(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	var req customDishRequest
	if !h.parseRequestBody(w, r, &req) {
		return
	}
	if err := h.app.AddCustomDish(r.Context(), req.Name, req.Emoji, meal, shared.ParseCategory(req.Category)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, h.app.Dishes(meal))
}

func (h *Handler) removeCustomDish(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	if err := h.app.RemoveCustomDish(r.Context(), meal, r.PathValue("name")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, h.app.Plan())
}

type addDishRequest struct {
	Name string `json:"name"`
}

func (h *Handler) addDish(w http.ResponseWriter, r *http.Request) {
	meal, day, ok := h.slot(w, r)
	if !ok {
		return
	}
	var req addDishRequest
	if !h.parseRequestBody(w, r, &req) {
		return
	}
	item, err := h.app.AddDish(r.Context(), day, meal, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, item)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	meal, day, ok := h.slot(w, r)
	if !ok {
		return
	}
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := h.app.RemoveItem(r.Context(), day, meal, index); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	meal, day, ok := h.slot(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if !h.parseRequestBody(w, r, &req) {
		return
	}
	if err := h.app.ReorderItem(r.Context(), day, meal, req.From, req.To); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, h.app.Plan().Items(day, meal))
}

func (h *Handler) toggleLock(w http.ResponseWriter, r *http.Request) {
	meal, day, ok := h.slot(w, r)
	if !ok {
		return
	}
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	locked, err := h.app.ToggleLock(r.Context(), day, meal, index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"locked": locked})
}

func (h *Handler) clearDay(w http.ResponseWriter, r *http.Request) {
	meal, day, ok := h.slot(w, r)
	if !ok {
		return
	}
	n, err := h.app.ClearDay(r.Context(), day, meal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	n, err := h.app.ClearAll(r.Context(), meal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	if _, err := h.app.AutoSuggest(r.Context(), meal); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, h.app.Plan())
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	text, ok := h.app.Summary()
	if !ok {
		h.writeError(w, app.ErrNothingPlanned)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.app.ExportXLSX(&buf); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="weekly-menus.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.app.Template(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tmpl == nil {
		h.writeError(w, app.ErrNoTemplate)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tmpl)
}

type saveTemplateRequest struct {
	Name string         `json:"name"`
	Meal string         `json:"meal,omitempty"`
	Data planner.DayMap `json:"data,omitempty"`
}

// saveTemplate stores either the posted day map or, when meal is given, the
// current plan of that meal type.
func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveTemplateRequest
	if !h.parseRequestBody(w, r, &req) {
		return
	}

	var err error
	var saved any
	if req.Meal != "" {
		meal, ok := shared.ParseMealType(req.Meal)
		if !ok {
			h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown meal type %q", req.Meal))
			return
		}
		saved, err = h.app.SaveTemplateFromPlan(r.Context(), req.Name, meal)
	} else {
		saved, err = h.app.SaveTemplate(r.Context(), req.Name, req.Data)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, saved)
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteTemplate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	meal, ok := h.meal(w, r)
	if !ok {
		return
	}
	res, err := h.app.ApplyTemplate(r.Context(), meal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]any{"name": res.Name, "loaded": res.Loaded, "skipped": res.Skipped})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.app.Logs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if logs == nil {
		logs = []history.Entry{}
	}
	h.writeJSONResponse(w, http.StatusOK, logs)
}

type saveLogRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *Handler) saveLog(w http.ResponseWriter, r *http.Request) {
	var req saveLogRequest
	if r.ContentLength != 0 && !h.parseRequestBody(w, r, &req) {
		return
	}
	entry, err := h.app.SaveWeekLog(r.Context(), req.StartDate, req.EndDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, entry)
}

func (h *Handler) loadLog(w http.ResponseWriter, r *http.Request) {
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	if _, err := h.app.LoadLog(r.Context(), index); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, h.app.Plan())
}

func (h *Handler) deleteLog(w http.ResponseWriter, r *http.Request) {
	index, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := h.app.DeleteLog(r.Context(), index); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.app.RecipeDishes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, dishes)
}

type recipeBody struct {
	Dish   string `json:"dish"`
	Recipe string `json:"recipe"`
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	dish := r.PathValue("dish")
	text, err := h.app.Recipe(r.Context(), dish)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, recipeBody{Dish: dish, Recipe: text})
}

func (h *Handler) setRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeBody
	if !h.parseRequestBody(w, r, &req) {
		return
	}
	dish := r.PathValue("dish")
	if err := h.app.SetRecipe(r.Context(), dish, req.Recipe); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, recipeBody{Dish: dish, Recipe: req.Recipe})
}

func (h *Handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteRecipe(r.Context(), r.PathValue("dish")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) draftRecipe(w http.ResponseWriter, r *http.Request) {
	meal := shared.Dinner
	if q := r.URL.Query().Get("meal"); q != "" {
		m, ok := shared.ParseMealType(q)
		if !ok {
			h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown meal type %q", q))
			return
		}
		meal = m
	}
	dish := r.PathValue("dish")
	text, err := h.app.DraftRecipe(r.Context(), meal, dish)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, recipeBody{Dish: dish, Recipe: text})
}

type clipRequest struct {
	URL string `json:"url"`
}

func (h *Handler) clipRecipe(w http.ResponseWriter, r *http.Request) {
	var req clipRequest
	if !h.parseRequestBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "url is required")
		return
	}
	dish := r.PathValue("dish")
	text, err := h.app.ClipRecipe(r.Context(), dish, req.URL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, recipeBody{Dish: dish, Recipe: text})
}

func (h *Handler) meal(w http.ResponseWriter, r *http.Request) (shared.MealType, bool) {
	meal, ok := shared.ParseMealType(r.PathValue("meal"))
	if !ok {
		h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown meal type %q", r.PathValue("meal")))
	}
	return meal, ok
}

func (h *Handler) slot(w http.ResponseWriter, r *http.Request) (shared.MealType, shared.Day, bool) {
	meal, ok := h.meal(w, r)
	if !ok {
		return "", "", false
	}
	day, ok := shared.ParseDay(r.PathValue("day"))
	if !ok {
		h.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unknown day %q", r.PathValue("day")))
		return "", "", false
	}
	return meal, day, true
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "index must be a number")
		return 0, false
	}
	return index, true
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrCapacityExceeded), errors.Is(err, catalog.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, planner.ErrNotFound), errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, history.ErrNotFound), errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, app.ErrNoTemplate):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidDish):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNothingPlanned):
		return http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrPersist):
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	}
	h.writeErrorResponse(w, status, err.Error())
}

// writeJSONResponse writes data as JSON with the given status code.
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// writeErrorResponse writes an error response with given status code and message
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// parseRequestBody decodes a JSON body, answering 400 on failure.
func (h *Handler) parseRequestBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
