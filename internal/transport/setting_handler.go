package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/middleware"
	"freezer-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PurgeResponse reports how many history items were removed
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// SettingValue is the body of GET and PUT /api/settings/{name}. PUT accepts any
// JSON scalar and stores its text.
type SettingValue struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// SettingHandler handles per-user and system settings plus history purge
type SettingHandler struct {
	settingService service.SettingService
	itemService    service.ItemService
	logger         *zap.Logger
}

// NewSettingHandler creates a new SettingHandler
func NewSettingHandler(settingService service.SettingService, itemService service.ItemService, logger *zap.Logger) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
		itemService:    itemService,
		logger:         logger,
	}
}

// RegisterRoutes registers all settings routes
func (h *SettingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", h.scoped(userScope, h.GetAll))
		r.Put("/", h.scoped(userScope, h.Update))
		r.Get("/system", h.scoped(systemScope, h.GetAll))
		r.Put("/system", h.scoped(systemScope, h.Update))
		r.Get("/system/{name}", h.scoped(systemScope, h.GetOne))
		r.Put("/system/{name}", h.scoped(systemScope, h.SetOne))
		r.Get("/{name}", h.scoped(userScope, h.GetOne))
		r.Put("/{name}", h.scoped(userScope, h.SetOne))
		r.With(middleware.RequireAdmin(h.logger)).Post("/purge-history", h.PurgeHistory)
	})
}

type scopeFunc func(domain.Caller) domain.SettingScope

func userScope(caller domain.Caller) domain.SettingScope { return domain.UserScope(caller.UserID) }

func systemScope(domain.Caller) domain.SettingScope { return domain.SystemScope() }

type scopedHandler func(w http.ResponseWriter, r *http.Request, caller domain.Caller, scope domain.SettingScope)

func (h *SettingHandler) scoped(scopeOf scopeFunc, next scopedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerFromRequest(w, r, h.logger)
		if !ok {
			return
		}
		next(w, r, caller, scopeOf(caller))
	}
}

// GetAll returns the scope's settings merged over the defaults
func (h *SettingHandler) GetAll(w http.ResponseWriter, r *http.Request, caller domain.Caller, scope domain.SettingScope) {
	settings, err := h.settingService.GetAll(r.Context(), caller, scope)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get settings")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// Update upserts every key of the JSON object body and returns the full settings
func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request, caller domain.Caller, scope domain.SettingScope) {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	var values map[string]any
	if err := decoder.Decode(&values); err != nil {
		h.logger.Debug("Settings body rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.settingService.SetMany(r.Context(), caller, scope, values); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update settings")
		return
	}

	h.logger.Info("Settings updated",
		zap.String("scope", scope.String()),
		zap.Int("count", len(values)),
	)
	h.GetAll(w, r, caller, scope)
}

// GetOne returns a single setting, falling back to its default
func (h *SettingHandler) GetOne(w http.ResponseWriter, r *http.Request, caller domain.Caller, scope domain.SettingScope) {
	name := chi.URLParam(r, "name")
	value, err := h.settingService.Get(r.Context(), caller, scope, name)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get setting")
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to encode setting")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, SettingValue{Name: name, Value: encoded})
}

// SetOne stores a single setting from {"value": ...}
func (h *SettingHandler) SetOne(w http.ResponseWriter, r *http.Request, caller domain.Caller, scope domain.SettingScope) {
	var req SettingValue
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Value) == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	value, err := settingText(req.Value)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "value must be a string, number, boolean or null")
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.settingService.Set(r.Context(), caller, scope, name, value); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update setting")
		return
	}

	h.logger.Info("Setting updated",
		zap.String("scope", scope.String()),
		zap.String("name", name),
	)
	h.GetOne(w, r, caller, scope)
}

// settingText is the stored form of a JSON scalar: strings unquoted, null
// empty, everything else as written.
func settingText(raw json.RawMessage) (string, error) {
	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return "", err
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, json.Number:
		return fmt.Sprint(v), nil
	}
	return "", errors.New("setting value is not a scalar")
}

// PurgeHistory permanently deletes consumed and thrown-out items
func (h *SettingHandler) PurgeHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}

	deleted, err := h.itemService.PurgeHistory(r.Context(), caller)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to purge history")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}
