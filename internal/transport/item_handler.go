package transport

import (
	"net/http"
	"strings"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/middleware"
	"freezer-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// labelModulePixels is the rendered size of one QR module; negative asks
// go-qrcode for a fixed pixels-per-module image instead of a fixed width.
const labelModulePixels = -10

// StatusRequest is the payload of PUT /api/items/{id}/status
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ItemHandler handles HTTP requests for freezer items
type ItemHandler struct {
	itemService service.ItemService
	logger      *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// RegisterRoutes registers the item routes. extra lets other handlers mount
// under /api/items before the {id} routes.
func (h *ItemHandler) RegisterRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/expiring-soon", h.ExpiringSoon)
		r.Get("/oldest", h.Oldest)
		r.Get("/code/{code}", h.GetByCode)
		r.Get("/code/{code}/image", h.CodeImage)
		for _, mount := range extra {
			mount(r)
		}
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Put("/{id}/status", h.SetStatus)
	})
}

// List returns items filtered and sorted by the query string
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}

	query, err := parseItemQuery(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.itemService.List(r.Context(), caller, query)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.itemService.ExpiringSoon(r.Context(), days)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list expiring items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Oldest(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.itemService.Oldest(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list oldest items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// GetByCode looks an item up by its printed label code
func (h *ItemHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "code is required")
		return
	}

	item, err := h.itemService.GetByCode(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// CodeImage renders a PNG QR label for code. The item does not need to exist
// so labels can be printed before an item is saved.
func (h *ItemHandler) CodeImage(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "code is required")
		return
	}

	qr, err := qrcode.New(domain.LabelContent(code), qrcode.Low)
	if err != nil {
		h.logger.Warn("failed to encode label", zap.String("code", code), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "code cannot be encoded")
		return
	}
	png, err := qr.PNG(labelModulePixels)
	if err != nil {
		h.logger.Error("failed to render label", zap.String("code", code), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to render label")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}

	var input service.CreateItemInput
	if !decodeRequest(w, r, h.logger, &input) {
		return
	}

	item, err := h.itemService.Create(r.Context(), caller, input)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to create item")
		return
	}

	h.logger.Info("Item created",
		zap.String("item_id", item.ID.String()),
		zap.String("qr_code", item.Code),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var input service.UpdateItemInput
	if !decodeRequest(w, r, h.logger, &input) {
		return
	}

	item, err := h.itemService.Update(r.Context(), caller, id, input)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// SetStatus moves an item in or out of the freezer
func (h *ItemHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	item, err := h.itemService.SetStatus(r.Context(), caller, id, req.Status)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update item status")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.itemService.Delete(r.Context(), caller, id); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
