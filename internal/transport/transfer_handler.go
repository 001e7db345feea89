package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"freezer-inventory/internal/middleware"
	"freezer-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxImportBytes = 10 << 20

// TransferHandler serves bulk export and import of items
type TransferHandler struct {
	transferService service.TransferService
	logger          *zap.Logger
	now             func() time.Time
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService service.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
		now:             time.Now,
	}
}

// Mount registers export and import under an existing /api/items router
func (h *TransferHandler) Mount(r chi.Router) {
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
}

// Export writes items with ?status= (default all) as JSON or CSV
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}

	format, err := transferFormat(r.URL.Query().Get("format"), "")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.transferService.Export(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to export items")
		return
	}

	h.logger.Info("Items exported",
		zap.String("format", format),
		zap.Int("count", len(records)),
		zap.String("caller_id", caller.UserID.String()),
	)

	if format == formatJSON {
		middleware.RespondWithJSON(w, http.StatusOK, transferDocument{Items: records})
		return
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, records); err != nil {
		h.logger.Error("Failed to encode export", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to export items")
		return
	}

	filename := fmt.Sprintf("freezer-inventory-%s.csv", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Import stores each record best effort and reports {imported, skipped, errors}
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r, h.logger)
	if !ok {
		return
	}

	format, err := transferFormat(r.URL.Query().Get("format"), r.Header.Get("Content-Type"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	var records []service.ItemRecord
	if format == formatCSV {
		records, err = readCSV(body)
	} else {
		records, err = readJSON(body)
	}
	if err != nil {
		h.logger.Debug("Import body rejected", zap.String("format", format), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid import file")
		return
	}

	result, err := h.transferService.Import(r.Context(), caller, records)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to import items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}
