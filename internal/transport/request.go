package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidQuery = errors.New("invalid query parameter")

// callerFromRequest returns the verified caller or answers 401
func callerFromRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		logger.Error("Caller not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Caller{}, false
	}
	return caller, true
}

// idParam parses the {id} route parameter or answers 400
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeRequest decodes and validates a JSON body, answering 400 on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request body rejected", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func intQuery(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errInvalidQuery, name)
	}
	return &n, nil
}

func timeQuery(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an ISO date", errInvalidQuery, name)
	}
	return &t, nil
}

func uuidQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a UUID", errInvalidQuery, name)
	}
	return &id, nil
}

// parseItemQuery reads the listing parameters. Unknown sort values are left
// for the service to default.
func parseItemQuery(r *http.Request) (domain.ItemQuery, error) {
	q := r.URL.Query()
	query := domain.ItemQuery{
		Status:    strings.TrimSpace(q.Get("status")),
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    domain.SortField(strings.ToLower(q.Get("sort_by"))),
		SortOrder: domain.SortOrder(strings.ToUpper(q.Get("sort_order"))),
	}

	var err error
	if query.CategoryID, err = uuidQuery(r, "category_id"); err != nil {
		return query, err
	}
	if query.StartDate, err = timeQuery(r, "start_date"); err != nil {
		return query, err
	}
	if query.EndDate, err = timeQuery(r, "end_date"); err != nil {
		return query, err
	}
	return query, nil
}
