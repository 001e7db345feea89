package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImportErrors caps the per-row messages returned from an import
const MaxImportErrors = 10

// ItemRecord is the flat, portable form of an item used by import and export.
// Dates are RFC 3339 strings; empty strings mean absent.
type ItemRecord struct {
	Code           string   `json:"qr_code"`
	ProductCode    string   `json:"upc"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Source         string   `json:"source"`
	Weight         *float64 `json:"weight"`
	WeightUnit     string   `json:"weight_unit"`
	AddedDate      string   `json:"added_date"`
	ExpirationDate string   `json:"expiration_date"`
	Status         string   `json:"status"`
	RemovedDate    string   `json:"removed_date"`
	Notes          string   `json:"notes"`
	ImageURL       string   `json:"image_url"`
}

// ImportResult summarises a best-effort import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

func (r *ImportResult) fail(row int, message string) {
	r.Skipped++
	if len(r.Errors) < MaxImportErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: %s", row, message))
	}
}

// TransferService defines bulk import and export of items
type TransferService interface {
	Export(ctx context.Context, caller domain.Caller, status string) ([]ItemRecord, error)
	Import(ctx context.Context, caller domain.Caller, records []ItemRecord) (*ImportResult, error)
}

type transferService struct {
	itemRepo               repository.ItemRepository
	categoryRepo           repository.CategoryRepository
	codes                  CodeGenerator
	importExpirationDays   int
	codeGenerationAttempts int
	logger                 *zap.Logger
	now                    func() time.Time
}

// NewTransferService creates a new instance of TransferService. Categories
// named by imported records that do not exist yet are created with
// importExpirationDays.
func NewTransferService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	codes CodeGenerator,
	importExpirationDays int,
	codeGenerationAttempts int,
	logger *zap.Logger,
) TransferService {
	if importExpirationDays < 0 {
		importExpirationDays = DefaultCategoryExpirationDays
	}
	if codeGenerationAttempts <= 0 {
		codeGenerationAttempts = DefaultItemServiceConfig().CodeGenerationAttempts
	}
	return &transferService{
		itemRepo:               itemRepo,
		categoryRepo:           categoryRepo,
		codes:                  codes,
		importExpirationDays:   importExpirationDays,
		codeGenerationAttempts: codeGenerationAttempts,
		logger:                 logger,
		now:                    func() time.Time { return time.Now().UTC() },
	}
}

// Export returns items with the given status, or all items for "" and "all",
// oldest first.
func (s *transferService) Export(ctx context.Context, caller domain.Caller, status string) ([]ItemRecord, error) {
	if status == "" {
		status = domain.StatusFilterAll
	}
	filter, err := resolveStatus(status)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.List(ctx, domain.ItemFilter{
		Status:    filter,
		SortBy:    domain.SortByAddedDate,
		SortOrder: domain.SortOrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export items: %w", err)
	}

	records := make([]ItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toRecord(item))
	}
	return records, nil
}

func toRecord(item *domain.Item) ItemRecord {
	return ItemRecord{
		Code:           item.Code,
		ProductCode:    deref(item.ProductCode),
		Name:           item.Name,
		Category:       deref(item.CategoryName),
		Source:         deref(item.Source),
		Weight:         item.Weight,
		WeightUnit:     item.WeightUnit,
		AddedDate:      item.AddedDate.UTC().Format(time.RFC3339Nano),
		ExpirationDate: formatTime(item.ExpirationDate),
		Status:         string(item.Status),
		RemovedDate:    formatTime(item.RemovedDate),
		Notes:          deref(item.Notes),
		ImageURL:       deref(item.ImageURL),
	}
}

// Import stores each record independently. A bad record is skipped and
// reported; the import as a whole never aborts because of one.
func (s *transferService) Import(ctx context.Context, caller domain.Caller, records []ItemRecord) (*ImportResult, error) {
	result := &ImportResult{Errors: []string{}}
	categories := map[string]*domain.Category{}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row := i + 1
		item, err := s.recordToItem(ctx, caller, record, categories)
		if err != nil {
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				result.fail(row, validationErr.Error())
			} else {
				s.logger.Error("Import row failed",
					zap.Int("row", row),
					zap.String("caller_id", caller.UserID.String()),
					zap.Error(err),
				)
				result.fail(row, "failed to resolve category")
			}
			continue
		}

		supplied := item.Code != ""
		if supplied {
			exists, err := s.itemRepo.ExistsByCode(ctx, item.Code)
			if err != nil {
				s.logger.Error("Import code check failed", zap.Int("row", row), zap.Error(err))
				result.fail(row, "failed to save item")
				continue
			}
			supplied = !exists
		}

		if err := insertItem(ctx, s.itemRepo, s.codes, s.codeGenerationAttempts, item, supplied); err != nil {
			if errors.Is(err, ErrDuplicateIdentifier) {
				result.fail(row, "duplicate identifier "+item.Code)
				continue
			}
			s.logger.Error("Import insert failed",
				zap.Int("row", row),
				zap.String("caller_id", caller.UserID.String()),
				zap.Error(err),
			)
			result.fail(row, "failed to save item")
			continue
		}
		result.Imported++
	}

	s.logger.Info("Import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.String("caller_id", caller.UserID.String()),
	)
	return result, nil
}

func (s *transferService) recordToItem(ctx context.Context, caller domain.Caller, record ItemRecord, categories map[string]*domain.Category) (*domain.Item, error) {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	code := strings.TrimSpace(record.Code)
	if len(code) > maxCodeLength {
		return nil, newValidationError("qr_code", "is too long")
	}

	productCode, err := validateProductCode(optionalString(record.ProductCode))
	if err != nil {
		return nil, err
	}
	if err := validateWeight(record.Weight); err != nil {
		return nil, err
	}

	now := s.now()
	added := now
	if strings.TrimSpace(record.AddedDate) != "" {
		if added, err = domain.ParseTimestamp(record.AddedDate); err != nil {
			return nil, newValidationError("added_date", "invalid date")
		}
	}

	expiration, err := parseOptionalTime("expiration_date", record.ExpirationDate)
	if err != nil {
		return nil, err
	}

	status := domain.StatusInFreezer
	if strings.TrimSpace(record.Status) != "" {
		status = domain.ItemStatus(strings.TrimSpace(record.Status))
		if !status.IsValid() {
			return nil, newValidationError("status", "invalid status")
		}
	}

	var removed *time.Time
	if status.IsRemoved() {
		if removed, err = parseOptionalTime("removed_date", record.RemovedDate); err != nil {
			return nil, err
		}
		if removed == nil {
			removed = &now
		}
	}

	weightUnit := strings.TrimSpace(record.WeightUnit)
	if weightUnit == "" {
		weightUnit = domain.DefaultWeightUnit
	}

	creator := caller.UserID
	item := &domain.Item{
		ID:             uuid.New(),
		Code:           code,
		ProductCode:    productCode,
		ImageURL:       optionalString(record.ImageURL),
		Name:           name,
		Source:         optionalString(record.Source),
		Weight:         record.Weight,
		WeightUnit:     weightUnit,
		AddedDate:      added,
		ExpirationDate: expiration,
		Status:         status,
		RemovedDate:    removed,
		Notes:          optionalString(record.Notes),
		AddedByUserID:  &creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if categoryName := strings.TrimSpace(record.Category); categoryName != "" {
		category, err := s.resolveCategory(ctx, caller, categoryName, categories)
		if err != nil {
			return nil, err
		}
		item.CategoryID = &category.ID
		item.CategoryName = &category.Name
	}

	return item, nil
}

// resolveCategory finds a category by name, creating it when missing
func (s *transferService) resolveCategory(ctx context.Context, caller domain.Caller, name string, cache map[string]*domain.Category) (*domain.Category, error) {
	if category, ok := cache[name]; ok {
		return category, nil
	}

	category, err := s.categoryRepo.FindByName(ctx, name)
	if err == nil {
		cache[name] = category
		return category, nil
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, err
	}

	now := s.now()
	days := s.importExpirationDays
	creator := caller.UserID
	category = &domain.Category{
		ID:                    uuid.New(),
		Name:                  name,
		DefaultExpirationDays: &days,
		CreatedByUserID:       &creator,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if !errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, err
		}
		if category, err = s.categoryRepo.FindByName(ctx, name); err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("Category created during import",
			zap.String("category_id", category.ID.String()),
			zap.String("name", name),
		)
	}

	cache[name] = category
	return category, nil
}

func parseOptionalTime(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(value)
	if err != nil {
		return nil, newValidationError(field, "invalid date")
	}
	return &t, nil
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
