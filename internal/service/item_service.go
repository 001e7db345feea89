package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCodeLength = 50

var productCodeFormat = regexp.MustCompile(`^\d{12}$`)

// ItemServiceConfig holds the tunable defaults of the item service
type ItemServiceConfig struct {
	ExpiringSoonDays       int
	OldestLimit            int
	CodeGenerationAttempts int
}

// DefaultItemServiceConfig returns the stock defaults
func DefaultItemServiceConfig() ItemServiceConfig {
	return ItemServiceConfig{
		ExpiringSoonDays:       30,
		OldestLimit:            10,
		CodeGenerationAttempts: 5,
	}
}

// CreateItemInput is the payload for a new item. Code is generated when omitted.
type CreateItemInput struct {
	Code           *string           `json:"qr_code" validate:"omitempty,max=50"`
	ProductCode    *string           `json:"upc"`
	ImageURL       *string           `json:"image_url" validate:"omitempty,max=500"`
	Name           string            `json:"name" validate:"required,max=200"`
	Source         *string           `json:"source" validate:"omitempty,max=100"`
	Weight         *float64          `json:"weight" validate:"omitempty,gte=0"`
	WeightUnit     *string           `json:"weight_unit" validate:"omitempty,max=10"`
	CategoryID     *uuid.UUID        `json:"category_id"`
	AddedDate      *domain.Timestamp `json:"added_date"`
	ExpirationDate *domain.Timestamp `json:"expiration_date"`
	Notes          *string           `json:"notes"`
}

// UpdateItemInput carries only the fields to change. Expiration is never
// recomputed; callers resupply it to change it.
type UpdateItemInput struct {
	ProductCode    domain.Optional[string]           `json:"upc"`
	ImageURL       domain.Optional[string]           `json:"image_url"`
	Name           domain.Optional[string]           `json:"name"`
	Source         domain.Optional[string]           `json:"source"`
	Weight         domain.Optional[float64]          `json:"weight"`
	WeightUnit     domain.Optional[string]           `json:"weight_unit"`
	CategoryID     domain.Optional[uuid.UUID]        `json:"category_id"`
	AddedDate      domain.Optional[domain.Timestamp] `json:"added_date"`
	ExpirationDate domain.Optional[domain.Timestamp] `json:"expiration_date"`
	Notes          domain.Optional[string]           `json:"notes"`
}

// ItemService defines the interface for item lifecycle and inventory queries
type ItemService interface {
	Create(ctx context.Context, caller domain.Caller, input CreateItemInput) (*domain.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	GetByCode(ctx context.Context, code string) (*domain.Item, error)
	Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input UpdateItemInput) (*domain.Item, error)
	SetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status string) (*domain.Item, error)
	Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error
	List(ctx context.Context, caller domain.Caller, query domain.ItemQuery) ([]*domain.Item, error)
	ExpiringSoon(ctx context.Context, days *int) ([]*domain.Item, error)
	Oldest(ctx context.Context, limit *int) ([]*domain.Item, error)
	PurgeHistory(ctx context.Context, caller domain.Caller) (int64, error)
}

type itemService struct {
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	settings     SettingService
	codes        CodeGenerator
	cfg          ItemServiceConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewItemService creates a new instance of ItemService
func NewItemService(
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	settings SettingService,
	codes CodeGenerator,
	cfg ItemServiceConfig,
	logger *zap.Logger,
) ItemService {
	defaults := DefaultItemServiceConfig()
	if cfg.ExpiringSoonDays <= 0 {
		cfg.ExpiringSoonDays = defaults.ExpiringSoonDays
	}
	if cfg.OldestLimit <= 0 {
		cfg.OldestLimit = defaults.OldestLimit
	}
	if cfg.CodeGenerationAttempts <= 0 {
		cfg.CodeGenerationAttempts = defaults.CodeGenerationAttempts
	}

	return &itemService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		settings:     settings,
		codes:        codes,
		cfg:          cfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validateProductCode(code *string) (*string, error) {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*code)
	if !productCodeFormat.MatchString(trimmed) {
		return nil, newValidationError("upc", "must be exactly 12 digits")
	}
	return &trimmed, nil
}

func validateWeight(weight *float64) error {
	if weight != nil && *weight < 0 {
		return newValidationError("weight", "must be zero or greater")
	}
	return nil
}

func (s *itemService) findCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

// Create registers a new item in the freezer
func (s *itemService) Create(ctx context.Context, caller domain.Caller, input CreateItemInput) (*domain.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	productCode, err := validateProductCode(input.ProductCode)
	if err != nil {
		return nil, err
	}
	if err := validateWeight(input.Weight); err != nil {
		return nil, err
	}

	var code string
	if input.Code != nil {
		code = strings.TrimSpace(*input.Code)
		if len(code) > maxCodeLength {
			return nil, newValidationError("qr_code", "is too long")
		}
	}

	now := s.now()
	added := now
	if input.AddedDate != nil {
		added = input.AddedDate.Time()
	}

	var category *domain.Category
	if input.CategoryID != nil {
		if category, err = s.findCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	expiration := category.ExpirationFrom(added)
	if input.ExpirationDate != nil {
		explicit := input.ExpirationDate.Time()
		expiration = &explicit
	}

	weightUnit := domain.DefaultWeightUnit
	if input.WeightUnit != nil && strings.TrimSpace(*input.WeightUnit) != "" {
		weightUnit = strings.TrimSpace(*input.WeightUnit)
	}

	creator := caller.UserID
	item := &domain.Item{
		ID:             uuid.New(),
		Code:           code,
		ProductCode:    productCode,
		ImageURL:       input.ImageURL,
		Name:           name,
		Source:         input.Source,
		Weight:         input.Weight,
		WeightUnit:     weightUnit,
		CategoryID:     input.CategoryID,
		AddedDate:      added,
		ExpirationDate: expiration,
		Status:         domain.StatusInFreezer,
		Notes:          input.Notes,
		AddedByUserID:  &creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if category != nil {
		item.CategoryName = &category.Name
	}

	if err := insertItem(ctx, s.itemRepo, s.codes, s.cfg.CodeGenerationAttempts, item, code != ""); err != nil {
		return nil, err
	}

	return item, nil
}

// insertItem stores item. A caller-supplied code that collides fails with
// ErrDuplicateIdentifier; otherwise a fresh code is generated and retried up
// to attempts times.
func insertItem(ctx context.Context, repo repository.ItemRepository, codes CodeGenerator, attempts int, item *domain.Item, supplied bool) error {
	if supplied {
		exists, err := repo.ExistsByCode(ctx, item.Code)
		if err != nil {
			return fmt.Errorf("failed to check item code: %w", err)
		}
		if exists {
			return ErrDuplicateIdentifier
		}
		if err := repo.Create(ctx, item); err != nil {
			if errors.Is(err, repository.ErrItemCodeAlreadyExists) {
				return ErrDuplicateIdentifier
			}
			return fmt.Errorf("failed to create item: %w", err)
		}
		return nil
	}

	for attempt := 0; attempt < attempts; attempt++ {
		code, err := codes.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate item code: %w", err)
		}
		if !validCodeFormat(code) {
			return fmt.Errorf("generated item code %q is malformed", code)
		}

		exists, err := repo.ExistsByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to check item code: %w", err)
		}
		if exists {
			continue
		}

		item.Code = code
		err = repo.Create(ctx, item)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrItemCodeAlreadyExists) {
			return fmt.Errorf("failed to create item: %w", err)
		}
	}

	return fmt.Errorf("no free code after %d attempts: %w", attempts, ErrDuplicateIdentifier)
}

func (s *itemService) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// GetByCode looks an item up by its scannable code
func (s *itemService) GetByCode(ctx context.Context, code string) (*domain.Item, error) {
	item, err := s.itemRepo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item by code: %w", err)
	}
	return item, nil
}

// Update applies a partial update; absent fields are left untouched
func (s *itemService) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input UpdateItemInput) (*domain.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, newValidationError("name", "is required")
		}
		item.Name = strings.TrimSpace(*input.Name.Value)
	}
	if input.ProductCode.Set {
		if item.ProductCode, err = validateProductCode(input.ProductCode.Value); err != nil {
			return nil, err
		}
	}
	if input.ImageURL.Set {
		item.ImageURL = input.ImageURL.Value
	}
	if input.Source.Set {
		item.Source = input.Source.Value
	}
	if input.Weight.Set {
		if err := validateWeight(input.Weight.Value); err != nil {
			return nil, err
		}
		item.Weight = input.Weight.Value
	}
	if input.WeightUnit.Set {
		if input.WeightUnit.Value == nil || strings.TrimSpace(*input.WeightUnit.Value) == "" {
			item.WeightUnit = domain.DefaultWeightUnit
		} else {
			item.WeightUnit = strings.TrimSpace(*input.WeightUnit.Value)
		}
	}
	if input.CategoryID.Set {
		item.CategoryID = input.CategoryID.Value
		item.CategoryName = nil
		if item.CategoryID != nil {
			category, err := s.findCategory(ctx, *item.CategoryID)
			if err != nil {
				return nil, err
			}
			item.CategoryName = &category.Name
		}
	}
	if input.AddedDate.Set {
		if input.AddedDate.Value == nil {
			return nil, newValidationError("added_date", "cannot be cleared")
		}
		item.AddedDate = input.AddedDate.Value.Time()
	}
	if input.ExpirationDate.Set {
		item.ExpirationDate = nil
		if input.ExpirationDate.Value != nil {
			expiration := input.ExpirationDate.Value.Time()
			item.ExpirationDate = &expiration
		}
	}
	if input.Notes.Set {
		item.Notes = input.Notes.Value
	}
	item.UpdatedAt = s.now()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

// SetStatus moves an item between in_freezer, consumed and thrown_out. Any
// transition is allowed.
func (s *itemService) SetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status string) (*domain.Item, error) {
	newStatus := domain.ItemStatus(status)
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.SetStatus(newStatus, s.now())

	stored, err := s.itemRepo.UpdateStatus(ctx, id, item.Status, item.RemovedDate, item.UpdatedAt)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	return stored, nil
}

// Delete permanently removes an item. Admin only.
func (s *itemService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		s.logger.Warn("Non-admin attempted item delete",
			zap.String("item_id", id.String()),
			zap.String("caller_id", caller.UserID.String()),
		)
		return ErrForbidden
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete item",
			zap.String("item_id", id.String()),
			zap.String("caller_id", caller.UserID.String()),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrItemNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Info("Item deleted",
		zap.String("item_id", id.String()),
		zap.String("code", item.Code),
		zap.String("name", item.Name),
		zap.String("caller_id", caller.UserID.String()),
	)
	return nil
}

// resolveStatus turns the requested status into a storage filter. An empty
// request means in_freezer and "all" means no filter.
func resolveStatus(requested string) (*domain.ItemStatus, error) {
	switch requested {
	case "":
		status := domain.StatusInFreezer
		return &status, nil
	case domain.StatusFilterAll:
		return nil, nil
	}
	status := domain.ItemStatus(requested)
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return &status, nil
}

// listStatus applies a requested status verbatim: "" means in_freezer, "all"
// means no filter, and any other value filters on it as is, so an unknown
// status matches nothing.
func listStatus(requested string) *domain.ItemStatus {
	switch requested {
	case "":
		status := domain.StatusInFreezer
		return &status
	case domain.StatusFilterAll:
		return nil
	}
	status := domain.ItemStatus(requested)
	return &status
}

// List returns items matching query. Callers with track_history disabled only
// ever see items still in the freezer, whatever status they ask for.
func (s *itemService) List(ctx context.Context, caller domain.Caller, query domain.ItemQuery) ([]*domain.Item, error) {
	trackHistory, err := s.settings.TrackHistory(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history preference: %w", err)
	}

	var status *domain.ItemStatus
	if trackHistory {
		status = listStatus(query.Status)
	} else {
		inFreezer := domain.StatusInFreezer
		status = &inFreezer
	}

	sortBy := query.SortBy
	switch sortBy {
	case domain.SortByAddedDate, domain.SortByExpirationDate, domain.SortByName:
	default:
		sortBy = domain.SortByAddedDate
	}

	sortOrder := query.SortOrder
	if sortOrder != domain.SortOrderAsc {
		sortOrder = domain.SortOrderDesc
	}

	items, err := s.itemRepo.List(ctx, domain.ItemFilter{
		Status:     status,
		Search:     query.Search,
		CategoryID: query.CategoryID,
		AddedFrom:  query.StartDate,
		AddedTo:    query.EndDate,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ExpiringSoon returns in-freezer items expiring within days, soonest first
func (s *itemService) ExpiringSoon(ctx context.Context, days *int) ([]*domain.Item, error) {
	window := s.cfg.ExpiringSoonDays
	if days != nil {
		if *days < 0 {
			return nil, newValidationError("days", "must be zero or greater")
		}
		window = *days
	}

	inFreezer := domain.StatusInFreezer
	cutoff := s.now().AddDate(0, 0, window)

	items, err := s.itemRepo.List(ctx, domain.ItemFilter{
		Status:          &inFreezer,
		RequireExpiring: true,
		ExpiringBefore:  &cutoff,
		SortBy:          domain.SortByExpirationDate,
		SortOrder:       domain.SortOrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring items: %w", err)
	}
	return items, nil
}

// Oldest returns the longest-stored in-freezer items
func (s *itemService) Oldest(ctx context.Context, limit *int) ([]*domain.Item, error) {
	n := s.cfg.OldestLimit
	if limit != nil {
		if *limit <= 0 {
			return nil, newValidationError("limit", "must be greater than zero")
		}
		n = *limit
	}

	inFreezer := domain.StatusInFreezer
	items, err := s.itemRepo.List(ctx, domain.ItemFilter{
		Status:    &inFreezer,
		SortBy:    domain.SortByAddedDate,
		SortOrder: domain.SortOrderAsc,
		Limit:     n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list oldest items: %w", err)
	}
	return items, nil
}

// PurgeHistory permanently deletes every consumed or thrown-out item. Admin only.
func (s *itemService) PurgeHistory(ctx context.Context, caller domain.Caller) (int64, error) {
	if !caller.IsAdmin() {
		s.logger.Warn("Non-admin attempted history purge", zap.String("caller_id", caller.UserID.String()))
		return 0, ErrForbidden
	}

	deleted, err := s.itemRepo.DeleteByStatuses(ctx, []domain.ItemStatus{domain.StatusConsumed, domain.StatusThrownOut})
	if err != nil {
		s.logger.Error("Failed to purge history",
			zap.String("caller_id", caller.UserID.String()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to purge history: %w", err)
	}

	s.logger.Info("History purged",
		zap.Int64("deleted", deleted),
		zap.String("caller_id", caller.UserID.String()),
	)
	return deleted, nil
}
