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

// DefaultCategoryExpirationDays applies when a category is created without a shelf-life
const DefaultCategoryExpirationDays = 180

// CreateCategoryInput is the payload for a new category. An explicit null
// expiration disables auto-expiration; an absent one uses the default.
type CreateCategoryInput struct {
	Name                  string               `json:"name" validate:"required,max=100"`
	DefaultExpirationDays domain.Optional[int] `json:"default_expiration_days"`
	ImageURL              *string              `json:"image_url" validate:"omitempty,max=500"`
}

// UpdateCategoryInput carries only the fields to change
type UpdateCategoryInput struct {
	Name                  domain.Optional[string] `json:"name"`
	DefaultExpirationDays domain.Optional[int]    `json:"default_expiration_days"`
	ImageURL              domain.Optional[string] `json:"image_url"`
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, caller domain.Caller, input CreateCategoryInput) (*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input UpdateCategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validateExpirationDays(days *int) error {
	if days != nil && *days < 0 {
		return newValidationError("default_expiration_days", "must be zero or greater")
	}
	return nil
}

// Create adds a non-system category
func (s *categoryService) Create(ctx context.Context, caller domain.Caller, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}

	days := input.DefaultExpirationDays.Value
	if !input.DefaultExpirationDays.Set {
		d := DefaultCategoryExpirationDays
		days = &d
	}
	if err := validateExpirationDays(days); err != nil {
		return nil, err
	}

	now := s.now()
	creator := caller.UserID
	category := &domain.Category{
		ID:                    uuid.New(),
		Name:                  name,
		DefaultExpirationDays: days,
		IsSystem:              false,
		ImageURL:              input.ImageURL,
		CreatedByUserID:       &creator,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// List returns all categories ordered by name
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Update applies a partial update. System categories require an admin.
func (s *categoryService) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if category.IsSystem && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, newValidationError("name", "is required")
		}
		category.Name = strings.TrimSpace(*input.Name.Value)
	}
	if input.DefaultExpirationDays.Set {
		if err := validateExpirationDays(input.DefaultExpirationDays.Value); err != nil {
			return nil, err
		}
		category.DefaultExpirationDays = input.DefaultExpirationDays.Value
	}
	if input.ImageURL.Set {
		category.ImageURL = input.ImageURL.Value
	}
	category.UpdatedAt = s.now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryAlreadyExists):
			return nil, ErrDuplicateName
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// Delete removes a category. A category still referenced by items is kept
// whoever asks; otherwise only admins may delete, and never a system category.
func (s *categoryService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.categoryRepo.CountItems(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count category items: %w", err)
	}
	if count > 0 {
		return ErrHasDependents
	}

	if !caller.IsAdmin() {
		s.logger.Warn("Non-admin attempted category delete",
			zap.String("category_id", id.String()),
			zap.String("caller_id", caller.UserID.String()),
		)
		return ErrForbidden
	}

	if category.IsSystem {
		return ErrProtectedCategory
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete category",
			zap.String("category_id", id.String()),
			zap.String("caller_id", caller.UserID.String()),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("Category deleted",
		zap.String("category_id", id.String()),
		zap.String("name", category.Name),
		zap.String("caller_id", caller.UserID.String()),
	)
	return nil
}
