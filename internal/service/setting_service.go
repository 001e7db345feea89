package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/repository"

	"github.com/google/uuid"
)

const maxSettingNameLength = 100

// SettingService defines the interface for scoped settings. A user may read and
// write only their own scope; the system scope and other users require an admin.
type SettingService interface {
	Get(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name string) (string, error)
	GetAll(ctx context.Context, caller domain.Caller, scope domain.SettingScope) (map[string]string, error)
	Set(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name, value string) error
	SetMany(ctx context.Context, caller domain.Caller, scope domain.SettingScope, values map[string]any) (map[string]string, error)
	TrackHistory(ctx context.Context, userID uuid.UUID) (bool, error)
}

type settingService struct {
	settingRepo repository.SettingRepository
}

// NewSettingService creates a new instance of SettingService
func NewSettingService(settingRepo repository.SettingRepository) SettingService {
	return &settingService{settingRepo: settingRepo}
}

func authorizeScope(caller domain.Caller, scope domain.SettingScope) error {
	if caller.IsAdmin() {
		return nil
	}
	if userID, ok := scope.UserID(); ok && userID == caller.UserID {
		return nil
	}
	return ErrForbidden
}

func validateSettingName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newValidationError("setting_name", "is required")
	}
	if len(name) > maxSettingNameLength {
		return newValidationError("setting_name", "is too long")
	}
	return nil
}

// Get returns the stored value, or the documented default when none was written
func (s *settingService) Get(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name string) (string, error) {
	if err := authorizeScope(caller, scope); err != nil {
		return "", err
	}
	if err := validateSettingName(name); err != nil {
		return "", err
	}
	return s.get(ctx, scope, name)
}

func (s *settingService) get(ctx context.Context, scope domain.SettingScope, name string) (string, error) {
	setting, err := s.settingRepo.Get(ctx, scope, name)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return domain.DefaultSetting(name), nil
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return setting.Value, nil
}

// GetAll returns every stored value in scope merged over the defaults
func (s *settingService) GetAll(ctx context.Context, caller domain.Caller, scope domain.SettingScope) (map[string]string, error) {
	if err := authorizeScope(caller, scope); err != nil {
		return nil, err
	}

	stored, err := s.settingRepo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	result := make(map[string]string, len(domain.DefaultSettings)+len(stored))
	for name, value := range domain.DefaultSettings {
		result[name] = value
	}
	for _, setting := range stored {
		result[setting.Name] = setting.Value
	}
	return result, nil
}

func (s *settingService) Set(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name, value string) error {
	if err := authorizeScope(caller, scope); err != nil {
		return err
	}
	if err := validateSettingName(name); err != nil {
		return err
	}
	if err := s.settingRepo.Upsert(ctx, scope, map[string]string{name: value}); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// SetMany upserts every entry, storing each value's string form, and returns
// what was written.
func (s *settingService) SetMany(ctx context.Context, caller domain.Caller, scope domain.SettingScope, values map[string]any) (map[string]string, error) {
	if err := authorizeScope(caller, scope); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, newValidationError("settings", "no settings provided")
	}

	encoded := make(map[string]string, len(values))
	for name, value := range values {
		if err := validateSettingName(name); err != nil {
			return nil, err
		}
		str, err := settingString(value)
		if err != nil {
			return nil, newValidationError(name, "value cannot be stored")
		}
		encoded[name] = str
	}

	if err := s.settingRepo.Upsert(ctx, scope, encoded); err != nil {
		return nil, fmt.Errorf("failed to set settings: %w", err)
	}
	return encoded, nil
}

// TrackHistory reports whether userID wants consumed and thrown-out items
// listed. A stored value that is not a boolean disables history.
func (s *settingService) TrackHistory(ctx context.Context, userID uuid.UUID) (bool, error) {
	value, err := s.get(ctx, domain.UserScope(userID), domain.SettingTrackHistory)
	if err != nil {
		return false, err
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}

func settingString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, float64, json.Number:
		return fmt.Sprint(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
