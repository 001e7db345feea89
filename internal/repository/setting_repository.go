package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freezer-inventory/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("setting not found")

// settingRecord is the gorm model for the settings table
type settingRecord struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid"`
	SettingName  string     `gorm:"column:setting_name"`
	SettingValue string     `gorm:"column:setting_value"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (settingRecord) TableName() string {
	return "settings"
}

func (s *settingRecord) toDomain() *domain.Setting {
	return &domain.Setting{UserID: s.UserID, Name: s.SettingName, Value: s.SettingValue}
}

// SettingRepository defines the interface for scoped setting storage
type SettingRepository interface {
	Get(ctx context.Context, scope domain.SettingScope, name string) (*domain.Setting, error)
	List(ctx context.Context, scope domain.SettingScope) ([]*domain.Setting, error)
	Upsert(ctx context.Context, scope domain.SettingScope, values map[string]string) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new instance of SettingRepository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func scoped(db *gorm.DB, scope domain.SettingScope) *gorm.DB {
	if userID, ok := scope.UserID(); ok {
		return db.Where("user_id = ?", userID)
	}
	return db.Where("user_id IS NULL")
}

func scopeOwner(scope domain.SettingScope) *uuid.UUID {
	if userID, ok := scope.UserID(); ok {
		return &userID
	}
	return nil
}

// Get returns the stored setting or ErrSettingNotFound
func (r *settingRepository) Get(ctx context.Context, scope domain.SettingScope, name string) (*domain.Setting, error) {
	var record settingRecord
	err := scoped(r.db.WithContext(ctx), scope).Where("setting_name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return record.toDomain(), nil
}

// List returns every stored setting in scope ordered by name
func (r *settingRepository) List(ctx context.Context, scope domain.SettingScope) ([]*domain.Setting, error) {
	var records []settingRecord
	if err := scoped(r.db.WithContext(ctx), scope).Order("setting_name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	settings := make([]*domain.Setting, 0, len(records))
	for i := range records {
		settings = append(settings, records[i].toDomain())
	}
	return settings, nil
}

// Upsert writes every name/value pair in one transaction
func (r *settingRepository) Upsert(ctx context.Context, scope domain.SettingScope, values map[string]string) error {
	owner := scopeOwner(scope)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, value := range values {
			record := settingRecord{UserID: owner, SettingName: name, SettingValue: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "setting_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
			}).Create(&record).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}
