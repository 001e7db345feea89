package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups items and supplies a default shelf-life
type Category struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	Name                  string     `json:"name" db:"name"`
	DefaultExpirationDays *int       `json:"default_expiration_days" db:"default_expiration_days"`
	IsSystem              bool       `json:"is_system" db:"is_system"`
	ImageURL              *string    `json:"image_url" db:"image_url"`
	CreatedByUserID       *uuid.UUID `json:"created_by_user_id" db:"created_by_user_id"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// ExpirationFrom returns the expiration date derived from added, or nil when
// the category carries no default shelf-life.
func (c *Category) ExpirationFrom(added time.Time) *time.Time {
	if c == nil || c.DefaultExpirationDays == nil {
		return nil
	}
	exp := added.AddDate(0, 0, *c.DefaultExpirationDays)
	return &exp
}
