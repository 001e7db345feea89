package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle state of an item
type ItemStatus string

const (
	StatusInFreezer ItemStatus = "in_freezer"
	StatusConsumed  ItemStatus = "consumed"
	StatusThrownOut ItemStatus = "thrown_out"

	// StatusFilterAll disables status filtering when listing items
	StatusFilterAll = "all"

	DefaultWeightUnit = "lb"

	// LabelPrefix is prepended to an item code in printed QR labels
	LabelPrefix = "freezer-item:"
)

// LabelContent is the text a printed QR label for code encodes
func LabelContent(code string) string {
	return LabelPrefix + code
}

// IsValid reports whether s is one of the three lifecycle states
func (s ItemStatus) IsValid() bool {
	switch s {
	case StatusInFreezer, StatusConsumed, StatusThrownOut:
		return true
	}
	return false
}

// IsRemoved reports whether s means the item has left the freezer
func (s ItemStatus) IsRemoved() bool {
	return s == StatusConsumed || s == StatusThrownOut
}

// Item is a tracked unit of frozen food
type Item struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Code           string     `json:"qr_code" db:"qr_code"`
	ProductCode    *string    `json:"upc" db:"upc"`
	ImageURL       *string    `json:"image_url" db:"image_url"`
	Name           string     `json:"name" db:"name"`
	Source         *string    `json:"source" db:"source"`
	Weight         *float64   `json:"weight" db:"weight"`
	WeightUnit     string     `json:"weight_unit" db:"weight_unit"`
	CategoryID     *uuid.UUID `json:"category_id" db:"category_id"`
	CategoryName   *string    `json:"category_name" db:"-"`
	AddedDate      time.Time  `json:"added_date" db:"added_date"`
	ExpirationDate *time.Time `json:"expiration_date" db:"expiration_date"`
	Status         ItemStatus `json:"status" db:"status"`
	RemovedDate    *time.Time `json:"removed_date" db:"removed_date"`
	Notes          *string    `json:"notes" db:"notes"`
	AddedByUserID  *uuid.UUID `json:"added_by_user_id" db:"added_by_user_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// SetStatus moves the item to status and keeps RemovedDate consistent with it.
func (i *Item) SetStatus(status ItemStatus, now time.Time) {
	i.Status = status
	if status.IsRemoved() {
		removed := now
		i.RemovedDate = &removed
	} else {
		i.RemovedDate = nil
	}
	i.UpdatedAt = now
}
