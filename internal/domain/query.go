package domain

import (
	"time"

	"github.com/google/uuid"
)

// SortField is a column items can be ordered by
type SortField string

const (
	SortByAddedDate      SortField = "added_date"
	SortByExpirationDate SortField = "expiration_date"
	SortByName           SortField = "name"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ItemQuery holds the caller-supplied listing parameters
type ItemQuery struct {
	Status     string
	Search     string
	CategoryID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     SortField
	SortOrder  SortOrder
}

// ItemFilter is the resolved filter handed to storage. A nil Status means
// items of every status are returned.
type ItemFilter struct {
	Status          *ItemStatus
	Search          string
	CategoryID      *uuid.UUID
	AddedFrom       *time.Time
	AddedTo         *time.Time
	ExpiringBefore  *time.Time
	RequireExpiring bool
	SortBy          SortField
	SortOrder       SortOrder
	Limit           int
}
