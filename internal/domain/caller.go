package domain

import "github.com/google/uuid"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Caller is the verified identity performing an operation
type Caller struct {
	UserID uuid.UUID
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
