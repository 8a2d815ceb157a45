package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	AppUser UserRole = "appuser"
)

type User struct {
	UserID       uuid.UUID `json:"user_id"`
	FirstName    string    `json:"first_name" validate:"required,max=100"`
	LastName     string    `json:"last_name" validate:"required,max=100"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty" validate:"omitempty,max=15"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPayload is the authenticated identity carried by a verified JWT.
type TokenPayload struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   UserRole
}
