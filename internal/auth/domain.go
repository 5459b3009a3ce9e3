package auth

import (
	"time"

	"github.com/shiftgate/shiftgate/internal/shared"
)

// User is an account in the staff directory. ManagerID is set for care
// workers and nil for managers.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         shared.Role
	ManagerID    *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=200"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,oneof=MANAGER CARE_WORKER"`
	ManagerID *int64 `json:"manager_id,omitempty" validate:"omitempty,gt=0"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned on successful register/login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// Profile is the public shape of a user.
type Profile struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      shared.Role `json:"role"`
	ManagerID *int64      `json:"manager_id,omitempty"`
	IsActive  bool        `json:"is_active"`
}

// ProfileOf converts a stored user into its public shape.
func ProfileOf(u User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		ManagerID: u.ManagerID,
		IsActive:  u.IsActive,
	}
}
