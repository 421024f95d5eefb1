package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is a platform-wide role, distinct from space roles
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents a platform user
type User struct {
	ID             uuid.UUID  `json:"id"`
	Phone          string     `json:"phone"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"-"`
	Role           UserRole   `json:"role"`
	IsVerified     bool       `json:"is_verified"`
	DefaultSpaceID *uuid.UUID `json:"default_space_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UserPublic is the part of a user other members may see
type UserPublic struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Phone    string `json:"phone" validate:"required,e164"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
