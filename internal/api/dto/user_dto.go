package dto

import (
	"time"

	"github.com/spec-kit/violation-service/internal/domain"
)

// UserRegisterRequest payload for citizen self-registration.
type UserRegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	NumberPlate *string `json:"numberPlate"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// CreateUserRequest is the administrative account creation payload.
type CreateUserRequest struct {
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Password      string          `json:"password"`
	NumberPlate   *string         `json:"numberPlate"`
	Role          domain.UserRole `json:"role"`
	Phone         *string         `json:"phone"`
	Address       *string         `json:"address"`
	Notes         *string         `json:"notes"`
	EmailVerified bool            `json:"emailVerified"`
}

// UpdateUserRequest carries optional account changes.
type UpdateUserRequest struct {
	Name          *string          `json:"name"`
	Email         *string          `json:"email"`
	Password      *string          `json:"password"`
	NumberPlate   *string          `json:"numberPlate"`
	Role          *domain.UserRole `json:"role"`
	Phone         *string          `json:"phone"`
	Address       *string          `json:"address"`
	Notes         *string          `json:"notes"`
	EmailVerified *bool            `json:"emailVerified"`
	PhoneVerified *bool            `json:"phoneVerified"`
}

// UserActionRequest applies an action to one account.
type UserActionRequest struct {
	Action domain.UserAction `json:"action"`
	Reason string            `json:"reason"`
}

// BulkUserActionRequest applies an action to many accounts.
type BulkUserActionRequest struct {
	UserIDs []string          `json:"userIds"`
	Action  domain.UserAction `json:"action"`
	Reason  string            `json:"reason"`
}
