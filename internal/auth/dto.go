package auth

import (
	"github.com/casadaesfiha/storefront-backend/internal/users"
)

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	FullName string  `json:"full_name" validate:"required,max=160"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries customer or admin credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges an expired access token plus its refresh token
// for a fresh pair.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is an access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is the session handed to a signed-in user.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
