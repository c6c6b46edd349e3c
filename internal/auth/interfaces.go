package auth

import (
	"context"

	"github.com/hugh/lead-hunter/internal/database/models"
)

// Authenticator defines the interface for user authentication operations.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// AccountManager covers the self-service account endpoints.
type AccountManager interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	GenerateToken(userID uint, username, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator  = (*Service)(nil)
	_ AccountManager = (*Service)(nil)
	_ TokenService   = (*JWTService)(nil)
)
