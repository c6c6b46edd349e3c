package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hugh/lead-hunter/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// UpdateUserInput holds optional account changes; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)

	// Check if user exists
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up email: %w", err)
	}

	taken, err := s.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return count > 0, nil
}

func (s *Service) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Username != nil && *input.Username != user.Username {
		taken, err := s.UsernameTaken(ctx, *input.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		updates["username"] = *input.Username
	}
	if input.Email != nil && *input.Email != user.Email {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ? AND id <> ?", *input.Email, id).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if count > 0 {
			return nil, ErrUserExists
		}
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the user and every lead they own in one transaction.
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Lead{}).Error; err != nil {
			return fmt.Errorf("deleting leads: %w", err)
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("deleting user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
