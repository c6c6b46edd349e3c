package dto

import (
	"strings"

	"github.com/hugh/lead-hunter/internal/api/validation"
	"github.com/hugh/lead-hunter/internal/database/models"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r *RegisterRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return validation.Struct(r)
}

// UpdateUserRequest carries optional account changes; absent fields are kept.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitnil,min=3,max=32,username"`
	Email    *string `json:"email,omitempty" validate:"omitnil,email,max=254"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=8,max=72"`
}

func (r *UpdateUserRequest) Validate() map[string]string {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
	return validation.Struct(r)
}

type CheckUsernameRequest struct {
	Username string `json:"username"`
}

type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Email: u.Email}
}

type AuthResponse struct {
	User UserDTO `json:"user"`
}
