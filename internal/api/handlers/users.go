package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/auth"
	"github.com/hugh/lead-hunter/internal/database/models"
)

// AccountService is the subset of auth.Service the account endpoints use.
type AccountService interface {
	auth.AccountManager
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type UserHandler struct {
	accounts AccountService
	tokens   auth.TokenService
	cookies  SessionCookies
	logger   *slog.Logger
}

func NewUserHandler(accounts AccountService, tokens auth.TokenService, cookies SessionCookies, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, tokens: tokens, cookies: cookies, logger: logger}
}

// self resolves the {id} parameter and reports false, having already written
// a 404, when it is not the caller's own id.
func (h *UserHandler) self(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok || id != middleware.GetUserID(r.Context()) {
		writeError(w, http.StatusNotFound, "User not found")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to fetch user", "user_id", id, "error", err)
		writeServerError(w, "Failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if details := req.Validate(); len(details) > 0 {
		writeValidation(w, details)
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), id, auth.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, auth.ErrUserExists):
			writeError(w, http.StatusConflict, "Email already in use")
		default:
			h.logger.Error("failed to update user", "user_id", id, "error", err)
			writeServerError(w, "Failed to update user")
		}
		return
	}

	profile := dto.NewUserDTO(user)

	// the token embeds username and email, so reissue it
	token, err := h.tokens.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		h.logger.Error("failed to reissue token", "user_id", id, "error", err)
		writeServerError(w, "Failed to update user")
		return
	}
	h.cookies.Set(w, token, profile)

	writeJSON(w, http.StatusOK, dto.AuthResponse{User: profile})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.self(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to delete user", "user_id", id, "error", err)
		writeServerError(w, "Failed to delete user")
		return
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "User deleted"})
}

func (h *UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckUsernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	taken, err := h.accounts.UsernameTaken(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to check username", "error", err)
		writeServerError(w, "Failed to check username")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Username available"})
}
