package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/auth"
)

type AuthHandler struct {
	authService auth.Authenticator
	cookies     SessionCookies
	logger      *slog.Logger
}

func NewAuthHandler(authService auth.Authenticator, cookies SessionCookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeValidation(w, details)
		return
	}

	resp, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			writeError(w, http.StatusConflict, "User already exists")
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username already taken")
		default:
			h.logger.Error("registration failed", "error", err)
			writeServerError(w, "Registration failed")
		}
		return
	}

	user := dto.NewUserDTO(resp.User)
	h.cookies.Set(w, resp.Token, user)
	writeJSON(w, http.StatusCreated, dto.AuthResponse{User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if details := req.Validate(); len(details) > 0 {
		writeValidation(w, details)
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.logger.Error("login failed", "error", err)
		writeServerError(w, "Login failed")
		return
	}

	user := dto.NewUserDTO(resp.User)
	h.cookies.Set(w, resp.Token, user)
	writeJSON(w, http.StatusOK, dto.AuthResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out successfully"})
}

// Me echoes the identity carried by the session token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, dto.UserDTO{
		ID:       middleware.GetUserID(ctx),
		Username: middleware.GetUsername(ctx),
		Email:    middleware.GetUserEmail(ctx),
	})
}
