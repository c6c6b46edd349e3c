package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/auth"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UsernameKey  contextKey = "username"
	UserEmailKey contextKey = "user_email"
)

// TokenCookie is the session cookie set at login and registration.
const TokenCookie = "token"

func Auth(jwtService auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// 1. Session cookie set by login/register
			if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
				token = cookie.Value
			}

			// 2. Authorization header for API clients
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				if strings.HasPrefix(authHeader, "Bearer ") {
					token = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			// 3. X-Auth-Token header
			if token == "" {
				token = r.Header.Get("X-Auth-Token")
			}

			if token == "" {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				msg := "Token is not valid"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token has expired"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to extract values from context
func GetUserID(ctx context.Context) uint {
	if id, ok := ctx.Value(UserIDKey).(uint); ok {
		return id
	}
	return 0
}

func GetUsername(ctx context.Context) string {
	if name, ok := ctx.Value(UsernameKey).(string); ok {
		return name
	}
	return ""
}

func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

// WithUser returns ctx carrying an authenticated identity.
func WithUser(ctx context.Context, id uint, username, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UsernameKey, username)
	return context.WithValue(ctx, UserEmailKey, email)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{Message: message})
}
