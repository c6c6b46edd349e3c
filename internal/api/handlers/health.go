package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hugh/lead-hunter/internal/database"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
}

// NewHealthHandler reports on db and, when rc is non-nil, redis.
func NewHealthHandler(db *gorm.DB, rc redis.UniversalClient) *HealthHandler {
	return &HealthHandler{db: db, redis: rc}
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if err := h.pingDB(ctx); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			services["redis"] = "unhealthy"
			status = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Services: services})
}

// Ready answers 200 once the database is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.pingDB(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Healthz is the liveness probe.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome to the Lead Hunter API"))
}

func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	return database.Ping(ctx, h.db)
}
