package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/lead-hunter/internal/api/dto"
	"github.com/hugh/lead-hunter/internal/api/handlers"
	"github.com/hugh/lead-hunter/internal/api/middleware"
	"github.com/hugh/lead-hunter/internal/auth"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB          *gorm.DB
	Redis       redis.UniversalClient // optional
	Logger      *slog.Logger
	JWTService  *auth.JWTService
	AuthService *auth.Service
	Leads       leads.Store
	Cookies     handlers.SessionCookies

	// ImportQueue and ImportStatus are optional; without a queue imports run inline.
	ImportQueue  handlers.ImportQueue
	ImportStatus handlers.ImportStatusReader

	ClientURLs []string           // CORS allowed origins
	Limiter    middleware.Limiter // nil disables rate limiting
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(metrics.Middleware)

	allowedOrigins := cfg.ClientURLs
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Cookies, cfg.Logger)
	userHandler := handlers.NewUserHandler(cfg.AuthService, cfg.JWTService, cfg.Cookies, cfg.Logger)
	leadHandler := handlers.NewLeadHandler(cfg.Leads, cfg.ImportQueue, cfg.ImportStatus, cfg.Logger)

	requireAuth := middleware.Auth(cfg.JWTService)

	// Probes and metrics are not rate limited
	r.Get("/", healthHandler.Welcome)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.Limiter))
		}

		r.Get("/test", healthHandler.Test)
		r.Get("/healthz", healthHandler.Healthz)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Post("/check-username", userHandler.CheckUsername)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Route("/lead", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", leadHandler.List)
			r.Post("/", leadHandler.Create)
			r.Delete("/", leadHandler.BulkDelete)
			r.Post("/bulk", leadHandler.BulkCreate)
			r.Post("/import", leadHandler.Import)
			r.Get("/import/{taskID}", leadHandler.ImportStatus)
			r.Get("/export", leadHandler.Export)
			r.Get("/{id}", leadHandler.Get)
			r.Put("/{id}", leadHandler.Update)
			r.Delete("/{id}", leadHandler.Delete)
		})

		r.NotFound(routeNotFound)
	})

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	return &Router{r}
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Message: "Route not found"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
