package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CookieConfig struct {
	Domain string
}

type CORSConfig struct {
	ClientURLs []string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type WorkerConfig struct {
	Concurrency int
}

type TracingConfig struct {
	Endpoint string
}

// DSN returns DATABASE_URL verbatim when set, else a key/value DSN built from the parts.
func (d *DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a redis host is configured at all.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 4000)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "leads")
	v.SetDefault("DATABASE_PASSWORD", "leads_secret")
	v.SetDefault("DATABASE_NAME", "leads")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("DATABASE_URL"),
			Host:         v.GetString("DATABASE_HOST"),
			Port:         v.GetInt("DATABASE_PORT"),
			User:         v.GetString("DATABASE_USER"),
			Password:     v.GetString("DATABASE_PASSWORD"),
			Name:         v.GetString("DATABASE_NAME"),
			SSLMode:      v.GetString("DATABASE_SSLMODE"),
			AutoMigrate:  v.GetBool("DATABASE_AUTO_MIGRATE"),
			MaxOpenConns: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DATABASE_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Cookie: CookieConfig{
			Domain: v.GetString("COOKIE_DOMAIN"),
		},
		CORS: CORSConfig{
			ClientURLs: splitList(v.GetString("CLIENT_URL")),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Tracing: TracingConfig{
			Endpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if !cfg.Server.IsDevelopment() && cfg.JWT.Secret == "change-me-in-production" {
		return nil, fmt.Errorf("JWT_SECRET must be set outside development")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
