package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time)
	Limit() int
}

// RateLimiter is an in-process sliding window limiter.
type RateLimiter struct {
	requests      int
	window        time.Duration
	clients       map[string]*clientWindow
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	done          chan struct{}
}

type clientWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
}

func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		requests: requests,
		window:   window,
		clients:  make(map[string]*clientWindow),
		done:     make(chan struct{}),
	}

	rl.cleanupTicker = time.NewTicker(time.Minute)
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) Limit() int { return rl.requests }

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
	close(rl.done)
}

// cleanup drops clients with no activity in the last two windows
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTicker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		for key, client := range rl.clients {
			client.mu.Lock()
			if len(client.timestamps) == 0 || now.Sub(client.timestamps[len(client.timestamps)-1]) > rl.window*2 {
				delete(rl.clients, key)
			}
			client.mu.Unlock()
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, time.Time) {
	rl.mu.RLock()
	client, exists := rl.clients[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if client, exists = rl.clients[key]; !exists {
			client = &clientWindow{
				timestamps: make([]time.Time, 0, rl.requests),
			}
			rl.clients[key] = client
		}
		rl.mu.Unlock()
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	valid := len(client.timestamps)
	for i, ts := range client.timestamps {
		if ts.After(windowStart) {
			valid = i
			break
		}
	}
	client.timestamps = client.timestamps[valid:]

	if len(client.timestamps) >= rl.requests {
		return false, 0, client.timestamps[0].Add(rl.window)
	}

	client.timestamps = append(client.timestamps, now)
	return true, rl.requests - len(client.timestamps), now.Add(rl.window)
}

// RedisLimiter is a fixed window limiter shared by every instance pointing at
// the same redis. Redis failures let the request through.
type RedisLimiter struct {
	client   redis.UniversalClient
	requests int
	window   time.Duration
	prefix   string
	logger   *slog.Logger
}

func NewRedisLimiter(client redis.UniversalClient, requests int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:   client,
		requests: requests,
		window:   window,
		prefix:   "ratelimit:",
		logger:   logger,
	}
}

func (rl *RedisLimiter) Limit() int { return rl.requests }

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time) {
	now := time.Now()
	slot := now.UnixNano() / int64(rl.window)
	reset := time.Unix(0, (slot+1)*int64(rl.window))
	redisKey := fmt.Sprintf("%s%s:%d", rl.prefix, key, slot)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, rl.window)
		return nil
	})
	if err != nil {
		rl.logger.Warn("rate limiter unavailable, allowing request", "error", err)
		return true, rl.requests, reset
	}

	count := int(incr.Val())
	if count > rl.requests {
		return false, 0, reset
	}
	return true, rl.requests - count, reset
}

// RateLimit limits by client IP.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		return "ip:" + getClientIP(r)
	})
}

// RateLimitByUser limits by authenticated user, falling back to client IP.
func RateLimitByUser(limiter Limiter) func(http.Handler) http.Handler {
	return rateLimit(limiter, func(r *http.Request) string {
		if id := GetUserID(r.Context()); id != 0 {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
		return "ip:" + getClientIP(r)
	})
}

func rateLimit(limiter Limiter, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, resetTime := limiter.Allow(r.Context(), keyFn(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds())+1, 10))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
