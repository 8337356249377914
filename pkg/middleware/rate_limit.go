package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
}

// RateLimiter counts requests per key in fixed Redis windows.
type RateLimiter struct {
	client redis.UniversalClient
	config RateLimitConfig
}

func NewRateLimiter(client redis.UniversalClient, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc
	}
	return &RateLimiter{client: client, config: config}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				if !rl.Allow(r.Context(), key) {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.Window.Seconds())))
					w.WriteHeader(http.StatusTooManyRequests)
					w.Write([]byte(`{"error":"Too many requests. Try again later.","code":"RATE_LIMIT_EXCEEDED"}`))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allow increments the counter for key and reports whether it is still within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	sum := sha256.Sum256([]byte(key))
	hashedKey := fmt.Sprintf("ratelimit:%x", sum)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, hashedKey)
		pipe.ExpireNX(ctx, hashedKey, rl.config.Window)
		return nil
	})
	if err != nil {
		// fail open
		logger.WarnContext(ctx, "Rate limiter unavailable", "error", err)
		return true
	}

	return incr.Val() <= int64(rl.config.Requests)
}

// ClientIPKeyFunc limits by client address.
func ClientIPKeyFunc(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
