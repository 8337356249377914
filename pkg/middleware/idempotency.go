package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// IdempotencyStore keeps replayable responses for POST requests carrying an Idempotency-Key.
// Get returns "" with a nil error when the key is unknown. Reserve claims a key for the request
// in flight (SET NX); Release drops a claim that produced no replayable response.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const inFlightMarker = "in-flight"

var (
	// inFlightTTL bounds a claim whose owner died before answering.
	inFlightTTL = time.Minute

	// A duplicate waits up to replayWait for the first request to finish.
	replayWait = 10 * time.Second
	replayPoll = 50 * time.Millisecond

	errStillBusy = errors.New("idempotent request still in flight")
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func IdempotencyMiddleware(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Scope by caller and path so a key never replays someone else's response.
			caller := fmt.Sprint(r.Context().Value(logger.EmployeeIDKey))
			sum := sha256.Sum256([]byte(caller + "|" + r.URL.Path + "|" + key))
			hashedKey := fmt.Sprintf("idempotency:%x", sum)

			// A second attempt covers a first request that released its claim without a response.
			owned := false
			for attempt := 0; attempt < 2 && !owned; attempt++ {
				ok, err := store.Reserve(r.Context(), hashedKey, inFlightTTL)
				if err != nil {
					logger.WarnContext(r.Context(), "Idempotency reservation failed", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				if ok {
					owned = true
					break
				}

				existing, err := awaitResponse(r.Context(), store, hashedKey)
				if err != nil {
					logger.WarnContext(r.Context(), "Idempotent request not replayed", "error", err)
					writeInProgress(w)
					return
				}
				if existing != "" {
					if !replay(w, existing) {
						writeInProgress(w)
					}
					return
				}
			}
			if !owned {
				writeInProgress(w)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			ctx := context.WithoutCancel(r.Context())
			if recorder.statusCode >= 200 && recorder.statusCode < 300 {
				payload, _ := json.Marshal(cachedResponse{Status: recorder.statusCode, Body: string(recorder.body)})
				if err := store.Set(ctx, hashedKey, string(payload), ttl); err != nil {
					logger.WarnContext(ctx, "Failed to store idempotent response", "error", err)
				}
				return
			}
			if err := store.Release(ctx, hashedKey); err != nil {
				logger.WarnContext(ctx, "Failed to release idempotency key", "error", err)
			}
		})
	}
}

// awaitResponse polls until the claim on key turns into a stored response ("" when the claim
// was released or expired instead).
func awaitResponse(ctx context.Context, store IdempotencyStore, key string) (string, error) {
	deadline := time.NewTimer(replayWait)
	defer deadline.Stop()
	ticker := time.NewTicker(replayPoll)
	defer ticker.Stop()

	for {
		val, err := store.Get(ctx, key)
		if err != nil {
			return "", err
		}
		if val != inFlightMarker {
			return val, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", errStillBusy
		case <-ticker.C:
		}
	}
}

func replay(w http.ResponseWriter, stored string) bool {
	var cached cachedResponse
	if err := json.Unmarshal([]byte(stored), &cached); err != nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.Status)
	w.Write([]byte(cached.Body))
	return true
}

func writeInProgress(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusConflict)
	w.Write([]byte(`{"error":"A request with this Idempotency-Key is still in progress.","code":"IDEMPOTENCY_IN_PROGRESS"}`))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}

// RedisIdempotencyStore implements IdempotencyStore on Redis strings with expiry.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
}

func NewRedisIdempotencyStore(client redis.UniversalClient) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, inFlightMarker, ttl).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
