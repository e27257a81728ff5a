package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/novapay/remit/internal/usecase"
)

// IdempotencyKeyHeader carries the caller-chosen key for replay-safe
// mutating requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// inFlightResponse is the placeholder the store holds while the first
// request with a key is still executing.
const inFlightResponse = "processing"

// IdempotencyMiddleware makes mutating endpoints replay-safe. The
// first request with a key executes and its successful response is
// stored; replays get the stored response back with a marker header; a
// key whose first request is still running is rejected instead of
// executed a second time.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware keeping
// responses replayable for ttl.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		seen, stored, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if seen {
			if len(stored) == 0 || string(stored) == inFlightResponse {
				http.Error(w, "request with this idempotency key is still in flight", http.StatusConflict)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replay", "true")
			_, _ = w.Write(stored)

			return
		}

		rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only successful responses are worth replaying; a failed
		// request releases the key so the caller may retry it.
		if rec.status >= 200 && rec.status < 300 {
			_ = m.store.Update(r.Context(), key, rec.body.Bytes(), m.ttl)
		} else {
			_ = m.store.Release(r.Context(), key)
		}
	})
}

type bodyRecorder struct {
	http.ResponseWriter

	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)

	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
