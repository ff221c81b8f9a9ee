package relay

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.allow("10.0.0.1"), "burst exhausted")
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(1.0, 1)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"), "different IP has its own bucket")
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(0.0001, 1) // Effectively no refill
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rateLimitMiddleware(rl, false, slog.New(slog.DiscardHandler))(inner)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:5000",
			want:       "192.0.2.1",
		},
		{
			name:       "proxy headers ignored without trust",
			remoteAddr: "192.0.2.1:5000",
			realIP:     "198.51.100.7",
			want:       "192.0.2.1",
		},
		{
			name:       "x-real-ip preferred with trust",
			remoteAddr: "192.0.2.1:5000",
			realIP:     "198.51.100.7",
			forwarded:  "203.0.113.9",
			trustProxy: true,
			want:       "198.51.100.7",
		},
		{
			name:       "x-forwarded-for first hop",
			remoteAddr: "192.0.2.1:5000",
			forwarded:  "203.0.113.9, 198.51.100.7",
			trustProxy: true,
			want:       "203.0.113.9",
		},
		{
			name:       "invalid header value falls back",
			remoteAddr: "192.0.2.1:5000",
			realIP:     "not-an-ip",
			trustProxy: true,
			want:       "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, clientIP(r, tt.trustProxy))
		})
	}
}
