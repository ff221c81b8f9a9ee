// Package relay is the backend HTTP server that forwards chat exchanges to
// the Databricks Genie API, attaching workspace credentials on the way out.
//
// Endpoints:
//   - POST /api/genie/send-message - one chat exchange (see internal/chat wire types)
//   - GET  /api/genie/health       - Genie space reachability report
//   - GET  /health                 - liveness probe, outside the middleware stack
package relay

import (
	"errors"
	"log/slog"
	"net/http"
)

// ServerConfig contains configuration for creating the relay server.
type ServerConfig struct {
	Logger      *slog.Logger
	Genie       Genie    // Required
	CORSOrigins []string // Allowed origins for CORS (empty disables CORS headers)
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int      // Rate limiter burst size per IP (0 = default 30)
}

// Server is the relay HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new relay server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Genie == nil {
		return nil, errors.New("genie client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		genie:  cfg.Genie,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/genie/send-message", ch.sendMessage)
	mux.HandleFunc("GET /api/genie/health", ch.genieHealth)

	// Per-IP token bucket, 1 token/sec refill (see ratelimit.go for sizing)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to separate the liveness probe from the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
