package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geniechat/geniechat/internal/config"
	"github.com/geniechat/geniechat/internal/genie"
	"github.com/geniechat/geniechat/internal/observability"
	"github.com/geniechat/geniechat/internal/relay"
)

// parseRateBurst reads GENIECHAT_RATE_BURST from the environment.
// Returns 0 (use default) if unset or invalid.
func parseRateBurst() int {
	v := os.Getenv("GENIECHAT_RATE_BURST")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 10 * time.Minute // Genie polls until completion; responses can take minutes
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the relay HTTP server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting relay server", "version", Version)

	shutdownTracing, err := observability.Setup(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if flushErr := shutdownTracing(flushCtx); flushErr != nil {
			logger.Warn("trace flush error", "error", flushErr)
		}
	}()

	genieClient := genie.New(genie.ClientConfig{
		Host:         cfg.DatabricksHost,
		Token:        cfg.DatabricksToken,
		SpaceID:      cfg.GenieSpaceID,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.ExchangeTimeout,
		Logger:       logger,
	})
	if !genieClient.Configured() {
		logger.Warn("Databricks workspace not fully configured; exchanges will fail until DATABRICKS_HOST, DATABRICKS_TOKEN, and DATABRICKS_GENIE_SPACE_ID are set")
	}

	relayServer, err := relay.NewServer(relay.ServerConfig{
		Logger:      logger,
		Genie:       genieClient,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   parseRateBurst(),
	})
	if err != nil {
		return fmt.Errorf("creating relay server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           relayServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("relay server ready",
		"addr", addr,
		"api", "/api/genie/*",
		"health", "/health",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down relay server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
