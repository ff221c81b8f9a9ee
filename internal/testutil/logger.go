// Package testutil provides shared helpers for tests.
package testutil

import (
	"log/slog"
)

// DiscardLogger returns a slog.Logger that discards all output.
// This is the standard library pattern for test loggers.
//
// Use this in tests to reduce noise. For components that use log.Logger
// (which is a type alias for *slog.Logger), use log.NewNop() directly.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
