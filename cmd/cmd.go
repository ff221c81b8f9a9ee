// Package cmd provides CLI commands for geniechat.
//
// Commands:
//   - chat: Interactive terminal chat with Bubble Tea TUI
//   - serve: HTTP relay server forwarding exchanges to Databricks Genie
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the geniechat CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "chat":
		return runChat()
	case "serve":
		return runServe()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("geniechat - Chat with Databricks Genie from your terminal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  geniechat chat          Start interactive chat mode")
	fmt.Println("  geniechat serve [addr]  Start the relay server (default: 127.0.0.1:8400)")
	fmt.Println("  geniechat --version     Show version information")
	fmt.Println("  geniechat --help        Show this help")
	fmt.Println()
	fmt.Println("Chat Commands (in interactive mode):")
	fmt.Println("  /help              Show available commands")
	fmt.Println("  /sql               Show/hide the SQL behind the latest answer")
	fmt.Println("  /exit, /quit       Exit geniechat")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABRICKS_HOST            Workspace URL (serve)")
	fmt.Println("  DATABRICKS_TOKEN           Personal access token (serve)")
	fmt.Println("  DATABRICKS_GENIE_SPACE_ID  Genie space to converse with (serve)")
	fmt.Println("  GENIE_RELAY_URL            Relay base URL (chat)")
	fmt.Println("  DEBUG                      Optional: Enable debug logging")
}
