package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/geniechat/geniechat/internal/chat"
	"github.com/geniechat/geniechat/internal/config"
	"github.com/geniechat/geniechat/internal/session"
	"github.com/geniechat/geniechat/internal/tui"
)

// runChat initializes and starts the interactive chat with Bubble Tea TUI.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	sess := session.New()
	client, err := chat.NewClient(cfg.RelayURL, logger)
	if err != nil {
		return fmt.Errorf("creating relay client: %w", err)
	}
	controller, err := chat.NewController(sess, client, logger)
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	model, err := tui.New(ctx, sess, controller)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
