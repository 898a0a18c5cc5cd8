package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"

	"github.com/zolve/advisor/internal/client"
	"github.com/zolve/advisor/internal/config"
	"github.com/zolve/advisor/internal/tui"
)

// runChat starts the interactive terminal chat against a running server.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api := client.New(cfg.BaseURL)

	model, err := tui.New(ctx, api)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
