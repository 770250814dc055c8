package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the history browser for userID and blocks until the user quits
// or ctx is canceled.
func Run(ctx context.Context, src HistorySource, userID string, opts ...Option) error {
	if src == nil {
		return fmt.Errorf("history source is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := tea.NewProgram(newModel(ctx, src, userID, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("history browser failed: %w", err)
	}
	return nil
}
