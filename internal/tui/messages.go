package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
)

type historyLoadedMsg struct {
	err     error
	entries []model.ScanHistoryEntry
}

// loadHistory fetches the user's full history once; filtering happens locally.
func loadHistory(ctx context.Context, src HistorySource, userID string) tea.Cmd {
	return func() tea.Msg {
		summary, err := src.History(ctx, userID, history.Filter{})
		if err != nil {
			return historyLoadedMsg{err: err}
		}
		return historyLoadedMsg{entries: summary.Entries}
	}
}
