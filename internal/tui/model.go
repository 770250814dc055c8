// Package tui implements an interactive browser for a user's scan history.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/binwise/internal/history"
	"github.com/Veraticus/binwise/internal/model"
	"github.com/Veraticus/binwise/internal/tui/themes"
)

// HistorySource loads a user's scan history.
type HistorySource interface {
	History(ctx context.Context, userID string, filter history.Filter) (history.Summary, error)
}

// State represents the current input mode.
type State int

const (
	StateLoading State = iota
	StateBrowsing
	StateSearching
)

// Model holds the browser state.
type Model struct {
	ctx        context.Context
	source     HistorySource
	err        error
	theme      themes.Theme
	keymap     KeyMap
	help       help.Model
	search     textinput.Model
	table      table.Model
	userID     string
	entries    []model.ScanHistoryEntry
	summary    history.Summary
	categories []model.WasteCategory
	// categoryIndex is 0 for all categories, otherwise categories[categoryIndex-1].
	categoryIndex int
	width         int
	height        int
	state         State
	quitting      bool
}

func newModel(ctx context.Context, src HistorySource, userID string, cfg Config) Model {
	search := textinput.New()
	search.Placeholder = "search item name"
	search.Prompt = "/ "
	search.CharLimit = 64

	t := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(cfg.Height)),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header
	styles.Selected = cfg.Theme.Selected
	t.SetStyles(styles)

	categories := model.AllCategories()
	categoryIndex := 0
	if cfg.Category != nil {
		for i, c := range categories {
			if c == *cfg.Category {
				categoryIndex = i + 1
				break
			}
		}
	}

	return Model{
		ctx:           ctx,
		source:        src,
		userID:        userID,
		theme:         cfg.Theme,
		keymap:        cfg.Keys,
		help:          help.New(),
		search:        search,
		table:         t,
		categories:    categories,
		categoryIndex: categoryIndex,
		width:         cfg.Width,
		height:        cfg.Height,
		state:         StateLoading,
	}
}

// Init starts loading the history.
func (m Model) Init() tea.Cmd {
	return loadHistory(m.ctx, m.source, m.userID)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(tableHeight(m.height))
		m.help.Width = msg.Width
		return m, nil

	case historyLoadedMsg:
		m.err = msg.err
		m.entries = msg.entries
		if m.state == StateLoading {
			m.state = StateBrowsing
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.state == StateSearching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Search):
		m.state = StateSearching
		return m, m.search.Focus()
	case key.Matches(msg, m.keymap.NextCategory):
		m.categoryIndex = (m.categoryIndex + 1) % (len(m.categories) + 1)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.PrevCategory):
		m.categoryIndex = (m.categoryIndex + len(m.categories)) % (len(m.categories) + 1)
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.Clear):
		m.categoryIndex = 0
		m.search.SetValue("")
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keymap.Reload):
		return m, loadHistory(m.ctx, m.source, m.userID)
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Accept):
		m.state = StateBrowsing
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keymap.Clear):
		m.state = StateBrowsing
		m.search.SetValue("")
		m.search.Blur()
		m.refresh()
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refresh()
	return m, cmd
}

// Filter returns the filter currently applied to the history.
func (m Model) Filter() history.Filter {
	f := history.Filter{Search: m.search.Value()}
	if m.categoryIndex > 0 {
		c := m.categories[m.categoryIndex-1]
		f.Category = &c
	}
	return f
}

// Summary returns the entries and totals currently on screen.
func (m Model) Summary() history.Summary {
	return m.summary
}

func (m *Model) refresh() {
	m.summary = history.FilterAndSummarize(m.entries, m.Filter())
	m.table.SetRows(rows(m.summary.Entries))
	m.table.GotoTop()
}

func tableHeight(terminalHeight int) int {
	// title, filter line, footer and help take roughly eight lines
	return max(terminalHeight-8, 3)
}
