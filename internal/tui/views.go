package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/binwise/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func columns(width int) []table.Column {
	item := max(width-70, 16)
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Item", Width: item},
		{Title: "Category", Width: 10},
		{Title: "Weight", Width: 8},
		{Title: "Points", Width: 6},
		{Title: "Value", Width: 10},
		{Title: "Status", Width: 10},
	}
}

func rows(entries []model.ScanHistoryEntry) []table.Row {
	out := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		out = append(out, table.Row{
			e.Timestamp.Local().Format(timeLayout),
			e.Result.ItemName,
			e.Result.Category.String(),
			fmt.Sprintf("%.2f kg", e.WeightKg),
			fmt.Sprintf("%d", e.PointsEarned),
			fmt.Sprintf("Rp %.0f", e.EstimatedValue()),
			string(e.ProcessingStatus),
		})
	}
	return out
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == StateLoading {
		return m.theme.StatusPending.Render("Loading scan history...")
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("♻️  Scan history · " + m.userID))
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.theme.StatusError.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.summary.Count == 0 {
		b.WriteString(m.theme.StatusPending.Render("No scans match the current filters."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) renderFilters() string {
	category := "All"
	if f := m.Filter(); f.Category != nil {
		color := lipgloss.Color(f.Category.Color())
		category = lipgloss.NewStyle().Foreground(color).Bold(true).Render(f.Category.String())
	}

	search := m.theme.Subtitle.Render("(none)")
	if m.state == StateSearching {
		search = m.search.View()
	} else if v := m.search.Value(); v != "" {
		search = m.theme.FilterActive.Render(fmt.Sprintf("%q", v))
	}

	return fmt.Sprintf("Category: %s   Search: %s", category, search)
}

func (m Model) renderFooter() string {
	s := m.summary
	line := fmt.Sprintf("%d scans · %.2f kg · Rp %.0f", s.Count, s.TotalWeightKg, s.TotalValue)

	parts := make([]string, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		parts = append(parts, fmt.Sprintf("%s %d", c.Category, c.Count))
	}
	if len(parts) > 0 {
		line += "   " + strings.Join(parts, " · ")
	}
	return m.theme.Footer.Width(max(m.width-2, 20)).Render(line)
}
