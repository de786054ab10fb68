package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/nyaya/internal/listing"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/render"
)

const help = "↑/↓ move • enter open • / filter • tab next field • c court • x clear • b bookmark • r retry • q quit"

// View renders the browser
func (m Model) View() string {
	sections := []string{m.header()}
	if m.detail && m.cursor < len(m.snap.Items) {
		sections = append(sections, render.JudgmentCard(m.styles, m.snap.Items[m.cursor], min(m.width-2, 100)))
	} else {
		sections = append(sections, m.rows())
	}
	sections = append(sections, m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) header() string {
	title := "High Court judgments"
	if m.snap.Filters != nil && m.snap.Filters.Kind() == model.KindSupremeCourt {
		title = "Supreme Court judgments"
	}
	line := m.styles.Title.Render("nyaya · " + title)

	if m.filtering {
		m.input.Prompt = m.field + ": "
		return lipgloss.JoinVertical(lipgloss.Left, line, m.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, m.styles.Muted.Render(describeFilters(m.snap.Filters)))
}

func describeFilters(f model.Filters) string {
	if f == nil {
		return "No filters"
	}
	values := f.Values()
	if len(values) == 0 {
		return "No filters"
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, values[k]))
	}
	return strings.Join(parts, "  ")
}

func (m Model) rows() string {
	items := m.snap.Items
	if len(items) == 0 {
		switch m.snap.State {
		case listing.Loading, listing.Idle:
			return m.styles.Muted.Render("Loading…")
		case listing.Error:
			return ""
		}
		return m.styles.Muted.Render("No judgments match these filters")
	}

	end := min(m.top+m.pageRows(), len(items))
	titleWidth := max(m.width-32, 20)

	var b strings.Builder
	for i := m.top; i < end; i++ {
		j := items[i]
		mark := " "
		if m.marks != nil && m.marks.IsBookmarked(model.BookmarkJudgement, j.ID) {
			mark = m.styles.Marker.Render("★")
		}
		date := j.DecisionDate
		if date == "" {
			date = "          "
		}
		line := fmt.Sprintf("%s %s  %s", mark, date, render.Truncate(j.Title(), titleWidth))
		if i == m.cursor {
			line = m.styles.Selected.Render("› " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) footer() string {
	var state string
	switch m.snap.State {
	case listing.Loading:
		state = m.spinner.View() + " Loading…"
	case listing.LoadingMore:
		state = m.spinner.View() + " Loading more…"
	case listing.Error:
		msg := "request failed"
		if m.snap.Err != nil {
			msg = errText(m.snap.Err)
		}
		state = m.styles.Error.Render("✗ "+msg) + m.styles.Muted.Render("  (r to retry)")
	default:
		state = render.Footer(len(m.snap.Items), 0, m.snap.HasMore)
		if !m.snap.HasMore && len(m.snap.Items) > 0 {
			state += " · end of results"
		}
	}

	lines := []string{"", state}
	if m.status != "" {
		lines = append(lines, m.styles.Muted.Render(m.status))
	}
	lines = append(lines, m.styles.Muted.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
