package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/nyaya/internal/model"
)

// Table is a static table rendered with lipgloss
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and headers
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table
func (t *Table) View(styles Styles) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		sb.WriteString(styles.Muted.Render("No results"))
		sb.WriteString("\n")
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// Padding is counted in lipgloss widths
	for i := range widths {
		widths[i] += 2
	}

	sep := styles.Muted.Render("│")
	for i, h := range t.Headers {
		sb.WriteString(styles.Header.Width(widths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")

	total := len(t.Headers) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(styles.Cell.Width(widths[i]).Render(cell))
			if i < len(t.Headers)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

// JudgmentsTable lists judgments one per row
func JudgmentsTable(title string, judgments []model.Judgment) *Table {
	t := NewTable(title, "ID", "Decided", "Court", "Title", "CNR")
	for _, j := range judgments {
		t.AddRow(id(j.ID), orDash(j.DecisionDate), orDash(Truncate(j.CourtName, 28)), Truncate(orDash(j.Title()), 60), orDash(j.CNR))
	}
	return t
}

// MappingsTable lists law mappings with their summaries stripped of markup
func MappingsTable(title string, mappings []model.LawMapping) *Table {
	t := NewTable(title, "ID", "From", "To", "Subject", "Summary")
	for _, m := range mappings {
		t.AddRow(id(m.ID), orDash(m.SourceSection), orDash(m.TargetSection),
			orDash(Truncate(m.Subject, 40)), orDash(Truncate(StripHTML(m.Summary), 60)))
	}
	return t
}

// ActsTable lists central or state acts
func ActsTable(title string, acts []model.Act) *Table {
	t := NewTable(title, "ID", "Year", "Title", "Ministry / State")
	for _, a := range acts {
		owner := a.Ministry
		if a.State != "" {
			owner = a.State
		}
		year := "-"
		if a.Year > 0 {
			year = strconv.Itoa(a.Year)
		}
		t.AddRow(id(a.ID), year, orDash(Truncate(a.Title, 60)), orDash(Truncate(owner, 30)))
	}
	return t
}

// BookmarksTable lists saved bookmarks
func BookmarksTable(title string, bookmarks []model.Bookmark) *Table {
	t := NewTable(title, "Bookmark", "Type", "Item", "Title", "Saved")
	for _, b := range bookmarks {
		saved := "-"
		if !b.CreatedAt.IsZero() {
			saved = b.CreatedAt.Format("2006-01-02")
		}
		t.AddRow(id(b.ID), string(b.Type), id(b.ItemID), orDash(Truncate(b.ItemTitle(), 50)), saved)
	}
	return t
}

// SessionsTable lists the user's active sessions
func SessionsTable(title string, sessions []model.SessionInfo) *Table {
	t := NewTable(title, "ID", "Client", "IP", "Last seen", "")
	for _, s := range sessions {
		seen := "-"
		if !s.LastSeen.IsZero() {
			seen = s.LastSeen.Format("2006-01-02 15:04")
		} else if !s.CreatedAt.IsZero() {
			seen = s.CreatedAt.Format("2006-01-02 15:04")
		}
		current := ""
		if s.Current {
			current = "current"
		}
		t.AddRow(s.ID, orDash(Truncate(s.UserAgent, 40)), orDash(s.IPAddress), seen, current)
	}
	return t
}

// Footer describes how much of a listing has been shown
func Footer(shown, total int, hasMore bool) string {
	switch {
	case total > 0:
		return fmt.Sprintf("Showing %d of %d", shown, total)
	case hasMore:
		return fmt.Sprintf("Showing %d, more available", shown)
	default:
		return fmt.Sprintf("Showing %d", shown)
	}
}
