package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppiankov/nyaya/internal/bookmarks"
	"github.com/ppiankov/nyaya/internal/listing"
	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

// Update handles a message
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scroll()
		return m, nil

	case snapshotMsg:
		if msg.Version < m.snap.Version {
			return m, nil
		}
		m.snap = listing.Snapshot[model.Judgment](msg)
		if m.cursor >= len(m.snap.Items) {
			m.cursor = max(0, len(m.snap.Items)-1)
		}
		m.scroll()
		if m.loading() {
			return m, m.spinner.Tick
		}
		return m, nil

	case bookmarkMsg:
		switch {
		case errors.Is(msg.err, bookmarks.ErrToggleInFlight):
			m.status = "Bookmark update already in progress"
		case msg.err != nil:
			m.status = "Bookmark failed: " + errText(msg.err)
		case msg.bookmarked:
			m.status = fmt.Sprintf("Bookmarked judgment %d", msg.itemID)
		default:
			m.status = fmt.Sprintf("Removed bookmark for judgment %d", msg.itemID)
		}
		return m, nil

	case markCheckedMsg:
		return m, nil

	case marksLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("bookmarks unavailable", zap.Error(msg.err))
			m.status = "Bookmarks unavailable: " + errText(msg.err)
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) loading() bool {
	return m.snap.State == listing.Loading || m.snap.State == listing.LoadingMore
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.detail = false

	case "enter":
		if len(m.snap.Items) == 0 {
			break
		}
		m.detail = !m.detail
		if m.detail && m.marks != nil {
			return m, m.checkMark(m.snap.Items[m.cursor].ID)
		}

	case "down", "j":
		m.move(1)
	case "up", "k":
		m.move(-1)
	case "pgdown", "ctrl+d":
		m.move(m.pageRows())
	case "pgup", "ctrl+u":
		m.move(-m.pageRows())
	case "home", "g":
		m.move(-len(m.snap.Items))
	case "end", "G":
		m.move(len(m.snap.Items))

	case "/":
		m.filtering = true
		m.detail = false
		m.input.SetValue(m.filterValue(m.field))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "c":
		kind := model.KindSupremeCourt
		if m.snap.Filters != nil && m.snap.Filters.Kind() == model.KindSupremeCourt {
			kind = model.KindHighCourt
		}
		m.cursor, m.top, m.detail = 0, 0, false
		m.field = "search"
		m.report(m.list.SwitchKind(kind))

	case "x":
		m.cursor, m.top = 0, 0
		m.report(m.list.Clear())

	case "r":
		m.status = ""
		m.report(m.list.Retry())

	case "b":
		if len(m.snap.Items) == 0 {
			break
		}
		if m.marks == nil {
			m.status = "Log in to bookmark judgments"
			break
		}
		return m, m.toggle(m.snap.Items[m.cursor].ID)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.input.Blur()
		return m, nil

	case "tab":
		m.field = m.nextField()
		m.input.SetValue(m.filterValue(m.field))
		m.input.CursorEnd()
		return m, nil

	case "ctrl+c":
		return m, tea.Quit
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.cursor, m.top = 0, 0
		m.report(m.list.SetFilter(m.field, m.input.Value()))
	}
	return m, cmd
}

// move shifts the selection by delta rows and asks for more rows when the
// selection nears the end
func (m *Model) move(delta int) {
	n := len(m.snap.Items)
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.scroll()
	m.list.NearEnd(m.cursor)
}

// scroll keeps the selection inside the visible window
func (m *Model) scroll() {
	rows := m.pageRows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

// pageRows is the number of list rows that fit between header and footer
func (m Model) pageRows() int {
	return max(m.height-6, 1)
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = errText(err)
	}
}

// filterValue includes edits the list has not applied yet
func (m Model) filterValue(name string) string {
	f := m.list.EditedFilters()
	if f == nil {
		return ""
	}
	return f.Values()[name]
}

func (m Model) nextField() string {
	if m.snap.Filters == nil {
		return m.field
	}
	names := m.snap.Filters.Names()
	for i, n := range names {
		if n == m.field {
			return names[(i+1)%len(names)]
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return m.field
}
