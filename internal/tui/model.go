// Package tui is the interactive judgment browser: an infinite-scroll list
// over a listing.Controller with filter editing and bookmarking.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/bookmarks"
	"github.com/ppiankov/nyaya/internal/listing"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/ppiankov/nyaya/internal/render"
	"go.uber.org/zap"
)

// JudgmentLister is the part of the API client the browser reads from
type JudgmentLister interface {
	ListJudgements(ctx context.Context, court model.CourtType, q api.JudgementQuery) (*model.Page[model.Judgment], error)
}

// FetchJudgments adapts a JudgmentLister to the listing controller. The
// court is taken from the kind of the active filters.
func FetchJudgments(l JudgmentLister) listing.FetchFunc[model.Judgment] {
	return func(ctx context.Context, q listing.Query) (*model.Page[model.Judgment], error) {
		court := model.CourtHigh
		if q.Filters != nil && q.Filters.Kind() == model.KindSupremeCourt {
			court = model.CourtSupreme
		}
		return l.ListJudgements(ctx, court, api.JudgementQuery{
			Filters: q.Filters,
			Limit:   q.Limit,
			Offset:  q.Offset,
			Cursor:  q.Cursor,
		})
	}
}

// snapshotMsg carries a controller snapshot into the event loop
type snapshotMsg listing.Snapshot[model.Judgment]

// bookmarkMsg reports the outcome of a toggle
type bookmarkMsg struct {
	itemID     int64
	bookmarked bool
	err        error
}

// markCheckedMsg reports the backend state of one judgment's bookmark
type markCheckedMsg struct {
	itemID     int64
	bookmarked bool
}

// marksLoadedMsg reports the initial bookmark load
type marksLoadedMsg struct{ err error }

// statusMsg replaces the status line
type statusMsg string

// Model is the bubbletea model of the browser
type Model struct {
	ctx    context.Context
	list   *listing.Controller[model.Judgment]
	marks  *bookmarks.Manager // nil when not logged in
	logger *zap.Logger

	styles  render.Styles
	spinner spinner.Model
	input   textinput.Model

	snap      listing.Snapshot[model.Judgment]
	cursor    int
	top       int // First visible row
	width     int
	height    int
	filtering bool
	field     string
	detail    bool
	status    string
}

// New creates the browser model. marks may be nil for anonymous use.
func New(ctx context.Context, list *listing.Controller[model.Judgment], marks *bookmarks.Manager, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	styles := render.DefaultStyles()
	sp.Style = styles.Marker

	in := textinput.New()
	in.CharLimit = 200

	return Model{
		ctx:     ctx,
		list:    list,
		marks:   marks,
		logger:  logger,
		styles:  styles,
		spinner: sp,
		input:   in,
		snap:    list.Snapshot(),
		field:   "search",
		width:   100,
		height:  24,
	}
}

// Init starts the first load and, when logged in, loads bookmarks
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.start}
	if m.marks != nil {
		cmds = append(cmds, m.loadMarks)
	}
	return tea.Batch(cmds...)
}

func (m Model) start() tea.Msg {
	if err := m.list.Start(); err != nil {
		return statusMsg(errText(err))
	}
	return nil
}

func (m Model) loadMarks() tea.Msg {
	return marksLoadedMsg{err: m.marks.Load(m.ctx, 0, 0)}
}

// toggle asks the backend for the current state first; the manager only
// holds the pages of bookmarks loaded so far
func (m Model) toggle(id int64) tea.Cmd {
	return func() tea.Msg {
		m.marks.Status(m.ctx, model.BookmarkJudgement, id)
		now, err := m.marks.Toggle(m.ctx, model.BookmarkJudgement, id)
		return bookmarkMsg{itemID: id, bookmarked: now, err: err}
	}
}

func (m Model) checkMark(id int64) tea.Cmd {
	return func() tea.Msg {
		return markCheckedMsg{itemID: id, bookmarked: m.marks.Status(m.ctx, model.BookmarkJudgement, id)}
	}
}

// Run shows the browser until the user quits or ctx ends. Snapshots are
// forwarded from the controller without blocking it; the model drops any
// that arrive out of order.
func Run(ctx context.Context, list *listing.Controller[model.Judgment], marks *bookmarks.Manager, logger *zap.Logger) error {
	p := tea.NewProgram(New(ctx, list, marks, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	list.OnChange(func(s listing.Snapshot[model.Judgment]) {
		go p.Send(snapshotMsg(s))
	})

	_, err := p.Run()
	list.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func errText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
