// Package listing drives a paginated, filterable list: initial load,
// debounced filter changes, load-more on scroll, and retry after failure.
package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when a load-more is requested while a fetch is running
	ErrBusy = errors.New("listing: fetch already in progress")
	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("listing: controller closed")
)

// State is the position of a list in its load cycle
type State int

const (
	Idle State = iota
	Loading
	Loaded
	LoadingMore
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading_more"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Query is what the controller asks the fetch function for. Cursor is set
// once a page returned a next cursor; Offset always counts loaded items.
type Query struct {
	Filters model.Filters
	Limit   int
	Offset  int
	Cursor  *model.Cursor
}

// FetchFunc loads one page
type FetchFunc[T any] func(ctx context.Context, q Query) (*model.Page[T], error)

// Snapshot is a consistent copy of the controller state. Version grows with
// every change; listeners may drop snapshots older than one already seen.
type Snapshot[T any] struct {
	Version uint64
	State   State
	Items   []T
	Filters model.Filters
	HasMore bool
	Err     error
}

type operation int

const (
	opInitial operation = iota + 1
	opMore
)

type settings struct {
	logger    *zap.Logger
	pageSize  int
	debounce  time.Duration
	threshold int
}

// Option customizes a Controller
type Option func(*settings)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithPageSize sets the limit sent with every fetch
func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithDebounce sets how long SetFilter waits for further edits. Zero fires immediately.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithLoadMoreDistance sets how close to the end NearEnd triggers a load-more
func WithLoadMoreDistance(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.threshold = n
		}
	}
}

// Controller is a paginated list. It is safe for concurrent use; fetches run
// on their own goroutines and results are applied only while still current.
type Controller[T any] struct {
	fetch FetchFunc[T]
	settings

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	version  uint64
	state    State
	items    []T
	filters  model.Filters
	edited   model.Filters // Filters awaiting the debounce; nil when none
	cursor   *model.Cursor
	offset   int
	hasMore  bool
	err      error
	failedOp operation
	closed   bool

	// gen identifies the current result set; responses of older
	// generations are dropped
	gen             uint64
	initialInFlight bool
	moreInFlight    bool
	pending         bool // Restart requested while an initial fetch was running

	timer       *time.Timer
	debounceSeq uint64

	listeners []func(Snapshot[T])
}

// New creates an idle controller. filters nil means High Court defaults.
func New[T any](fetch FetchFunc[T], filters model.Filters, opts ...Option) *Controller[T] {
	s := settings{
		logger:    zap.NewNop(),
		pageSize:  20,
		debounce:  600 * time.Millisecond,
		threshold: 5,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if filters == nil {
		filters = model.DefaultFilters(model.KindHighCourt)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		fetch:    fetch,
		settings: s,
		ctx:      ctx,
		cancel:   cancel,
		filters:  filters,
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block.
func (c *Controller[T]) OnChange(fn func(Snapshot[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start issues the initial load, restarting from empty if already loaded
func (c *Controller[T]) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.stopTimerLocked()
	if c.edited != nil {
		c.filters, c.edited = c.edited, nil
	}
	c.restartLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// EditedFilters returns the filters including edits still waiting for the
// debounce. Snapshots carry the filters of the loaded results.
func (c *Controller[T]) EditedFilters() model.Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editedLocked()
}

func (c *Controller[T]) editedLocked() model.Filters {
	if c.edited != nil {
		return c.edited
	}
	return c.filters
}

// SetFilter changes one filter and restarts the list once no further edit
// arrives within the debounce window. Unknown names fail immediately.
func (c *Controller[T]) SetFilter(name, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	f, err := c.editedLocked().Set(name, value)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.stopTimerLocked()
	if c.debounce <= 0 {
		c.filters = f
		c.restartLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.notify(snap)
		return nil
	}

	c.edited = f
	seq := c.debounceSeq
	c.timer = time.AfterFunc(c.debounce, func() { c.fireDebounce(seq) })
	c.mu.Unlock()
	return nil
}

func (c *Controller[T]) fireDebounce(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.debounceSeq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.filters, c.edited = c.edited, nil
	c.logger.Debug("filter change", zap.Any("filters", c.filters.Values()))
	c.restartLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// ReplaceFilters swaps the whole filter set and restarts immediately.
// nil resets to the default shape of the current kind.
func (c *Controller[T]) ReplaceFilters(f model.Filters) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if f == nil {
		f = model.DefaultFilters(c.filters.Kind())
	}
	c.filters = f
	c.edited = nil
	c.stopTimerLocked()
	c.restartLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Clear resets every filter of the current kind
func (c *Controller[T]) Clear() error {
	return c.ReplaceFilters(nil)
}

// SwitchKind moves to another resource kind (e.g. High Court to Supreme
// Court) with that kind's default filters
func (c *Controller[T]) SwitchKind(kind model.FilterKind) error {
	return c.ReplaceFilters(model.DefaultFilters(kind))
}

// LoadMore fetches the next page. It does nothing unless the list is loaded
// and the backend reported more, or while a filter edit awaits the debounce;
// it fails with ErrBusy while a fetch runs.
func (c *Controller[T]) LoadMore() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.moreInFlight || c.initialInFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != Loaded || !c.hasMore || c.edited != nil {
		c.mu.Unlock()
		return nil
	}
	c.launchMoreLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// NearEnd reports that row index is visible and loads more when it is within
// the load-more distance of the end. It returns whether a fetch was started.
func (c *Controller[T]) NearEnd(index int) bool {
	c.mu.Lock()
	near := c.state == Loaded && c.hasMore && !c.moreInFlight && c.edited == nil && index >= len(c.items)-1-c.threshold
	c.mu.Unlock()

	if !near {
		return false
	}
	return c.LoadMore() == nil
}

// Retry reissues the operation that failed. It does nothing unless the list
// is in the Error state.
func (c *Controller[T]) Retry() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != Error {
		c.mu.Unlock()
		return nil
	}

	switch c.failedOp {
	case opMore:
		c.launchMoreLocked()
	default:
		c.restartLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Snapshot returns a copy of the current state
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close cancels in-flight fetches and pending debounces and waits for the
// fetch goroutines to return
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// restartLocked drops the current results and issues an initial load, or
// queues one behind the initial load already running
func (c *Controller[T]) restartLocked() {
	c.gen++
	c.items = nil
	c.cursor = nil
	c.offset = 0
	c.hasMore = false
	c.err = nil
	c.failedOp = 0
	c.moreInFlight = false
	c.state = Loading
	c.version++

	if c.initialInFlight {
		c.pending = true
		return
	}
	c.launchInitialLocked()
}

func (c *Controller[T]) launchInitialLocked() {
	c.initialInFlight = true
	gen := c.gen
	q := Query{Filters: c.filters, Limit: c.pageSize}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetch(c.ctx, q)
		c.finishInitial(gen, page, err)
	}()
}

func (c *Controller[T]) finishInitial(gen uint64, page *model.Page[T], err error) {
	c.mu.Lock()
	c.initialInFlight = false
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.pending {
		c.pending = false
		c.launchInitialLocked()
		c.mu.Unlock()
		return
	}
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.logger.Debug("initial load failed", zap.Error(err))
		c.items = nil
		c.hasMore = false
		c.err = err
		c.failedOp = opInitial
		c.state = Error
	} else {
		c.items = append([]T(nil), page.Data...)
		c.advanceLocked(page)
		c.state = Loaded
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller[T]) launchMoreLocked() {
	c.moreInFlight = true
	c.state = LoadingMore
	c.err = nil
	c.version++
	gen := c.gen
	q := Query{Filters: c.filters, Limit: c.pageSize, Offset: c.offset, Cursor: c.cursor}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetch(c.ctx, q)
		c.finishMore(gen, page, err)
	}()
}

func (c *Controller[T]) finishMore(gen uint64, page *model.Page[T], err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.moreInFlight = false

	if err != nil {
		c.logger.Debug("load more failed", zap.Int("offset", c.offset), zap.Error(err))
		c.err = err
		c.failedOp = opMore
		c.state = Error
	} else {
		c.items = append(c.items, page.Data...)
		c.advanceLocked(page)
		c.state = Loaded
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// advanceLocked records where the next page starts. An empty page ends the
// list even when the backend claims more.
func (c *Controller[T]) advanceLocked(page *model.Page[T]) {
	c.offset += len(page.Data)
	c.hasMore = page.HasMore() && len(page.Data) > 0
	if page.Pagination.NextCursor != nil {
		next := *page.Pagination.NextCursor
		c.cursor = &next
	}
	c.err = nil
	c.failedOp = 0
}

func (c *Controller[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.debounceSeq++
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Version: c.version,
		State:   c.state,
		Items:   append([]T(nil), c.items...),
		Filters: c.filters,
		HasMore: c.hasMore,
		Err:     c.err,
	}
}

func (c *Controller[T]) notify(snap Snapshot[T]) {
	c.mu.Lock()
	fns := append([]func(Snapshot[T]){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
