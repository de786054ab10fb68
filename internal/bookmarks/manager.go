// Package bookmarks keeps the current user's bookmarks in memory and
// mirrors add/remove operations to the backend.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

// ErrToggleInFlight is returned when a toggle of the same item is already running
var ErrToggleInFlight = errors.New("bookmark toggle already in progress")

// UnsupportedTypeError is returned for bookmark types the backend has no endpoint for
type UnsupportedTypeError struct {
	Type model.BookmarkType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported bookmark type %q", string(e.Type))
}

// API is the subset of the backend client the manager needs
type API interface {
	GetUserBookmarks(ctx context.Context, q api.BookmarkQuery) (*model.Page[model.Bookmark], error)
	AddBookmark(ctx context.Context, t model.BookmarkType, itemID int64) (*model.Bookmark, error)
	RemoveBookmark(ctx context.Context, t model.BookmarkType, itemID int64) error
	BookmarkStatus(ctx context.Context, t model.BookmarkType, itemID int64) (*model.BookmarkStatus, error)
}

// ChangeFunc is told about every successful toggle: the state before it,
// the item id, and the bookmark id that was created or removed
type ChangeFunc func(wasBookmarked bool, itemID int64, bookmarkID int64)

// Manager holds the loaded bookmark collection. It is safe for concurrent use;
// concurrent loads and toggles of different items resolve last-writer-wins.
type Manager struct {
	client   API
	logger   *zap.Logger
	pageSize int

	mu       sync.Mutex
	items    []model.Bookmark
	hasMore  bool
	inFlight map[model.BookmarkKey]struct{}
	onChange []ChangeFunc
}

// Option customizes a Manager
type Option func(*Manager)

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithPageSize sets the page size used when the collection is reloaded after an add
func WithPageSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pageSize = n
		}
	}
}

// NewManager creates an empty manager over client
func NewManager(client API, opts ...Option) *Manager {
	m := &Manager{
		client:   client,
		logger:   zap.NewNop(),
		pageSize: 20,
		inFlight: make(map[model.BookmarkKey]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers fn to run after every successful toggle
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Load fetches a page of bookmarks. Offset 0 replaces the collection,
// any other offset appends to it.
func (m *Manager) Load(ctx context.Context, offset, limit int) error {
	return m.load(ctx, offset, limit, offset == 0)
}

// load fetches one page. With replace unset the page is merged into the
// collection and the has-more flag is left alone.
func (m *Manager) load(ctx context.Context, offset, limit int, replace bool) error {
	if limit <= 0 {
		limit = m.pageSize
	}

	page, err := m.client.GetUserBookmarks(ctx, api.BookmarkQuery{Limit: limit, Offset: offset})
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if replace {
		m.items = append([]model.Bookmark(nil), page.Data...)
		m.hasMore = page.HasMore()
	} else {
		for _, b := range page.Data {
			if m.indexLocked(b.Key()) < 0 {
				m.items = append(m.items, b)
			}
		}
		if offset > 0 {
			m.hasMore = page.HasMore()
		}
	}

	m.logger.Debug("bookmarks loaded",
		zap.Int("offset", offset),
		zap.Int("received", len(page.Data)),
		zap.Bool("replace", replace),
		zap.Bool("has_more", m.hasMore))
	return nil
}

// LoadMore appends the next page after the loaded items
func (m *Manager) LoadMore(ctx context.Context) error {
	m.mu.Lock()
	offset, more := len(m.items), m.hasMore
	m.mu.Unlock()

	if !more {
		return nil
	}
	return m.Load(ctx, offset, m.pageSize)
}

// HasMore reports whether the backend has bookmarks beyond the loaded ones
func (m *Manager) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

// Items returns a copy of the loaded bookmarks
func (m *Manager) Items() []model.Bookmark {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Bookmark(nil), m.items...)
}

// IsBookmarked looks the item up in the loaded collection
func (m *Manager) IsBookmarked(t model.BookmarkType, itemID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked(model.BookmarkKey{Type: t, ItemID: itemID}) >= 0
}

// Toggle removes the bookmark of an item if one is loaded and adds one
// otherwise. It returns the new state.
func (m *Manager) Toggle(ctx context.Context, t model.BookmarkType, itemID int64) (bool, error) {
	if !t.Valid() {
		return false, &UnsupportedTypeError{Type: t}
	}
	key := model.BookmarkKey{Type: t, ItemID: itemID}

	m.mu.Lock()
	if _, busy := m.inFlight[key]; busy {
		m.mu.Unlock()
		return false, ErrToggleInFlight
	}
	m.inFlight[key] = struct{}{}
	idx := m.indexLocked(key)
	var existing model.Bookmark
	if idx >= 0 {
		existing = m.items[idx]
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, key)
		m.mu.Unlock()
	}()

	if idx >= 0 {
		if err := m.remove(ctx, key); err != nil {
			return true, err
		}
		m.notify(true, itemID, existing.ID)
		return false, nil
	}

	created, err := m.add(ctx, key)
	if err != nil {
		return false, err
	}
	m.notify(false, itemID, created.ID)
	return true, nil
}

func (m *Manager) remove(ctx context.Context, key model.BookmarkKey) error {
	err := m.client.RemoveBookmark(ctx, key.Type, key.ItemID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove bookmark: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(key); i >= 0 {
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	return nil
}

func (m *Manager) add(ctx context.Context, key model.BookmarkKey) (model.Bookmark, error) {
	created, err := m.client.AddBookmark(ctx, key.Type, key.ItemID)
	if err != nil {
		return model.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}

	b := *created
	b.Type, b.ItemID = key.Type, key.ItemID

	if b.ID == 0 {
		// No record echoed back; merge the first page without dropping
		// the pages already loaded
		if err := m.load(ctx, 0, m.pageSize, false); err != nil {
			m.logger.Warn("reload after add failed", zap.Error(err))
		}
		if !m.IsBookmarked(key.Type, key.ItemID) {
			if status, err := m.client.BookmarkStatus(ctx, key.Type, key.ItemID); err == nil && status.Bookmarked {
				b.ID = status.BookmarkID
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(key); i >= 0 {
		return m.items[i], nil
	}
	m.items = append(m.items, b)
	return b, nil
}

// Status asks the backend whether an item is bookmarked and reconciles the
// local collection with the answer. Any failure reports false.
func (m *Manager) Status(ctx context.Context, t model.BookmarkType, itemID int64) bool {
	if !t.Valid() {
		return false
	}

	status, err := m.client.BookmarkStatus(ctx, t, itemID)
	if err != nil {
		m.logger.Debug("bookmark status failed",
			zap.String("type", string(t)),
			zap.Int64("item_id", itemID),
			zap.Error(err))
		return false
	}

	key := model.BookmarkKey{Type: t, ItemID: itemID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[key]; busy {
		return status.Bookmarked
	}
	i := m.indexLocked(key)
	switch {
	case status.Bookmarked && i < 0:
		m.items = append(m.items, model.Bookmark{ID: status.BookmarkID, Type: t, ItemID: itemID})
	case !status.Bookmarked && i >= 0:
		m.items = append(m.items[:i], m.items[i+1:]...)
	}
	return status.Bookmarked
}

func (m *Manager) indexLocked(key model.BookmarkKey) int {
	for i, b := range m.items {
		if b.Key() == key {
			return i
		}
	}
	return -1
}

func (m *Manager) notify(was bool, itemID, bookmarkID int64) {
	m.mu.Lock()
	fns := append([]ChangeFunc(nil), m.onChange...)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(was, itemID, bookmarkID)
	}
}

func isNotFound(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
