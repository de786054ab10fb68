// Package apitest provides an in-memory fake of the legal-research backend
// for tests of the API client and the packages built on it.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
)

// Fixture credentials accepted by /auth/login
const (
	Email    = "advocate@example.in"
	Password = "s3cret"
)

// Server is a fake backend listening on a local httptest server
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	user         model.User
	accessToken  string
	refreshToken string
	tokenSeq     int
	refreshCalls int
	failRefresh  bool
	refreshDelay time.Duration

	highCourt []model.Judgment
	supreme   []model.Judgment
	mappings  []model.LawMapping
	acts      map[model.ActType][]model.Act

	bookmarks      map[model.BookmarkKey]model.Bookmark
	nextBookmarkID int64
	failStatus     bool

	requests    map[string]int
	lastQuery   map[string]string
	lastHeaders http.Header
}

// NewServer starts a seeded fake backend that is closed when the test ends
func NewServer(t testing.TB) *Server {
	s := &Server{
		user:           model.User{ID: 1, Email: Email, Name: "Test Advocate", Profession: "lawyer"},
		acts:           map[model.ActType][]model.Act{},
		bookmarks:      map[model.BookmarkKey]model.Bookmark{},
		nextBookmarkID: 100,
		requests:       map[string]int{},
		lastQuery:      map[string]string{},
	}
	s.issueTokens()
	s.seed()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/me", s.authed(s.handleMe))
	mux.HandleFunc("GET /auth/sessions", s.authed(s.handleSessions))
	mux.HandleFunc("DELETE /auth/sessions/{id}", s.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("GET /api/judgements", s.authed(s.handleHighCourt))
	mux.HandleFunc("GET /api/judgements/{id}", s.authed(s.handleJudgement(&s.highCourt)))
	mux.HandleFunc("GET /api/supreme-court-judgements", s.authed(s.handleSupremeCourt))
	mux.HandleFunc("GET /api/supreme-court-judgements/{id}", s.authed(s.handleJudgement(&s.supreme)))
	mux.HandleFunc("GET /api/law_mapping", s.authed(s.handleMappings))
	mux.HandleFunc("GET /api/acts/central-acts", s.authed(s.handleActs(model.ActCentral)))
	mux.HandleFunc("GET /api/acts/state-acts", s.authed(s.handleActs(model.ActState)))

	mux.HandleFunc("GET /api/bookmarks", s.authed(s.handleListBookmarks))
	for _, prefix := range []string{
		"/api/bookmarks/judgements/{id}",
		"/api/bookmarks/acts/{scope}/{id}",
		"/api/bookmarks/mappings/{scope}/{id}",
	} {
		mux.HandleFunc("POST "+prefix, s.authed(s.handleAddBookmark))
		mux.HandleFunc("DELETE "+prefix, s.authed(s.handleRemoveBookmark))
		mux.HandleFunc("GET "+prefix+"/status", s.authed(s.handleBookmarkStatus))
	}

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) seed() {
	judges := []string{"A. Sharma", "R. Iyer", "K. Menon"}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 45; i++ {
		s.highCourt = append(s.highCourt, model.Judgment{
			ID:           int64(i),
			CaseTitle:    fmt.Sprintf("Petitioner %d vs State", i),
			CourtName:    "High Court of Kerala",
			Judge:        judges[i%len(judges)],
			DecisionDate: start.AddDate(0, 0, i/3).Format(time.DateOnly),
			CNR:          fmt.Sprintf("KLHC01%06d2020", i),
			PDFLink:      fmt.Sprintf("/pdf/hc/%d.pdf", i),
		})
	}
	for i := 1; i <= 25; i++ {
		s.supreme = append(s.supreme, model.Judgment{
			ID:           int64(1000 + i),
			CaseTitle:    fmt.Sprintf("Appellant %d vs Union of India", i),
			CourtName:    "Supreme Court of India",
			Judge:        judges[i%len(judges)],
			DecisionDate: start.AddDate(0, i, 0).Format(time.DateOnly),
			CNR:          fmt.Sprintf("SCIN01%06d2021", i),
		})
	}
	id := int64(1)
	for _, mt := range model.MappingTypes {
		for i := 1; i <= 12; i++ {
			s.mappings = append(s.mappings, model.LawMapping{
				ID:            id,
				MappingType:   mt,
				SourceSection: fmt.Sprintf("Section %d", i),
				TargetSection: fmt.Sprintf("Section %d", i+100),
				Subject:       fmt.Sprintf("Subject %d", i),
				Summary:       "<p>Substantially <b>re-enacted</b></p>",
			})
			id++
		}
	}
	for i := 1; i <= 30; i++ {
		s.acts[model.ActCentral] = append(s.acts[model.ActCentral], model.Act{ID: int64(i), Title: fmt.Sprintf("Central Act %d", i), Year: 1950 + i})
	}
	for i := 1; i <= 8; i++ {
		s.acts[model.ActState] = append(s.acts[model.ActState], model.Act{ID: int64(500 + i), Title: fmt.Sprintf("State Act %d", i), Year: 1990 + i, State: "Kerala"})
	}
}

// Tokens returns the currently valid token pair
func (s *Server) Tokens() model.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

// ExpireAccessToken invalidates the access token handed out so far; the
// refresh token stays valid
func (s *Server) ExpireAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenSeq++
	s.accessToken = fmt.Sprintf("access-%d", s.tokenSeq)
}

// SetFailRefresh makes /auth/refresh reject every refresh token
func (s *Server) SetFailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetRefreshDelay slows /auth/refresh down to widen race windows
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// SetFailBookmarkStatus makes the bookmark status endpoint return 500
func (s *Server) SetFailBookmarkStatus(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = fail
}

// RefreshCalls counts calls to /auth/refresh
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Requests counts requests with the given method and path, e.g. "GET /api/judgements"
func (s *Server) Requests(methodPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[methodPath]
}

// LastQuery returns the raw query of the last request to methodPath
func (s *Server) LastQuery(methodPath string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[methodPath]
}

// LastHeader returns a header of the most recent request
func (s *Server) LastHeader(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastHeaders == nil {
		return ""
	}
	return s.lastHeaders.Get(name)
}

// HasBookmark reports whether the fake holds a bookmark for key
func (s *Server) HasBookmark(key model.BookmarkKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bookmarks[key]
	return ok
}

func (s *Server) issueTokens() {
	s.tokenSeq++
	s.accessToken = fmt.Sprintf("access-%d", s.tokenSeq)
	s.refreshToken = fmt.Sprintf("refresh-%d", s.tokenSeq)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests[key]++
		s.lastQuery[key] = r.URL.RawQuery
		s.lastHeaders = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		valid := r.Header.Get("Authorization") == "Bearer "+s.accessToken
		s.mu.Unlock()

		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	if body.Email != Email || body.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}

	s.mu.Lock()
	s.issueTokens()
	resp := model.LoginResponse{
		Tokens: model.Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken, TokenType: "bearer"},
		User:   &s.user,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	if len(body.Password) < 8 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{
				{"loc": []string{"body", "password"}, "msg": "password must be at least 8 characters"},
			},
		})
		return
	}

	s.mu.Lock()
	s.issueTokens()
	s.user = model.User{ID: 2, Email: body.Email, Name: body.Name, Profession: body.Profession}
	resp := model.LoginResponse{
		Tokens: model.Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken},
		User:   &s.user,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.refreshCalls++
	delay := s.refreshDelay
	s.mu.Unlock()

	time.Sleep(delay)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRefresh || body.RefreshToken != s.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
		return
	}
	s.tokenSeq++
	s.accessToken = fmt.Sprintf("access-%d", s.tokenSeq)
	writeJSON(w, http.StatusOK, model.Tokens{AccessToken: s.accessToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Page[model.SessionInfo]{
		Data: []model.SessionInfo{{ID: "sess-1", UserAgent: r.UserAgent(), Current: true}},
	})
}

func (s *Server) handleHighCourt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := filterJudges(s.highCourt, q.Get("judge"))

	if id := q.Get("cursor_id"); id != "" {
		cid, _ := strconv.ParseInt(id, 10, 64)
		cdate := q.Get("cursor_decision_date")
		var after []model.Judgment
		for _, j := range items {
			if j.DecisionDate > cdate || (j.DecisionDate == cdate && j.ID > cid) {
				after = append(after, j)
			}
		}
		items = after
	}

	writePage(w, q, items, func(j model.Judgment) *model.Cursor {
		return &model.Cursor{ID: j.ID, DecisionDate: j.DecisionDate}
	})
}

func (s *Server) handleSupremeCourt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := filterJudges(s.supreme, q.Get("judge"))

	if id := q.Get("cursor_id"); id != "" {
		cid, _ := strconv.ParseInt(id, 10, 64)
		var after []model.Judgment
		for _, j := range items {
			if j.ID > cid {
				after = append(after, j)
			}
		}
		items = after
	}

	writePage(w, q, items, func(j model.Judgment) *model.Cursor {
		return &model.Cursor{ID: j.ID}
	})
}

func (s *Server) handleJudgement(list *[]model.Judgment) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		for _, j := range *list {
			if j.ID == id {
				writeJSON(w, http.StatusOK, j)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Judgement not found"})
	}
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var items []model.LawMapping
	for _, m := range s.mappings {
		if string(m.MappingType) == q.Get("mapping_type") {
			items = append(items, m)
		}
	}
	writePage(w, q, items, nil)
}

func (s *Server) handleActs(t model.ActType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var items []model.Act
		for _, a := range s.acts[t] {
			if search := q.Get("search"); search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(search)) {
				continue
			}
			items = append(items, a)
		}
		writePage(w, q, items, nil)
	}
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	var items []model.Bookmark
	for _, b := range s.bookmarks {
		if t := q.Get("type"); t != "" && string(b.Type) != t {
			continue
		}
		items = append(items, b)
	}
	s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	writePage(w, q, items, nil)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	key, ok := bookmarkKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookmarks[key]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "Already bookmarked"})
		return
	}

	item, _ := json.Marshal(map[string]any{"id": key.ItemID})
	b := model.Bookmark{
		ID:        s.nextBookmarkID,
		Type:      key.Type,
		ItemID:    key.ItemID,
		Item:      item,
		CreatedAt: time.Now().UTC(),
	}
	s.nextBookmarkID++
	s.bookmarks[key] = b
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	key, ok := bookmarkKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookmarks[key]; !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Bookmark not found"})
		return
	}
	delete(s.bookmarks, key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBookmarkStatus(w http.ResponseWriter, r *http.Request) {
	key, ok := bookmarkKey(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "status lookup failed"})
		return
	}
	b, exists := s.bookmarks[key]
	writeJSON(w, http.StatusOK, model.BookmarkStatus{Bookmarked: exists, BookmarkID: b.ID})
}

func bookmarkKey(r *http.Request) (model.BookmarkKey, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return model.BookmarkKey{}, false
	}

	var t model.BookmarkType
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/bookmarks/judgements/"):
		t = model.BookmarkJudgement
	case strings.HasPrefix(r.URL.Path, "/api/bookmarks/acts/"):
		t = model.BookmarkType(r.PathValue("scope") + "_act")
	case strings.HasPrefix(r.URL.Path, "/api/bookmarks/mappings/"):
		t = model.BookmarkType(r.PathValue("scope") + "_mapping")
	}
	if !t.Valid() {
		return model.BookmarkKey{}, false
	}
	return model.BookmarkKey{Type: t, ItemID: id}, true
}

func filterJudges(items []model.Judgment, judge string) []model.Judgment {
	if judge == "" {
		return items
	}
	var out []model.Judgment
	for _, j := range items {
		if strings.Contains(strings.ToLower(j.Judge), strings.ToLower(judge)) {
			out = append(out, j)
		}
	}
	return out
}

func writePage[T any](w http.ResponseWriter, q map[string][]string, items []T, cursorOf func(T) *model.Cursor) {
	limit := atoiDefault(first(q["limit"]), 10)
	offset := atoiDefault(first(q["offset"]), 0)

	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := model.Page[T]{
		Data: append([]T{}, items[offset:end]...),
		Pagination: model.Pagination{
			HasMore: end < len(items),
			Total:   len(items),
			Limit:   limit,
			Offset:  offset,
		},
	}
	if cursorOf != nil && page.Pagination.HasMore && len(page.Data) > 0 {
		page.Pagination.NextCursor = cursorOf(page.Data[len(page.Data)-1])
	}
	writeJSON(w, http.StatusOK, page)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
