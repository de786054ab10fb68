package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor is the opaque position after the last seen record.
// Supreme Court listings only use ID; High Court listings also carry DecisionDate.
type Cursor struct {
	ID           int64  `json:"id"`
	DecisionDate string `json:"decision_date,omitempty"`
}

// String renders the cursor for logs and the CLI --cursor flag
func (c Cursor) String() string {
	if c.DecisionDate == "" {
		return strconv.FormatInt(c.ID, 10)
	}
	return c.DecisionDate + ":" + strconv.FormatInt(c.ID, 10)
}

// ParseCursor parses the form produced by Cursor.String
func ParseCursor(s string) (Cursor, error) {
	date, idPart := "", s
	if i := strings.LastIndex(s, ":"); i >= 0 {
		date, idPart = s[:i], s[i+1:]
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("parse cursor %q: %w", s, err)
	}
	return Cursor{ID: id, DecisionDate: date}, nil
}

// Pagination is the paging block of every list envelope
type Pagination struct {
	HasMore    bool    `json:"has_more"`
	NextCursor *Cursor `json:"next_cursor,omitempty"` // Set by cursor-based resources
	Total      int     `json:"total,omitempty"`       // Set by offset-based resources
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// Page is the list envelope returned by the backend: {"data": [...], "pagination": {...}}
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// HasMore reports whether another page can be requested
func (p *Page[T]) HasMore() bool {
	return p != nil && p.Pagination.HasMore
}
