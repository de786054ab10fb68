package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ppiankov/nyaya/internal/model"
)

// BookmarkPath returns the REST path that adds or removes a bookmark of type t
func BookmarkPath(t model.BookmarkType, itemID int64) (string, error) {
	id := strconv.FormatInt(itemID, 10)

	switch t {
	case model.BookmarkJudgement:
		return "/api/bookmarks/judgements/" + id, nil
	case model.BookmarkCentralAct:
		return "/api/bookmarks/acts/central/" + id, nil
	case model.BookmarkStateAct:
		return "/api/bookmarks/acts/state/" + id, nil
	case model.BookmarkBNSIPCMapping:
		return "/api/bookmarks/mappings/bns_ipc/" + id, nil
	case model.BookmarkBSAIEAMapping:
		return "/api/bookmarks/mappings/bsa_iea/" + id, nil
	case model.BookmarkBNSSCrPCMapping:
		return "/api/bookmarks/mappings/bnss_crpc/" + id, nil
	default:
		return "", &model.UnknownValueError{Field: "bookmark type", Value: string(t)}
	}
}

// BookmarkQuery selects a page of the user's bookmarks
type BookmarkQuery struct {
	Type   model.BookmarkType // Empty lists every type
	Limit  int
	Offset int
}

// GetUserBookmarks lists the current user's bookmarks
func (c *Client) GetUserBookmarks(ctx context.Context, q BookmarkQuery) (*model.Page[model.Bookmark], error) {
	params := url.Values{}
	addPaging(params, q.Limit, q.Offset)
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}

	var page model.Page[model.Bookmark]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/bookmarks", query: params}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AddBookmark bookmarks an item. The returned bookmark has ID 0 when the
// backend does not echo the created record.
func (c *Client) AddBookmark(ctx context.Context, t model.BookmarkType, itemID int64) (*model.Bookmark, error) {
	path, err := BookmarkPath(t, itemID)
	if err != nil {
		return nil, err
	}

	var b model.Bookmark
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, &b); err != nil {
		return nil, err
	}
	if b.Type == "" {
		b.Type = t
	}
	if b.ItemID == 0 {
		b.ItemID = itemID
	}
	return &b, nil
}

// RemoveBookmark deletes the bookmark of an item
func (c *Client) RemoveBookmark(ctx context.Context, t model.BookmarkType, itemID int64) error {
	path, err := BookmarkPath(t, itemID)
	if err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// BookmarkStatus asks the backend whether an item is bookmarked
func (c *Client) BookmarkStatus(ctx context.Context, t model.BookmarkType, itemID int64) (*model.BookmarkStatus, error) {
	path, err := BookmarkPath(t, itemID)
	if err != nil {
		return nil, err
	}

	var status model.BookmarkStatus
	if err := c.do(ctx, request{method: http.MethodGet, path: path + "/status"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// BookmarkJudgement bookmarks a judgment
func (c *Client) BookmarkJudgement(ctx context.Context, id int64) (*model.Bookmark, error) {
	return c.AddBookmark(ctx, model.BookmarkJudgement, id)
}

// RemoveJudgementBookmark removes a judgment bookmark
func (c *Client) RemoveJudgementBookmark(ctx context.Context, id int64) error {
	return c.RemoveBookmark(ctx, model.BookmarkJudgement, id)
}

// BookmarkAct bookmarks a central or state act
func (c *Client) BookmarkAct(ctx context.Context, actType model.ActType, id int64) (*model.Bookmark, error) {
	return c.AddBookmark(ctx, actType.BookmarkType(), id)
}

// RemoveActBookmark removes an act bookmark
func (c *Client) RemoveActBookmark(ctx context.Context, actType model.ActType, id int64) error {
	return c.RemoveBookmark(ctx, actType.BookmarkType(), id)
}

// BookmarkMapping bookmarks a law mapping
func (c *Client) BookmarkMapping(ctx context.Context, mappingType model.MappingType, id int64) (*model.Bookmark, error) {
	return c.AddBookmark(ctx, mappingType.BookmarkType(), id)
}

// RemoveMappingBookmark removes a law mapping bookmark
func (c *Client) RemoveMappingBookmark(ctx context.Context, mappingType model.MappingType, id int64) error {
	return c.RemoveBookmark(ctx, mappingType.BookmarkType(), id)
}
