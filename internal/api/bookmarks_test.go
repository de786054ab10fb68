package api

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/nyaya/internal/api/apitest"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkPath(t *testing.T) {
	tests := []struct {
		typ  model.BookmarkType
		want string
	}{
		{model.BookmarkJudgement, "/api/bookmarks/judgements/7"},
		{model.BookmarkCentralAct, "/api/bookmarks/acts/central/7"},
		{model.BookmarkStateAct, "/api/bookmarks/acts/state/7"},
		{model.BookmarkBNSIPCMapping, "/api/bookmarks/mappings/bns_ipc/7"},
		{model.BookmarkBSAIEAMapping, "/api/bookmarks/mappings/bsa_iea/7"},
		{model.BookmarkBNSSCrPCMapping, "/api/bookmarks/mappings/bnss_crpc/7"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got, err := BookmarkPath(tt.typ, 7)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := BookmarkPath("statute", 7)
	var unknown *model.UnknownValueError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "statute", unknown.Value)
}

func TestBookmarks_RoundTrip(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	b, err := c.BookmarkJudgement(ctx, 7)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, model.BookmarkKey{Type: model.BookmarkJudgement, ItemID: 7}, b.Key())

	page, err := c.GetUserBookmarks(ctx, BookmarkQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, model.BookmarkJudgement, page.Data[0].Type)
	assert.Equal(t, int64(7), page.Data[0].ItemID)

	status, err := c.BookmarkStatus(ctx, model.BookmarkJudgement, 7)
	require.NoError(t, err)
	assert.True(t, status.Bookmarked)
	assert.Equal(t, b.ID, status.BookmarkID)

	require.NoError(t, c.RemoveJudgementBookmark(ctx, 7))

	page, err = c.GetUserBookmarks(ctx, BookmarkQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestBookmarks_TypedHelpers(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.BookmarkAct(ctx, model.ActState, 501)
	require.NoError(t, err)
	_, err = c.BookmarkMapping(ctx, model.MappingBNSSCrPC, 3)
	require.NoError(t, err)

	assert.True(t, srv.HasBookmark(model.BookmarkKey{Type: model.BookmarkStateAct, ItemID: 501}))
	assert.True(t, srv.HasBookmark(model.BookmarkKey{Type: model.BookmarkBNSSCrPCMapping, ItemID: 3}))

	acts, err := c.GetUserBookmarks(ctx, BookmarkQuery{Type: model.BookmarkStateAct})
	require.NoError(t, err)
	require.Len(t, acts.Data, 1)

	require.NoError(t, c.RemoveActBookmark(ctx, model.ActState, 501))
	require.NoError(t, c.RemoveMappingBookmark(ctx, model.MappingBNSSCrPC, 3))
	assert.False(t, srv.HasBookmark(model.BookmarkKey{Type: model.BookmarkStateAct, ItemID: 501}))
}

func TestAddBookmark_UnsupportedTypeMakesNoRequest(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	_, err := c.AddBookmark(context.Background(), "statute", 1)
	require.Error(t, err)
	assert.Zero(t, srv.Requests("POST /api/bookmarks/statute/1"))
	assert.Contains(t, err.Error(), "statute")
}

func TestRemoveBookmark_MissingIsValidationError(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv)

	err := c.RemoveBookmark(context.Background(), model.BookmarkCentralAct, 9)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Bookmark not found", err.Error())
}
