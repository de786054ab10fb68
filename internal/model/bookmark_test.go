package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmark_ItemIDFromEmbeddedItem(t *testing.T) {
	raw := `{"id": 31, "type": "judgement", "item": {"id": 7, "case_title": "State vs Rao"}, "created_at": "2025-01-02T10:00:00Z"}`

	var b Bookmark
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, int64(31), b.ID)
	assert.Equal(t, BookmarkKey{Type: BookmarkJudgement, ItemID: 7}, b.Key())
	assert.Equal(t, "State vs Rao", b.ItemTitle())
}

func TestBookmark_ExplicitItemIDWins(t *testing.T) {
	raw := `{"id": 1, "type": "central_act", "item_id": 12, "item": {"id": 99}}`

	var b Bookmark
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, int64(12), b.ItemID)
}

func TestParseBookmarkType(t *testing.T) {
	for _, bt := range BookmarkTypes {
		got, err := ParseBookmarkType(string(bt))
		require.NoError(t, err)
		assert.Equal(t, bt, got)
	}

	_, err := ParseBookmarkType("constitution_article")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constitution_article")
}

func TestMappingAndActBookmarkTypes(t *testing.T) {
	assert.Equal(t, BookmarkBNSIPCMapping, MappingBNSIPC.BookmarkType())
	assert.Equal(t, BookmarkBSAIEAMapping, MappingBSAIEA.BookmarkType())
	assert.Equal(t, BookmarkBNSSCrPCMapping, MappingBNSSCrPC.BookmarkType())
	assert.Equal(t, BookmarkStateAct, ActState.BookmarkType())
	assert.Equal(t, BookmarkCentralAct, ActCentral.BookmarkType())
}
