package model

import (
	"encoding/json"
	"time"
)

// BookmarkType identifies the kind of entity a bookmark points to
type BookmarkType string

const (
	BookmarkJudgement       BookmarkType = "judgement"
	BookmarkCentralAct      BookmarkType = "central_act"
	BookmarkStateAct        BookmarkType = "state_act"
	BookmarkBSAIEAMapping   BookmarkType = "bsa_iea_mapping"
	BookmarkBNSIPCMapping   BookmarkType = "bns_ipc_mapping"
	BookmarkBNSSCrPCMapping BookmarkType = "bnss_crpc_mapping"
)

// BookmarkTypes lists every supported bookmark type
var BookmarkTypes = []BookmarkType{
	BookmarkJudgement,
	BookmarkCentralAct,
	BookmarkStateAct,
	BookmarkBSAIEAMapping,
	BookmarkBNSIPCMapping,
	BookmarkBNSSCrPCMapping,
}

// Valid reports whether t is a supported bookmark type
func (t BookmarkType) Valid() bool {
	for _, v := range BookmarkTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseBookmarkType validates a bookmark type string
func ParseBookmarkType(s string) (BookmarkType, error) {
	t := BookmarkType(s)
	if !t.Valid() {
		return "", &UnknownValueError{Field: "bookmark type", Value: s}
	}
	return t, nil
}

// BookmarkKey is the composite identity of a bookmark
type BookmarkKey struct {
	Type   BookmarkType
	ItemID int64
}

// Bookmark is a user's saved reference to a judgment, act, or mapping
type Bookmark struct {
	ID        int64           `json:"id"`      // Bookmark id (not the item id)
	Type      BookmarkType    `json:"type"`
	ItemID    int64           `json:"item_id"`
	Item      json.RawMessage `json:"item,omitempty"` // The bookmarked entity as the server returned it
	CreatedAt time.Time       `json:"created_at"`
}

// Key returns the composite (type, item id) key
func (b Bookmark) Key() BookmarkKey {
	return BookmarkKey{Type: b.Type, ItemID: b.ItemID}
}

// UnmarshalJSON fills ItemID from item.id when the server omits item_id
func (b *Bookmark) UnmarshalJSON(data []byte) error {
	type plain Bookmark
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	if p.ItemID == 0 && len(p.Item) > 0 {
		var ref struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(p.Item, &ref); err == nil {
			p.ItemID = ref.ID
		}
	}

	*b = Bookmark(p)
	return nil
}

// ItemTitle extracts a display title from the embedded item, if any
func (b Bookmark) ItemTitle() string {
	if len(b.Item) == 0 {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(b.Item, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"case_title", "short_title", "title", "subject", "source_section"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// BookmarkStatus is the server's answer to "is this item bookmarked"
type BookmarkStatus struct {
	Bookmarked bool  `json:"bookmarked"`
	BookmarkID int64 `json:"bookmark_id,omitempty"`
}
