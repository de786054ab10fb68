package model

// ActType distinguishes central (Union) legislation from state legislation
type ActType string

const (
	ActCentral ActType = "central"
	ActState   ActType = "state"
)

// ParseActType validates an act type string
func ParseActType(s string) (ActType, error) {
	switch ActType(s) {
	case ActCentral, ActState:
		return ActType(s), nil
	}
	return "", &UnknownValueError{Field: "act type", Value: s}
}

// BookmarkType returns the bookmark type used for acts of this kind
func (t ActType) BookmarkType() BookmarkType {
	if t == ActState {
		return BookmarkStateAct
	}
	return BookmarkCentralAct
}

// FilterKind returns the filter shape used when listing acts of this kind
func (t ActType) FilterKind() FilterKind {
	if t == ActState {
		return KindStateAct
	}
	return KindCentralAct
}

// Act represents a central or state act
type Act struct {
	ID         int64  `json:"id"`
	ActID      string `json:"act_id,omitempty"` // Official act identifier
	Title      string `json:"short_title,omitempty"`
	Year       int    `json:"year,omitempty"`
	Ministry   string `json:"ministry,omitempty"`
	Department string `json:"department,omitempty"`
	State      string `json:"state,omitempty"` // Only set for state acts
	PDFLink    string `json:"pdf_link,omitempty"`
}
