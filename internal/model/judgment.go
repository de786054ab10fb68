package model

// Judgment represents a High Court or Supreme Court judgment as returned by the backend
type Judgment struct {
	ID           int64  `json:"id"`
	CaseTitle    string `json:"case_title,omitempty"`    // "A vs B"
	CaseNumber   string `json:"case_number,omitempty"`   // Court-assigned case number
	CourtName    string `json:"court_name,omitempty"`    // e.g. "High Court of Delhi"
	Judge        string `json:"judge,omitempty"`         // Bench, comma separated when multiple
	Petitioner   string `json:"petitioner,omitempty"`
	Respondent   string `json:"respondent,omitempty"`
	DecisionDate string `json:"decision_date,omitempty"` // YYYY-MM-DD, also part of the High Court cursor
	CNR          string `json:"cnr,omitempty"`           // Case Number Record
	PDFLink      string `json:"pdf_link,omitempty"`
}

// Title returns the best available display title
func (j Judgment) Title() string {
	switch {
	case j.CaseTitle != "":
		return j.CaseTitle
	case j.Petitioner != "" && j.Respondent != "":
		return j.Petitioner + " vs " + j.Respondent
	case j.CaseNumber != "":
		return j.CaseNumber
	default:
		return j.CNR
	}
}

// CursorAfter returns the cursor that points past this judgment.
// High Court listings are ordered by (decision_date, id); Supreme Court by id only.
func (j Judgment) CursorAfter(kind FilterKind) Cursor {
	if kind == KindHighCourt {
		return Cursor{ID: j.ID, DecisionDate: j.DecisionDate}
	}
	return Cursor{ID: j.ID}
}

// CourtType distinguishes the two judgment collections
type CourtType string

const (
	CourtHigh    CourtType = "high"
	CourtSupreme CourtType = "supreme"
)

// FilterKind returns the filter shape used when listing judgments of this court type
func (c CourtType) FilterKind() FilterKind {
	if c == CourtSupreme {
		return KindSupremeCourt
	}
	return KindHighCourt
}

// ParseCourtType accepts the short and long spellings used on the command line
func ParseCourtType(s string) (CourtType, error) {
	switch s {
	case "high", "hc", "high_court":
		return CourtHigh, nil
	case "supreme", "sc", "supreme_court":
		return CourtSupreme, nil
	default:
		return "", &UnknownValueError{Field: "court type", Value: s}
	}
}
