package model

import "fmt"

// MappingType identifies which repealed/replacement statute pair a mapping belongs to
type MappingType string

const (
	MappingBNSIPC   MappingType = "bns_ipc"   // Bharatiya Nyaya Sanhita ← Indian Penal Code
	MappingBSAIEA   MappingType = "bsa_iea"   // Bharatiya Sakshya Adhiniyam ← Indian Evidence Act
	MappingBNSSCrPC MappingType = "bnss_crpc" // Bharatiya Nagarik Suraksha Sanhita ← Code of Criminal Procedure
)

// MappingTypes lists every supported mapping type in display order
var MappingTypes = []MappingType{MappingBNSIPC, MappingBSAIEA, MappingBNSSCrPC}

// Valid reports whether t is one of the supported mapping types
func (t MappingType) Valid() bool {
	switch t {
	case MappingBNSIPC, MappingBSAIEA, MappingBNSSCrPC:
		return true
	}
	return false
}

// BookmarkType returns the bookmark type used for mappings of this kind
func (t MappingType) BookmarkType() BookmarkType {
	return BookmarkType(string(t) + "_mapping")
}

// ParseMappingType validates a mapping type string
func ParseMappingType(s string) (MappingType, error) {
	t := MappingType(s)
	if !t.Valid() {
		return "", &UnknownValueError{Field: "mapping type", Value: s}
	}
	return t, nil
}

// LawMapping cross-references a repealed section with its replacement
type LawMapping struct {
	ID            int64       `json:"id"`
	MappingType   MappingType `json:"mapping_type"`
	SourceSection string      `json:"source_section,omitempty"` // Section in the repealed statute
	TargetSection string      `json:"target_section,omitempty"` // Corresponding section in the new statute
	Subject       string      `json:"subject,omitempty"`
	Summary       string      `json:"summary,omitempty"` // May contain HTML markup
}

// Title returns a one-line description of the mapping
func (m LawMapping) Title() string {
	return fmt.Sprintf("%s → %s", m.SourceSection, m.TargetSection)
}

// UnknownValueError is returned when an enumerated value is not recognised
type UnknownValueError struct {
	Field string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Field, e.Value)
}
