package model

import (
	"fmt"
	"sort"
)

// FilterKind tags which concrete filter shape a Filters value carries
type FilterKind string

const (
	KindHighCourt    FilterKind = "high_court"
	KindSupremeCourt FilterKind = "supreme_court"
	KindMapping      FilterKind = "law_mapping"
	KindCentralAct   FilterKind = "central_act"
	KindStateAct     FilterKind = "state_act"
)

// Filters is the closed set of list filter shapes.
// Implementations are value types; Set returns a modified copy.
type Filters interface {
	Kind() FilterKind
	Set(name, value string) (Filters, error)
	Values() map[string]string
	Names() []string
	sealed()
}

// HighCourtFilters narrows a High Court judgment listing
type HighCourtFilters struct {
	Search           string
	CourtName        string
	Judge            string
	CaseTitle        string
	CNR              string
	Year             string
	DecisionDateFrom string
	DecisionDateTo   string
}

// SupremeCourtFilters narrows a Supreme Court judgment listing
type SupremeCourtFilters struct {
	Search     string
	Judge      string
	CaseTitle  string
	Petitioner string
	Respondent string
	Year       string
}

// MappingFilters narrows a law mapping listing
type MappingFilters struct {
	MappingType MappingType
	Search      string
}

// ActFilters narrows a central or state act listing
type ActFilters struct {
	Type     ActType
	Search   string
	Year     string
	Ministry string
	State    string // Only accepted for state acts
}

// DefaultFilters returns the empty filter shape for kind
func DefaultFilters(kind FilterKind) Filters {
	switch kind {
	case KindSupremeCourt:
		return SupremeCourtFilters{}
	case KindMapping:
		return MappingFilters{MappingType: MappingBNSIPC}
	case KindCentralAct:
		return ActFilters{Type: ActCentral}
	case KindStateAct:
		return ActFilters{Type: ActState}
	default:
		return HighCourtFilters{}
	}
}

func (HighCourtFilters) Kind() FilterKind    { return KindHighCourt }
func (SupremeCourtFilters) Kind() FilterKind { return KindSupremeCourt }
func (MappingFilters) Kind() FilterKind      { return KindMapping }
func (f ActFilters) Kind() FilterKind        { return f.Type.FilterKind() }

func (HighCourtFilters) sealed()    {}
func (SupremeCourtFilters) sealed() {}
func (MappingFilters) sealed()      {}
func (ActFilters) sealed()          {}

func (f *HighCourtFilters) fields() map[string]*string {
	return map[string]*string{
		"search":             &f.Search,
		"court_name":         &f.CourtName,
		"judge":              &f.Judge,
		"case_title":         &f.CaseTitle,
		"cnr":                &f.CNR,
		"year":               &f.Year,
		"decision_date_from": &f.DecisionDateFrom,
		"decision_date_to":   &f.DecisionDateTo,
	}
}

func (f *SupremeCourtFilters) fields() map[string]*string {
	return map[string]*string{
		"search":     &f.Search,
		"judge":      &f.Judge,
		"case_title": &f.CaseTitle,
		"petitioner": &f.Petitioner,
		"respondent": &f.Respondent,
		"year":       &f.Year,
	}
}

func (f *ActFilters) fields() map[string]*string {
	m := map[string]*string{
		"search":   &f.Search,
		"year":     &f.Year,
		"ministry": &f.Ministry,
	}
	if f.Type == ActState {
		m["state"] = &f.State
	}
	return m
}

// Set returns a copy of f with the named filter replaced
func (f HighCourtFilters) Set(name, value string) (Filters, error) {
	if err := setField(f.Kind(), f.fields(), name, value); err != nil {
		return nil, err
	}
	return f, nil
}

// Set returns a copy of f with the named filter replaced
func (f SupremeCourtFilters) Set(name, value string) (Filters, error) {
	if err := setField(f.Kind(), f.fields(), name, value); err != nil {
		return nil, err
	}
	return f, nil
}

// Set returns a copy of f with the named filter replaced
func (f ActFilters) Set(name, value string) (Filters, error) {
	if err := setField(f.Kind(), f.fields(), name, value); err != nil {
		return nil, err
	}
	return f, nil
}

// Set returns a copy of f with the named filter replaced.
// mapping_type must be one of the supported mapping types.
func (f MappingFilters) Set(name, value string) (Filters, error) {
	switch name {
	case "mapping_type":
		t, err := ParseMappingType(value)
		if err != nil {
			return nil, err
		}
		f.MappingType = t
	case "search":
		f.Search = value
	default:
		return nil, &UnknownFilterError{Kind: f.Kind(), Name: name}
	}
	return f, nil
}

// Values returns the non-empty filters keyed by query parameter name
func (f HighCourtFilters) Values() map[string]string    { return collect(f.fields()) }
func (f SupremeCourtFilters) Values() map[string]string { return collect(f.fields()) }
func (f ActFilters) Values() map[string]string          { return collect(f.fields()) }

// Values returns the non-empty filters keyed by query parameter name
func (f MappingFilters) Values() map[string]string {
	m := map[string]string{"mapping_type": string(f.MappingType)}
	if f.Search != "" {
		m["search"] = f.Search
	}
	return m
}

// Names returns the accepted filter names, sorted
func (f HighCourtFilters) Names() []string    { return names(f.fields()) }
func (f SupremeCourtFilters) Names() []string { return names(f.fields()) }
func (f ActFilters) Names() []string          { return names(f.fields()) }
func (f MappingFilters) Names() []string      { return []string{"mapping_type", "search"} }

func setField(kind FilterKind, fields map[string]*string, name, value string) error {
	p, ok := fields[name]
	if !ok {
		return &UnknownFilterError{Kind: kind, Name: name}
	}
	*p = value
	return nil
}

func collect(fields map[string]*string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, p := range fields {
		if *p != "" {
			out[name] = *p
		}
	}
	return out
}

func names(fields map[string]*string) []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UnknownFilterError is returned when a filter name does not exist for a filter kind
type UnknownFilterError struct {
	Kind FilterKind
	Name string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown %s filter %q", e.Kind, e.Name)
}
