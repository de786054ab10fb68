package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilters_SetReturnsCopy(t *testing.T) {
	orig := HighCourtFilters{Judge: "Sharma"}

	updated, err := orig.Set("court_name", "Delhi High Court")
	require.NoError(t, err)

	assert.Equal(t, "", orig.CourtName, "original must not be mutated")
	assert.Equal(t, map[string]string{
		"judge":      "Sharma",
		"court_name": "Delhi High Court",
	}, updated.Values())
	assert.Equal(t, KindHighCourt, updated.Kind())
}

func TestFilters_UnknownName(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		field   string
	}{
		{"supreme court has no cnr", SupremeCourtFilters{}, "cnr"},
		{"high court has no petitioner", HighCourtFilters{}, "petitioner"},
		{"central act has no state", ActFilters{Type: ActCentral}, "state"},
		{"mapping has no judge", MappingFilters{}, "judge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.filters.Set(tt.field, "x")
			var ufe *UnknownFilterError
			require.True(t, errors.As(err, &ufe), "expected UnknownFilterError, got %v", err)
			assert.Equal(t, tt.field, ufe.Name)
			assert.Equal(t, tt.filters.Kind(), ufe.Kind)
		})
	}
}

func TestFilters_StateActAcceptsState(t *testing.T) {
	f, err := DefaultFilters(KindStateAct).Set("state", "Kerala")
	require.NoError(t, err)
	assert.Equal(t, "Kerala", f.Values()["state"])
	assert.Equal(t, KindStateAct, f.Kind())
}

func TestMappingFilters_ValidatesType(t *testing.T) {
	f := DefaultFilters(KindMapping)
	assert.Equal(t, "bns_ipc", f.Values()["mapping_type"])

	f, err := f.Set("mapping_type", "bsa_iea")
	require.NoError(t, err)
	assert.Equal(t, "bsa_iea", f.Values()["mapping_type"])

	_, err = f.Set("mapping_type", "gst_vat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gst_vat")
}

func TestDefaultFilters_Shapes(t *testing.T) {
	assert.IsType(t, HighCourtFilters{}, DefaultFilters(KindHighCourt))
	assert.IsType(t, SupremeCourtFilters{}, DefaultFilters(KindSupremeCourt))
	assert.IsType(t, MappingFilters{}, DefaultFilters(KindMapping))
	assert.IsType(t, ActFilters{}, DefaultFilters(KindCentralAct))
	assert.Empty(t, DefaultFilters(KindSupremeCourt).Values())
}

func TestFilters_Names(t *testing.T) {
	assert.Equal(t, []string{"case_title", "judge", "petitioner", "respondent", "search", "year"}, SupremeCourtFilters{}.Names())
	assert.Contains(t, ActFilters{Type: ActState}.Names(), "state")
	assert.NotContains(t, ActFilters{Type: ActCentral}.Names(), "state")
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor("2024-03-01:812")
	require.NoError(t, err)
	assert.Equal(t, Cursor{ID: 812, DecisionDate: "2024-03-01"}, c)
	assert.Equal(t, "2024-03-01:812", c.String())

	c, err = ParseCursor("99")
	require.NoError(t, err)
	assert.Equal(t, Cursor{ID: 99}, c)

	_, err = ParseCursor("2024-03-01:")
	assert.Error(t, err)
}
