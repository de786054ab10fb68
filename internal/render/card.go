package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/nyaya/internal/model"
)

type field struct {
	label string
	value string
}

func card(styles Styles, title string, fields []field, width int) string {
	lines := []string{styles.Title.Render(title), ""}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, styles.Label.Render(f.label), f.value))
	}

	style := styles.Card
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// JudgmentCard renders the full record of one judgment
func JudgmentCard(styles Styles, j model.Judgment, width int) string {
	return card(styles, j.Title(), []field{
		{"ID", strconv.FormatInt(j.ID, 10)},
		{"Court", j.CourtName},
		{"Case no.", j.CaseNumber},
		{"Decided", j.DecisionDate},
		{"Coram", j.Judge},
		{"Petitioner", j.Petitioner},
		{"Respondent", j.Respondent},
		{"CNR", j.CNR},
		{"PDF", j.PDFLink},
	}, width)
}

// MappingCard renders one law mapping
func MappingCard(styles Styles, m model.LawMapping, width int) string {
	return card(styles, m.Title(), []field{
		{"ID", strconv.FormatInt(m.ID, 10)},
		{"Type", string(m.MappingType)},
		{"Subject", m.Subject},
		{"Summary", StripHTML(m.Summary)},
	}, width)
}
