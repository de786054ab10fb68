package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ppiankov/nyaya/internal/model"
)

// Markdown renders md for the terminal. An empty style picks one from the
// terminal background; "notty" produces plain text.
func Markdown(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// JudgmentsMarkdown lists judgments as a Markdown table
func JudgmentsMarkdown(title string, judgments []model.Judgment) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}
	b.WriteString("| ID | Decided | Court | Title | CNR |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, j := range judgments {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			j.ID, orDash(j.DecisionDate), mdCell(j.CourtName), mdCell(j.Title()), orDash(j.CNR))
	}
	return b.String()
}

func mdCell(s string) string {
	return orDash(strings.ReplaceAll(s, "|", `\|`))
}
