package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/nyaya/internal/model"
)

// Output formats
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Printer writes listings in the configured format
type Printer struct {
	out     io.Writer
	format  string
	styles  Styles
	mdStyle string
	width   int
}

// NewPrinter creates a printer. Unknown formats fall back to table.
func NewPrinter(out io.Writer, format string) *Printer {
	switch format {
	case FormatJSON, FormatMarkdown:
	default:
		format = FormatTable
	}
	return &Printer{out: out, format: format, styles: DefaultStyles(), width: 100}
}

// WithMarkdownStyle sets the glamour style; "notty" disables colour
func (p *Printer) WithMarkdownStyle(style string) *Printer {
	p.mdStyle = style
	return p
}

// Format returns the active output format
func (p *Printer) Format() string {
	return p.format
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (p *Printer) table(t *Table, footer string) error {
	if _, err := io.WriteString(p.out, t.View(p.styles)); err != nil {
		return err
	}
	if footer != "" {
		_, err := fmt.Fprintln(p.out, p.styles.Muted.Render(footer))
		return err
	}
	return nil
}

func (p *Printer) markdown(md string) error {
	out, err := Markdown(md, p.mdStyle, p.width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.out, out)
	return err
}

// Judgments prints one page of judgments
func (p *Printer) Judgments(title string, page *model.Page[model.Judgment]) error {
	switch p.format {
	case FormatJSON:
		return p.JSON(page)
	case FormatMarkdown:
		_, err := io.WriteString(p.out, JudgmentsMarkdown(title, page.Data))
		return err
	}
	footer := Footer(len(page.Data), page.Pagination.Total, page.HasMore())
	if c := page.Pagination.NextCursor; c != nil && page.HasMore() {
		footer += fmt.Sprintf(" (next: --cursor %s)", c)
	}
	return p.table(JudgmentsTable(title, page.Data), footer)
}

// Judgment prints a single judgment
func (p *Printer) Judgment(j model.Judgment) error {
	if p.format == FormatJSON {
		return p.JSON(j)
	}
	_, err := fmt.Fprintln(p.out, JudgmentCard(p.styles, j, 0))
	return err
}

// Mappings prints one page of law mappings
func (p *Printer) Mappings(title string, page *model.Page[model.LawMapping]) error {
	if p.format == FormatJSON {
		return p.JSON(page)
	}
	return p.table(MappingsTable(title, page.Data), Footer(len(page.Data), page.Pagination.Total, page.HasMore()))
}

// Acts prints one page of acts
func (p *Printer) Acts(title string, page *model.Page[model.Act]) error {
	if p.format == FormatJSON {
		return p.JSON(page)
	}
	return p.table(ActsTable(title, page.Data), Footer(len(page.Data), page.Pagination.Total, page.HasMore()))
}

// Bookmarks prints the user's bookmarks
func (p *Printer) Bookmarks(bookmarks []model.Bookmark, hasMore bool) error {
	if p.format == FormatJSON {
		return p.JSON(bookmarks)
	}
	return p.table(BookmarksTable("Bookmarks", bookmarks), Footer(len(bookmarks), 0, hasMore))
}

// Sessions prints the user's active sessions
func (p *Printer) Sessions(sessions []model.SessionInfo) error {
	if p.format == FormatJSON {
		return p.JSON(sessions)
	}
	return p.table(SessionsTable("Sessions", sessions), "")
}

// Brief prints a research brief; md is the brief as a Markdown document
func (p *Printer) Brief(brief *model.Brief, md string) error {
	if p.format == FormatJSON {
		return p.JSON(brief)
	}
	if md == "" {
		return nil
	}
	if p.format == FormatMarkdown {
		_, err := io.WriteString(p.out, md)
		return err
	}
	return p.markdown(md)
}
