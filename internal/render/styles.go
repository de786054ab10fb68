package render

import "github.com/charmbracelet/lipgloss"

var (
	Accent = lipgloss.Color("#D97706") // Saffron
	Muted  = lipgloss.Color("#6B7280")
	Good   = lipgloss.Color("#16A34A")
	Bad    = lipgloss.Color("#DC2626")
)

// Styles groups the lipgloss styles shared by table, card and browser output
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Card     lipgloss.Style
	Label    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Marker   lipgloss.Style
}

// DefaultStyles returns the standard palette
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Header:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
		Muted:    lipgloss.NewStyle().Foreground(Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(0, 1),
		Label:   lipgloss.NewStyle().Bold(true).Width(12),
		Success: lipgloss.NewStyle().Foreground(Good),
		Error:   lipgloss.NewStyle().Foreground(Bad),
		Marker:  lipgloss.NewStyle().Foreground(Accent),
	}
}
