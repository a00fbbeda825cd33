package output

import "github.com/charmbracelet/lipgloss"

// Color palette. One lime accent keeps results scannable without turning
// the terminal into a fruit salad.
const (
	ColorLime     = "154" // primary accent, titles and scores
	ColorLimeDim  = "106" // secondary accent, roles
	ColorWhite    = "255" // important text
	ColorGray     = "245" // metadata, timestamps
	ColorDarkGray = "238" // separators, ids
	ColorRed      = "196" // errors
	ColorYellow   = "220" // warnings
)

// Styles holds the lipgloss styles used to render results.
type Styles struct {
	Title     lipgloss.Style
	ID        lipgloss.Style
	Score     lipgloss.Style
	Meta      lipgloss.Style
	Snippet   lipgloss.Style
	Role      lipgloss.Style
	Separator lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		ID:        lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Score:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Snippet:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		Role:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLimeDim)),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),

		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns pass-through styles for plain output.
func NoColorStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle(),
		ID:        lipgloss.NewStyle(),
		Score:     lipgloss.NewStyle(),
		Meta:      lipgloss.NewStyle(),
		Snippet:   lipgloss.NewStyle(),
		Role:      lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle(),
		Success:   lipgloss.NewStyle(),
		Warning:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
	}
}

// GetStyles returns the styles matching the color decision.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
