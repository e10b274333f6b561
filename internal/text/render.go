package text

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var palette = map[Color]lipgloss.Style{
	Default: lipgloss.NewStyle(),
	Red:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	Green:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	Blue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	Gray:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	Yellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
}

// Render styles each segment for a terminal.
func Render(s Str) string {
	var b strings.Builder
	for _, seg := range s.segments {
		style, ok := palette[seg.Color]
		if !ok {
			style = palette[Default]
		}
		b.WriteString(style.Render(seg.Text))
	}
	return b.String()
}
