package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/dvx/internal/config"
)

// Styles holds the lipgloss styles of the collection view.
type Styles struct {
	Header       lipgloss.Style
	Search       lipgloss.Style
	Status       lipgloss.Style
	Error        lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	CardTitle    lipgloss.Style
	Modal        lipgloss.Style

	accent   color.Color
	header   color.Color
	selected color.Color
}

var (
	defaultAccent   = lipgloss.Color("#7D56F4")
	defaultHeader   = lipgloss.Color("#FAFAFA")
	defaultBorder   = lipgloss.Color("240")
	defaultMuted    = lipgloss.Color("245")
	defaultSelected = lipgloss.Color("14")
	errorColor      = lipgloss.Color("9")
)

func pick(s string, def color.Color) color.Color {
	if s == "" {
		return def
	}
	return lipgloss.Color(s)
}

// NewStyles builds styles from the configured theme. With noColor every
// style keeps its layout but drops colors.
func NewStyles(th config.Theme, noColor bool) Styles {
	if noColor {
		plainBorder := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
		return Styles{
			Header:       lipgloss.NewStyle().Bold(true),
			Search:       lipgloss.NewStyle(),
			Status:       lipgloss.NewStyle(),
			Error:        lipgloss.NewStyle().Bold(true),
			Card:         plainBorder,
			SelectedCard: plainBorder.Border(lipgloss.DoubleBorder()),
			CardTitle:    lipgloss.NewStyle().Bold(true),
			Modal:        plainBorder.Padding(1, 2),
		}
	}
	accent := pick(th.Accent, defaultAccent)
	header := pick(th.Header, defaultHeader)
	border := pick(th.Border, defaultBorder)
	muted := pick(th.Muted, defaultMuted)
	selected := pick(th.Selected, defaultSelected)

	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
	return Styles{
		Header:       lipgloss.NewStyle().Bold(true).Foreground(header).Background(accent).Padding(0, 1),
		Search:       lipgloss.NewStyle().Foreground(muted),
		Status:       lipgloss.NewStyle().Foreground(muted),
		Error:        lipgloss.NewStyle().Bold(true).Foreground(errorColor),
		Card:         card,
		SelectedCard: card.BorderForeground(selected),
		CardTitle:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Modal:        card.BorderForeground(accent).Padding(1, 2),
		accent:       accent,
		header:       header,
		selected:     selected,
	}
}
