package formatter

import (
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

const (
	minCardWidth = 24
	maxCardWidth = 40
	cardGap      = 1
)

// CardLines returns the title and "Header: value" lines of one card. The
// first column is the title; at most fields further columns follow.
func CardLines(cols *column.Set, r record.Record, fields int) (string, []string) {
	specs := cols.Specs()
	if len(specs) == 0 {
		return "", nil
	}
	title := cell(specs[0], r)
	rest := specs[1:]
	if fields > 0 && len(rest) > fields {
		rest = rest[:fields]
	}
	labelWidth := 0
	for _, s := range rest {
		labelWidth = max(labelWidth, runewidth.StringWidth(s.Title()))
	}
	lines := make([]string, 0, len(rest))
	for _, s := range rest {
		lines = append(lines, runewidth.FillRight(s.Title()+":", labelWidth+1)+" "+cell(s, r))
	}
	return title, lines
}

// RenderCard draws one bordered card whose content is inner cells wide.
func RenderCard(cols *column.Set, r record.Record, inner, fields int, noColor bool) string {
	title, lines := CardLines(cols, r, fields)
	body := make([]string, 0, len(lines)+1)
	body = append(body, style(titleStyle, padRight(title, inner), noColor))
	for _, l := range lines {
		body = append(body, style(valueStyle, padRight(l, inner), noColor))
	}
	box := cardStyle
	if noColor {
		box = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	}
	return box.Render(strings.Join(body, "\n"))
}

// RenderCards lays records out as a grid of cards filling opts.Width.
func RenderCards(cols *column.Set, records []record.Record, opts Options) string {
	if cols.Len() == 0 {
		return ""
	}
	if len(records) == 0 {
		return style(valueStyle, "(no matching records)", opts.NoColor) + "\n"
	}
	width := opts.width()
	// border and padding take two cells on each side
	outer := min(max(width, minCardWidth), maxCardWidth)
	inner := outer - 4
	perRow := max(1, (width+cardGap)/(outer+cardGap))

	var b strings.Builder
	for start := 0; start < len(records); start += perRow {
		end := min(start+perRow, len(records))
		row := make([]string, 0, 2*(end-start))
		for i := start; i < end; i++ {
			if i > start {
				row = append(row, strings.Repeat(" ", cardGap))
			}
			row = append(row, RenderCard(cols, records[i], inner, opts.CardFields, opts.NoColor))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteString("\n")
	}
	return b.String()
}

// CompactLine renders one record on a single line of at most width cells.
func CompactLine(cols *column.Set, r record.Record, width, fields int) string {
	title, lines := CardLines(cols, r, fields)
	parts := make([]string, 0, len(lines)+1)
	if title != "" {
		parts = append(parts, title)
	}
	for _, l := range lines {
		parts = append(parts, strings.Join(strings.Fields(l), " "))
	}
	return truncate("• "+strings.Join(parts, " · "), width)
}

// RenderCompact renders one line per record.
func RenderCompact(cols *column.Set, records []record.Record, opts Options) string {
	if cols.Len() == 0 {
		return ""
	}
	if len(records) == 0 {
		return style(valueStyle, "(no matching records)", opts.NoColor) + "\n"
	}
	width := opts.width()
	var b strings.Builder
	for _, r := range records {
		b.WriteString(style(valueStyle, CompactLine(cols, r, width, opts.CardFields), opts.NoColor))
		b.WriteString("\n")
	}
	return b.String()
}
