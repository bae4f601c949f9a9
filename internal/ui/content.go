package ui

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/dvx/internal/formatter"
	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/slot"
)

const (
	minCardWidth = 24
	maxCardWidth = 40
)

func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (m *Model) tableContent(slot.Context) any {
	return m.table.View()
}

func (m *Model) cardsContent(ctx slot.Context) any {
	if len(ctx.Records) == 0 {
		return m.styles.Status.Render("(no matching records)")
	}
	cols := m.ctrl.Columns()
	width := max(ctx.Width, minCardWidth)
	outer := min(width, maxCardWidth)
	// border and padding take two cells on each side
	inner := outer - 4
	perRow := max(1, (width+1)/(outer+1))

	fields := cols.Len() - 1
	if m.opts.CardFields > 0 {
		fields = min(fields, m.opts.CardFields)
	}
	cardHeight := fields + 3
	visibleRows := max(1, m.bodyHeight()/cardHeight)
	cursorRow := m.cursor / perRow
	firstRow := max(0, cursorRow-visibleRows+1)

	rows := make([]string, 0, visibleRows)
	for row := firstRow; row < firstRow+visibleRows; row++ {
		start := row * perRow
		if start >= len(ctx.Records) {
			break
		}
		end := min(start+perRow, len(ctx.Records))
		cards := make([]string, 0, 2*(end-start))
		for i := start; i < end; i++ {
			if i > start {
				cards = append(cards, " ")
			}
			cards = append(cards, m.card(cols, ctx.Records[i], inner, i == m.cursor, slices.Contains(ctx.Selection, i)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) card(cols *column.Set, r record.Record, inner int, cursor, selected bool) string {
	title, lines := formatter.CardLines(cols, r, m.opts.CardFields)
	if selected {
		title = "✓ " + title
	}
	body := make([]string, 0, len(lines)+1)
	body = append(body, m.styles.CardTitle.Render(runewidth.FillRight(truncate(title, inner), inner)))
	for _, l := range lines {
		body = append(body, runewidth.FillRight(truncate(l, inner), inner))
	}
	st := m.styles.Card
	if cursor {
		st = m.styles.SelectedCard
	}
	return st.Render(strings.Join(body, "\n"))
}

func (m *Model) headerContent(ctx slot.Context) any {
	name := m.opts.AppName
	if name == "" {
		name = "dvx"
	}
	mode := "auto"
	if ctx.Override != "" {
		mode = "manual"
	}
	parts := []string{
		name,
		fmt.Sprintf("%d/%d records", len(ctx.Records), ctx.Total),
		fmt.Sprintf("view: %s (%s)", m.viewLabel(ctx.ActiveView), mode),
	}
	if !ctx.Sort.IsZero() {
		parts = append(parts, fmt.Sprintf("%s sort: %s", ctx.SortMode, ctx.Sort))
	}
	if len(ctx.Selection) > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", len(ctx.Selection)))
	}
	return m.styles.Header.Render(truncate(strings.Join(parts, " · "), max(ctx.Width-2, 0)))
}

func (m *Model) searchContent(ctx slot.Context) any {
	var line string
	switch {
	case m.mode == modeSearch:
		line = "search: " + m.input.View()
	case m.mode == modeFilter:
		title := m.filterKey
		if spec, ok := m.ctrl.Columns().Lookup(m.filterKey); ok {
			title = spec.Title()
		}
		line = "filter " + title + ": " + m.input.View()
	case ctx.Filter.FreeText != "":
		line = "search: " + ctx.Filter.FreeText
	case ctx.Filter.HasColumnFilters():
		keys := make([]string, 0, len(ctx.Filter.Columns))
		for k := range ctx.Filter.Columns {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + ctx.Filter.Columns[k]
		}
		line = "filters: " + strings.Join(pairs, ", ")
	default:
		line = "/ search · f filter · tab column · ? help"
	}
	if m.mode != modeBrowse {
		return line
	}
	return m.styles.Search.Render(truncate(line, ctx.Width))
}

func (m *Model) helpContent(ctx slot.Context) any {
	var b strings.Builder
	title := m.opts.AppName
	if title == "" {
		title = "dvx"
	}
	b.WriteString(m.styles.CardTitle.Render(title+" help") + "\n\n")
	if text := strings.TrimSpace(m.opts.HelpText); text != "" {
		b.WriteString(text + "\n\n")
	}
	keyWidth := 0
	for _, kb := range helpBindings {
		keyWidth = max(keyWidth, runewidth.StringWidth(kb.keys))
	}
	for i, kb := range helpBindings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(runewidth.FillRight(kb.keys, keyWidth) + "  " + kb.help)
	}
	return m.styles.Modal.Render(b.String())
}
