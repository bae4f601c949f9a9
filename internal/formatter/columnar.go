package formatter

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

const (
	sepWidth    = 2
	minColWidth = 3
	maxColWidth = 40
)

// RenderTable renders records as a multi-column table with a row-number
// column, one column per spec. Column widths grow to fit their content, are
// capped by Spec.Width, and shrink proportionally to fit opts.Width.
func RenderTable(cols *column.Set, records []record.Record, opts Options) string {
	specs := cols.Specs()
	if len(specs) == 0 {
		return ""
	}
	headers := make([]string, len(specs))
	for i, s := range specs {
		headers[i] = s.Title()
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(specs))
		for j, s := range specs {
			row[j] = cell(s, r)
		}
		rows[i] = row
	}

	rowNumWidth := len(fmt.Sprintf("%d", max(len(records), 1))) + 1
	available := opts.width() - rowNumWidth - sepWidth
	widths := ColumnWidths(headers, rows, available, caps(specs))

	var b strings.Builder
	parts := make([]string, 0, len(specs)+1)
	parts = append(parts, style(headerStyle, padRight("#", rowNumWidth), opts.NoColor))
	for i, h := range headers {
		parts = append(parts, style(headerStyle, padRight(h, widths[i]), opts.NoColor))
	}
	b.WriteString(strings.Join(parts, strings.Repeat(" ", sepWidth)) + "\n")

	total := rowNumWidth
	for _, w := range widths {
		total += sepWidth + w
	}
	b.WriteString(style(separatorStyle, strings.Repeat("─", total), opts.NoColor) + "\n")

	for i, row := range rows {
		parts = parts[:0]
		parts = append(parts, style(keyStyle, padRight(fmt.Sprintf("%d", i+1), rowNumWidth), opts.NoColor))
		for j, val := range row {
			var s string
			if specs[j].Kind == column.KindNumber {
				s = padLeft(val, widths[j])
			} else {
				s = padRight(val, widths[j])
			}
			parts = append(parts, style(valueStyle, s, opts.NoColor))
		}
		b.WriteString(strings.Join(parts, strings.Repeat(" ", sepWidth)) + "\n")
	}
	if len(records) == 0 {
		b.WriteString(style(valueStyle, "(no matching records)", opts.NoColor) + "\n")
	}
	return b.String()
}

func caps(specs []column.Spec) []int {
	out := make([]int, len(specs))
	for i, s := range specs {
		out[i] = s.Width
	}
	return out
}

func style(st lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return st.Render(s)
}

// ColumnWidths sizes each column to its widest cell, applies the per-column
// caps, then shrinks to fit available.
func ColumnWidths(headers []string, rows [][]string, available int, colCaps []int) []int {
	n := len(headers)
	widths := make([]int, n)
	for i, h := range headers {
		widths[i] = max(runewidth.StringWidth(h), minColWidth)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < n {
				widths[i] = max(widths[i], runewidth.StringWidth(val))
			}
		}
	}
	for i := range widths {
		if i < len(colCaps) && colCaps[i] > 0 && widths[i] > colCaps[i] {
			widths[i] = max(colCaps[i], minColWidth)
		}
	}

	usable := available - (n-1)*sepWidth
	if usable <= 0 || sum(widths) <= usable {
		return widths
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}
	if sum(widths) <= usable {
		return widths
	}
	totalOriginal := sum(widths)
	for i := range widths {
		widths[i] = max(widths[i]*usable/totalOriginal, minColWidth)
	}
	// Rounding can leave the total over budget; trim the widest column.
	for sum(widths) > usable {
		widest := 0
		for i := 1; i < n; i++ {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}
