// Package table wraps the bubbles table for a derived record collection.
package table

import (
	"fmt"
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/dvx/internal/formatter"
	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/record"
)

type (
	Column = bubtable.Column
	Row    = bubtable.Row
)

// Sort direction markers appended to header titles.
const (
	AscMarker  = " ▲"
	DescMarker = " ▼"
)

// Model displays records one row per record with one column per spec. The
// focused column is the one the sort and filter keys act on.
type Model struct {
	table   bubtable.Model
	styles  bubtable.Styles
	cols    *column.Set
	records []record.Record
	sort    filter.SortSpec
	focus   int

	width   int
	height  int
	noColor bool

	headerFG   color.Color
	headerBG   color.Color
	selectedFG color.Color
	selectedBG color.Color
}

// New creates a table for cols.
func New(cols *column.Set) *Model {
	t := bubtable.New(
		bubtable.WithFocused(true),
		bubtable.WithHeight(5),
	)

	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	s.Selected = s.Selected.
		PaddingLeft(0).
		PaddingRight(0)
	s.Cell = lipgloss.NewStyle().
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(1)
	t.SetStyles(s)

	m := &Model{
		table:  t,
		styles: s,
		cols:   cols,
		width:  80,
		height: 10,
	}
	m.layout()
	return m
}

// SetRecords replaces the rows. The cursor is kept when still in range.
func (m *Model) SetRecords(records []record.Record) {
	m.records = records
	m.layout()
	if m.Cursor() >= len(records) {
		m.SetCursor(max(len(records)-1, 0))
	}
}

// Records returns the displayed records.
func (m *Model) Records() []record.Record {
	return m.records
}

// SetSort marks the sorted column in the header.
func (m *Model) SetSort(spec filter.SortSpec) {
	if spec == m.sort {
		return
	}
	m.sort = spec
	m.layout()
}

// FocusedColumn returns the spec of the focused column.
func (m *Model) FocusedColumn() (column.Spec, bool) {
	specs := m.cols.Specs()
	if len(specs) == 0 {
		return column.Spec{}, false
	}
	return specs[m.focus], true
}

// NextColumn moves column focus right, wrapping around.
func (m *Model) NextColumn() column.Spec {
	if n := m.cols.Len(); n > 0 {
		m.focus = (m.focus + 1) % n
	}
	m.layout()
	spec, _ := m.FocusedColumn()
	return spec
}

func (m *Model) layout() {
	specs := m.cols.Specs()
	headers := make([]string, len(specs))
	for i, s := range specs {
		headers[i] = s.Title()
		if s.Key == m.sort.Field {
			switch m.sort.Direction {
			case filter.Ascending:
				headers[i] += AscMarker
			case filter.Descending:
				headers[i] += DescMarker
			}
		}
		if i == m.focus && len(specs) > 1 {
			headers[i] = "[" + headers[i] + "]"
		}
	}
	rows := make([]Row, len(m.records))
	cells := make([][]string, len(m.records))
	for i, r := range m.records {
		row := make(Row, len(specs))
		for j, s := range specs {
			row[j] = formatter.Stringify(cellValue(s, r))
		}
		rows[i] = row
		cells[i] = row
	}
	// each cell carries one cell of right padding
	widths := formatter.ColumnWidths(headers, cells, m.width-len(specs), caps(specs))
	columns := make([]Column, len(specs))
	for i, h := range headers {
		columns[i] = Column{Title: h, Width: widths[i]}
	}
	// Rows must shrink before columns change so the table never indexes a
	// row with fewer cells than columns.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetWidth(m.width)
}

func cellValue(s column.Spec, r record.Record) any {
	v, ok := r.Get(s.Key)
	if !ok || record.IsNil(v) {
		return nil
	}
	if _, isBool := record.Bool(v); isBool || s.Render != nil {
		return s.Format(v)
	}
	return v
}

func caps(specs []column.Spec) []int {
	out := make([]int, len(specs))
	for i, s := range specs {
		out[i] = s.Width
	}
	return out
}

// Cursor returns the current cursor position.
func (m *Model) Cursor() int {
	return m.table.Cursor()
}

// SetCursor sets the cursor position.
func (m *Model) SetCursor(pos int) {
	m.table.SetCursor(pos)
}

// SelectedRecord returns the record under the cursor.
func (m *Model) SelectedRecord() (record.Record, bool) {
	c := m.Cursor()
	if c < 0 || c >= len(m.records) {
		return nil, false
	}
	return m.records[c], true
}

// SetSize sets the table dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(height)
	m.layout()
}

// SetNoColor enables/disables color output.
func (m *Model) SetNoColor(noColor bool) {
	m.noColor = noColor
	m.applyColorScheme()
}

// SetColors sets custom theme colors.
func (m *Model) SetColors(headerFG, headerBG, selectedFG, selectedBG color.Color) {
	m.headerFG = headerFG
	m.headerBG = headerBG
	m.selectedFG = selectedFG
	m.selectedBG = selectedBG
	m.applyColorScheme()
}

func (m *Model) applyColorScheme() {
	s := m.styles

	if m.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground()
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().Reverse(true)
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
	} else {
		if m.headerFG != nil {
			s.Header = s.Header.Foreground(m.headerFG)
		}
		if m.headerBG != nil {
			s.Header = s.Header.Background(m.headerBG)
		}
		if m.selectedFG != nil {
			s.Selected = s.Selected.Foreground(m.selectedFG)
		}
		if m.selectedBG != nil {
			s.Selected = s.Selected.Background(m.selectedBG)
		}
	}

	m.table.SetStyles(s)
	m.styles = s
}

// Update handles cursor movement.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table to a string.
func (m *Model) View() string {
	if len(m.records) == 0 {
		return m.table.View() + "\n(no matching records)"
	}
	return m.table.View()
}

// String returns a string representation for debugging.
func (m *Model) String() string {
	return fmt.Sprintf("Table[rows=%d, cursor=%d, focus=%d, sort=%s]",
		len(m.records), m.Cursor(), m.focus, m.sort)
}
