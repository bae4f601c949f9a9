package table

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/record"
)

func makeModel() *Model {
	cols := column.MustSet(
		column.Spec{Key: "name", Header: "Name", Sortable: true},
		column.Spec{Key: "ok", Header: "OK", Kind: column.KindBoolean, TrueLabel: "yes", FalseLabel: "no"},
	)
	m := New(cols)
	m.SetNoColor(true)
	m.SetSize(60, 8)
	return m
}

func TestTable_SetRecordsAndCursor(t *testing.T) {
	m := makeModel()
	m.SetRecords([]record.Record{{"name": "apple", "ok": true}, {"name": "banana", "ok": false}})

	sel, ok := m.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, "apple", sel["name"])

	m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	sel, ok = m.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, "banana", sel["name"])

	m.SetRecords([]record.Record{{"name": "cherry"}})
	assert.Equal(t, 0, m.Cursor(), "cursor clamps when rows shrink")

	m.SetRecords(nil)
	_, ok = m.SelectedRecord()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "(no matching records)")
}

func TestTable_ViewFormatsCells(t *testing.T) {
	m := makeModel()
	m.SetRecords([]record.Record{{"name": "apple", "ok": true}})
	view := m.View()
	assert.Contains(t, view, "apple")
	assert.Contains(t, view, "yes")
	assert.Contains(t, view, "[Name]")
}

func TestTable_SortMarkerAndFocus(t *testing.T) {
	m := makeModel()
	m.SetRecords([]record.Record{{"name": "apple", "ok": true}})

	m.SetSort(filter.SortSpec{Field: "name", Direction: filter.Descending})
	assert.Contains(t, m.View(), "Name"+DescMarker)

	spec := m.NextColumn()
	assert.Equal(t, "ok", spec.Key)
	assert.Contains(t, m.View(), "[OK]")
	assert.Equal(t, "name", m.NextColumn().Key, "focus wraps")

	focused, ok := m.FocusedColumn()
	require.True(t, ok)
	assert.Equal(t, "name", focused.Key)
	assert.True(t, strings.HasPrefix(m.String(), "Table[rows=1"))
}

func TestTable_EmptyColumns(t *testing.T) {
	m := New(column.MustSet())
	_, ok := m.FocusedColumn()
	assert.False(t, ok)
	assert.Equal(t, column.Spec{}, m.NextColumn())
}
