package formatter

import (
	"bytes"
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

func people() (*column.Set, []record.Record) {
	cols := column.MustSet(
		column.Spec{Key: "name", Header: "Name", Sortable: true},
		column.Spec{Key: "age", Header: "Age", Kind: column.KindNumber},
		column.Spec{Key: "active", Header: "Active", Kind: column.KindBoolean, TrueLabel: "yes", FalseLabel: "no"},
	)
	return cols, []record.Record{
		{"name": "Ana", "age": 30, "active": true},
		{"name": "Bo", "age": 7, "active": false},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "TABLE": FormatTable, "md": FormatMarkdown, " html ": FormatHTML, "toml": FormatTOML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"a\nb", `a\nb`},
		{1.5, "1.5"},
		{float64(3), "3"},
		{true, "true"},
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{1, "x"}, `[1,"x"]`},
		{struct{ A int }{A: 2}, `{"A":2}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.LessOrEqual(t, runewidth.StringWidth(truncate("日本語テキスト", 6)), 6)
}

func TestRenderTable(t *testing.T) {
	cols, recs := people()
	out := RenderTable(cols, recs, Options{Width: 80, NoColor: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "#   Name  Age  Active", strings.TrimRight(lines[0], " "))
	assert.Equal(t, strings.Repeat("─", 2+2+4+2+3+2+6), lines[1])
	assert.Equal(t, "1   Ana    30  yes", strings.TrimRight(lines[2], " "))
	assert.Equal(t, "2   Bo      7  no", strings.TrimRight(lines[3], " "))
}

func TestRenderTableShrinksToWidth(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "a"}, column.Spec{Key: "b"})
	recs := []record.Record{{"a": strings.Repeat("x", 60), "b": strings.Repeat("y", 60)}}
	out := RenderTable(cols, recs, Options{Width: 40, NoColor: true})
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 40, line)
	}
	assert.Contains(t, out, "...")
}

func TestRenderTableHonorsColumnWidth(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "note", Width: 6})
	out := RenderTable(cols, []record.Record{{"note": "a long note"}}, Options{Width: 80, NoColor: true})
	assert.Contains(t, out, "a l...")
}

func TestRenderTableEmpty(t *testing.T) {
	cols, _ := people()
	out := RenderTable(cols, nil, Options{Width: 80, NoColor: true})
	assert.Contains(t, out, "(no matching records)")
	assert.Empty(t, RenderTable(column.MustSet(), nil, Options{Width: 80}))
}

func TestRenderTableColor(t *testing.T) {
	cols, recs := people()
	plain := RenderTable(cols, recs, Options{Width: 80, NoColor: true})
	colored := RenderTable(cols, recs, Options{Width: 80})
	assert.Equal(t, lipgloss.Height(plain), lipgloss.Height(colored))
}

func TestCardLines(t *testing.T) {
	cols, recs := people()
	title, lines := CardLines(cols, recs[0], 0)
	assert.Equal(t, "Ana", title)
	assert.Equal(t, []string{"Age:    30", "Active: yes"}, lines)

	_, lines = CardLines(cols, recs[0], 1)
	assert.Equal(t, []string{"Age: 30"}, lines)
}

func TestRenderCards(t *testing.T) {
	cols, recs := people()
	out := RenderCards(cols, recs, Options{Width: 90, NoColor: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// two cards side by side: border + title + two fields + border
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Ana")
	assert.Contains(t, lines[1], "Bo")

	narrow := RenderCards(cols, recs, Options{Width: 30, NoColor: true})
	assert.Len(t, strings.Split(strings.TrimRight(narrow, "\n"), "\n"), 10)
	assert.Contains(t, RenderCards(cols, nil, Options{Width: 30, NoColor: true}), "(no matching records)")
}

func TestRenderCompact(t *testing.T) {
	cols, recs := people()
	out := RenderCompact(cols, recs, Options{Width: 80, NoColor: true})
	assert.Equal(t, "• Ana · Age: 30 · Active: yes\n• Bo · Age: 7 · Active: no\n", out)

	short := CompactLine(cols, recs[0], 12, 0)
	assert.Equal(t, 12, runewidth.StringWidth(short))
	assert.True(t, strings.HasSuffix(short, "..."))
}

func TestRenderMarkdown(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "name"}, column.Spec{Key: "n", Kind: column.KindNumber})
	out := RenderMarkdown(cols, []record.Record{{"name": "a|b", "n": 1}})
	assert.Equal(t, "| name | n |\n| --- | ---: |\n| a\\|b | 1 |\n", out)
}

func TestRenderHTML(t *testing.T) {
	cols, recs := people()
	out := RenderHTML(cols, recs, Options{Title: "People"})
	assert.Contains(t, out, "<title>People</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Ana</td>")
}

func TestMachineFormats(t *testing.T) {
	recs := []record.Record{{"name": "Ana", "age": 30, "gone": nil}}

	js, err := FormatJSONRecords(recs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Ana","age":30,"gone":null}]`, js)

	js, err = FormatJSONRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", js)

	tm, err := FormatTOMLRecords(recs)
	require.NoError(t, err)
	assert.Contains(t, tm, "[[records]]")
	assert.Contains(t, tm, "name = 'Ana'")
	assert.NotContains(t, tm, "gone")

	y, err := FormatYAMLValue([]record.Record{{"note": "a\nb"}}, YAMLFormatOptions{LiteralBlockStrings: true})
	require.NoError(t, err)
	assert.Equal(t, "- note: |-\n    a\n    b\n", y)
}

func TestRender(t *testing.T) {
	cols, recs := people()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, cols, recs, Options{}))
	assert.Contains(t, buf.String(), "| Ana |")

	buf.Reset()
	require.NoError(t, Render(&buf, FormatYAML, cols, recs, Options{}))
	assert.Contains(t, buf.String(), "name: Ana")

	assert.Error(t, Render(&buf, FormatAuto, cols, recs, Options{}))
}

func TestThemeFromHex(t *testing.T) {
	th := ThemeFromHex("#7D56F4", "", " ", "#333333", "")
	assert.NotNil(t, th.Accent)
	assert.Nil(t, th.Header)
	assert.Nil(t, th.Border)
	assert.NotNil(t, th.Muted)
	SetTheme(th)
	t.Cleanup(func() { SetTheme(Theme{}) })
	assert.NotEmpty(t, RenderTable(column.MustSet(column.Spec{Key: "a"}), nil, Options{Width: 40}))
}

func TestRenderTree(t *testing.T) {
	cols := column.MustSet(
		column.Spec{Key: "name", Header: "Name"},
		column.Spec{Key: "active", Header: "Active", Kind: column.KindBoolean, TrueLabel: "yes", FalseLabel: "no"},
		column.Spec{Key: "tags", Header: "Tags"},
		column.Spec{Key: "owner", Header: "Owner"},
	)
	out := RenderTree(cols, []record.Record{
		{"name": "api", "active": true, "tags": []any{"go", "http"}, "owner": map[string]any{"team": "core", "ids": []any{1, 2, 3, 4}}},
		{"name": "", "active": false, "owner": nil},
	})
	assert.True(t, strings.HasPrefix(out, "2 records\n"), out)
	assert.Contains(t, out, "── api\n")
	assert.Contains(t, out, "── Active: yes\n")
	assert.Contains(t, out, "── Tags: [go, http]\n")
	assert.Contains(t, out, "── Owner\n")
	assert.Contains(t, out, "── ids: [4 items]\n")
	assert.Contains(t, out, "── team: core\n")
	assert.Contains(t, out, "── [1]\n", "records without a title are numbered")
	assert.NotContains(t, out, "null", "missing values are skipped")

	assert.Empty(t, RenderTree(column.MustSet(), nil))
}
