// Package formatter renders a derived record collection for one-shot output:
// the table, cards and compact views plus machine formats.
package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"reflect"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

// Format names an output rendering.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatTable    Format = "table"
	FormatCards    Format = "cards"
	FormatCompact  Format = "compact"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatTOML     Format = "toml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatTree     Format = "tree"
)

// Formats lists the accepted --output values.
var Formats = []Format{FormatAuto, FormatTable, FormatCards, FormatCompact, FormatJSON, FormatYAML, FormatTOML, FormatMarkdown, FormatHTML, FormatTree}

// ParseFormat validates an --output value. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatAuto, nil
	}
	if s == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (expected one of %s)", s, joinFormats())
}

func joinFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Options controls rendering.
type Options struct {
	// Width is the available width in cells. 0 uses the terminal width.
	Width int
	// NoColor disables styling.
	NoColor bool
	// CardFields caps the fields shown per card and compact line. 0 shows all.
	CardFields int
	// Title is used as the heading of HTML output.
	Title string
}

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return getTerminalWidth()
}

// Render writes records in the requested format. FormatAuto is resolved by
// the caller through the active view.
func Render(w io.Writer, f Format, cols *column.Set, records []record.Record, opts Options) error {
	var (
		out string
		err error
	)
	switch f {
	case FormatTable:
		out = RenderTable(cols, records, opts)
	case FormatCards:
		out = RenderCards(cols, records, opts)
	case FormatCompact:
		out = RenderCompact(cols, records, opts)
	case FormatMarkdown:
		out = RenderMarkdown(cols, records)
	case FormatHTML:
		out = RenderHTML(cols, records, opts)
	case FormatTree:
		out = RenderTree(cols, records)
	case FormatJSON:
		out, err = FormatJSONRecords(records)
	case FormatYAML:
		out, err = FormatYAMLValue(records, YAMLFormatOptions{Indent: 2, LiteralBlockStrings: true})
	case FormatTOML:
		out, err = FormatTOMLRecords(records)
	default:
		return fmt.Errorf("cannot render format %q", f)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	_, err = io.WriteString(w, out)
	return err
}

var (
	defaultAccent   = lipgloss.Color("12")
	defaultHeaderFG = lipgloss.Color("15")
	defaultBorder   = lipgloss.Color("240")
	defaultMuted    = lipgloss.Color("248")
	defaultSelected = lipgloss.Color("14")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	cardStyle      lipgloss.Style
	titleStyle     lipgloss.Style
)

// Theme controls the rendered colors. Nil fields fall back to ANSI 256
// defaults.
type Theme struct {
	Accent   color.Color
	Header   color.Color
	Border   color.Color
	Muted    color.Color
	Selected color.Color
}

// ThemeFromHex builds a Theme from configuration strings. Empty strings keep
// the defaults.
func ThemeFromHex(accent, header, border, muted, selected string) Theme {
	pick := func(s string) color.Color {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return lipgloss.Color(s)
	}
	return Theme{
		Accent:   pick(accent),
		Header:   pick(header),
		Border:   pick(border),
		Muted:    pick(muted),
		Selected: pick(selected),
	}
}

func orColor(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

func applyTheme(th Theme) {
	accent := orColor(th.Accent, defaultAccent)
	header := orColor(th.Header, defaultHeaderFG)
	border := orColor(th.Border, defaultBorder)
	muted := orColor(th.Muted, defaultMuted)
	selected := orColor(th.Selected, defaultSelected)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(header).Background(accent)
	keyStyle = lipgloss.NewStyle().Foreground(selected)
	valueStyle = lipgloss.NewStyle().Foreground(muted)
	separatorStyle = lipgloss.NewStyle().Foreground(border)
	cardStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
}

// SetTheme overrides the package styles.
func SetTheme(th Theme) {
	applyTheme(th)
}

//nolint:gochecknoinits // initialize default theme for package consumers
func init() {
	applyTheme(Theme{})
}

// Stringify returns a compact single-line representation of a cell value.
func Stringify(v any) string {
	if record.IsNil(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case map[string]any, []any, record.Record:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive // only complex types need JSON marshaling
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return record.String(v)
}

// cell formats the value of spec in r for display.
func cell(spec column.Spec, r record.Record) string {
	v, ok := r.Get(spec.Key)
	if !ok || record.IsNil(v) {
		return ""
	}
	if spec.Render != nil {
		return escapeScalarString(spec.Render(v))
	}
	if _, isBool := record.Bool(v); isBool {
		return spec.Format(v)
	}
	return Stringify(v)
}

func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return strings.ReplaceAll(s, "\t", " ")
}

// truncate shortens s to maxLen display cells, ending in an ellipsis when
// there is room for one.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(truncate(s, width), width)
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
