package formatter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/dvx/pkg/record"
)

// FormatJSONRecords renders records as an indented JSON array. A nil slice
// renders as [].
func FormatJSONRecords(records []record.Record) (string, error) {
	if records == nil {
		records = []record.Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// FormatTOMLRecords renders records as an array of tables named "records".
// TOML has no null, so nil fields are omitted.
func FormatTOMLRecords(records []record.Record) (string, error) {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		row := make(map[string]any, len(r))
		for k, v := range r {
			if !record.IsNil(v) {
				row[k] = v
			}
		}
		rows[i] = row
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(map[string]any{"records": rows}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// YAMLFormatOptions control YAML rendering.
type YAMLFormatOptions struct {
	Indent                int
	LiteralBlockStrings   bool
	ExpandEscapedNewlines bool
}

// FormatYAMLValue renders an object to YAML using the provided options. Multi-line
// strings can be emitted as literal blocks ("|") to preserve newlines.
func FormatYAMLValue(v any, opts YAMLFormatOptions) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}

	if opts.ExpandEscapedNewlines {
		expandEscapedNewlines(&node)
	}
	if opts.LiteralBlockStrings {
		applyLiteralStyle(&node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}

func expandEscapedNewlines(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\\n") {
		n.Value = strings.ReplaceAll(n.Value, "\\n", "\n")
	}
	for _, c := range n.Content {
		expandEscapedNewlines(c)
	}
}
