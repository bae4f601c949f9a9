// Package loader decodes collections from JSON, NDJSON, YAML, TOML and CSV
// text, or from a SQLite query, and turns them into records.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// Format names a decoder.
type Format string

const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatCSV    Format = "csv"
)

// Formats lists the explicit formats accepted by ParseFormat.
var Formats = []Format{FormatJSON, FormatNDJSON, FormatYAML, FormatTOML, FormatCSV}

// ParseFormat accepts a format name or file extension; "" and "auto" select
// detection.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "csv":
		return FormatCSV, nil
	}
	return FormatAuto, fmt.Errorf("unknown input format %q", s)
}

// Detect guesses the format of input.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}
	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return FormatNDJSON
	}
	// TOML [section] headers look like JSON arrays.
	if isLikelyTOML(input) {
		return FormatTOML
	}
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return FormatJSON
	}
	if isLikelyCSV(lines) {
		return FormatCSV
	}
	return FormatYAML
}

// Decode parses data into a document root. Multi-document YAML and NDJSON
// yield a []any of documents.
func Decode(data []byte, format Format) (any, error) {
	input := strings.TrimSpace(string(data))
	if input == "" {
		return nil, ErrEmptyInput
	}
	if format == FormatAuto {
		format = Detect(input)
	}
	switch format {
	case FormatJSON:
		return decodeJSON(input)
	case FormatNDJSON:
		return decodeNDJSON(input)
	case FormatYAML:
		return decodeYAML(input)
	case FormatTOML:
		return decodeTOML(input)
	case FormatCSV:
		return decodeCSV(input)
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}

// DecodeReader reads r fully and decodes it.
func DecodeReader(r io.Reader, format Format) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return Decode(data, format)
}

// DecodeFile decodes path. With FormatAuto the extension is tried before
// content detection.
func DecodeFile(path string, format Format) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == FormatAuto {
		if i := strings.LastIndex(path, "."); i >= 0 {
			if f, err := ParseFormat(path[i+1:]); err == nil {
				format = f
			}
		}
	}
	root, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

func decodeJSON(input string) (any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}

// decodeYAML returns the single document, or all documents when the input
// holds several.
func decodeYAML(input string) (any, error) {
	var docs []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("no documents found in YAML")
	case 1:
		return docs[0], nil
	}
	return docs, nil
}

// decodeNDJSON parses one JSON value per line. Lines that are not JSON are
// kept as strings and later skipped as non-records.
func decodeNDJSON(input string) (any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}
	if len(results) == 0 {
		return nil, ErrEmptyInput
	}
	return results, nil
}

func decodeTOML(input string) (any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return data, nil
}

// isLikelyNDJSON requires a majority of non-empty lines to start like JSON,
// so YAML lists are not mistaken for NDJSON.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

var (
	// [server], [[items]], ["table name"], [database.credentials]
	tomlSection = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// name = "value", database.host = "localhost"
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

func isLikelyTOML(input string) bool {
	sections, keyValues, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}

// isLikelyCSV wants at least two lines with the same non-zero comma count
// and no YAML mapping on the header line.
func isLikelyCSV(lines []string) bool {
	var counts []int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		counts = append(counts, strings.Count(trimmed, ","))
	}
	if len(counts) < 2 || counts[0] == 0 {
		return false
	}
	header := strings.TrimSpace(lines[0])
	if strings.Contains(header, ": ") || strings.HasSuffix(header, ":") || strings.HasPrefix(header, "- ") {
		return false
	}
	for _, c := range counts[1:] {
		if c != counts[0] {
			return false
		}
	}
	return true
}
