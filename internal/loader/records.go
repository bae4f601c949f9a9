package loader

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dvx/pkg/record"
)

// ToRecords turns a decoded document into records. An object is a single
// record; in an array, elements that are not objects are skipped and
// logged.
func ToRecords(root any, log logr.Logger) ([]record.Record, error) {
	switch v := root.(type) {
	case nil:
		return nil, nil
	case []record.Record:
		return v, nil
	case map[string]any:
		return []record.Record{v}, nil
	case []map[string]any:
		out := make([]record.Record, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	case []any:
		out := make([]record.Record, 0, len(v))
		skipped := 0
		for i, el := range v {
			m, ok := asObject(el)
			if !ok {
				skipped++
				log.V(1).Info("skipping non-object element", "index", i, "type", fmt.Sprintf("%T", el))
				continue
			}
			out = append(out, m)
		}
		if skipped > 0 {
			log.Info("skipped elements that are not objects", "skipped", skipped, "records", len(out))
		}
		return out, nil
	}
	if m, ok := asObject(root); ok {
		return []record.Record{m}, nil
	}
	return nil, fmt.Errorf("expected an object or a list of objects, got %T", root)
}

func asObject(v any) (record.Record, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case record.Record:
		return m, true
	case map[any]any:
		out := make(record.Record, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// decodeCSV uses the first row as field names. Cells become bool, int64 or
// float64 when they parse as such; empty cells become nil.
func decodeCSV(input string) (any, error) {
	r := csv.NewReader(strings.NewReader(input))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	header := rows[0]
	out := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]any, len(header))
		for i, key := range header {
			if i < len(row) {
				m[key] = csvValue(row[i])
			} else {
				m[key] = nil
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func csvValue(cell string) any {
	if cell == "" {
		return nil
	}
	if b, err := strconv.ParseBool(cell); err == nil && (cell == "true" || cell == "false") {
		return b
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	return cell
}
