package filter

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

// Derive filters and sorts records according to state. It is a pure
// function: records is not modified and a new slice is returned. Filters or
// sorts naming fields absent from columns, or columns not marked filterable
// or sortable, are ignored.
func Derive(records []record.Record, state State, columns *column.Set, lang language.Tag) []record.Record {
	out := make([]record.Record, 0, len(records))
	match := matcher(state, columns)
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}

	_, spec := state.ActiveSort()
	if spec.IsZero() {
		return out
	}
	col, ok := columns.Lookup(spec.Field)
	if !ok || !col.Sortable {
		return out
	}
	sortRecords(out, col, spec.Direction, lang)
	return out
}

func matcher(state State, columns *column.Set) func(record.Record) bool {
	if state.FreeText != "" {
		term := strings.ToLower(state.FreeText)
		return func(r record.Record) bool { return matchesFreeText(r, term, columns) }
	}

	type columnFilter struct {
		spec  column.Spec
		value string
		lower string
	}
	var active []columnFilter
	for key, value := range state.Columns {
		if value == "" {
			continue
		}
		spec, ok := columns.Lookup(key)
		if !ok || !spec.Filterable {
			continue
		}
		active = append(active, columnFilter{spec: spec, value: value, lower: strings.ToLower(value)})
	}
	if len(active) == 0 {
		return func(record.Record) bool { return true }
	}
	return func(r record.Record) bool {
		for _, f := range active {
			v, ok := r.Get(f.spec.Key)
			if !ok || record.IsNil(v) {
				return false
			}
			s := f.spec.FilterString(v)
			switch f.spec.EffectiveFilterKind() {
			case column.FilterExact:
				if s != f.value {
					return false
				}
			default:
				if !strings.Contains(strings.ToLower(s), f.lower) {
					return false
				}
			}
		}
		return true
	}
}

// matchesFreeText reports whether any field value contains term. Boolean
// fields of a configured column also match on their labels.
func matchesFreeText(r record.Record, term string, columns *column.Set) bool {
	for key, v := range r {
		if record.IsNil(v) {
			continue
		}
		if strings.Contains(strings.ToLower(record.String(v)), term) {
			return true
		}
		if _, isBool := record.Bool(v); isBool {
			if spec, ok := columns.Lookup(key); ok && strings.Contains(strings.ToLower(spec.FilterString(v)), term) {
				return true
			}
		}
	}
	return false
}

type sortKey struct {
	null bool
	num  float64
	str  string
}

func keyFor(r record.Record, col column.Spec) sortKey {
	v, ok := r.Get(col.Key)
	if !ok || record.IsNil(v) {
		return sortKey{null: true}
	}
	n, isNum := record.Number(v)
	if col.Kind == column.KindNumber && !isNum {
		return sortKey{null: true}
	}
	return sortKey{num: n, str: col.FilterString(v)}
}

// numericOrder reports whether the column sorts by number. Number columns
// always do; unhinted columns do only when every non-null value is a number.
func numericOrder(records []record.Record, col column.Spec) bool {
	switch col.Kind {
	case column.KindNumber:
		return true
	case column.KindAuto:
	default:
		return false
	}
	seen := false
	for _, r := range records {
		v, ok := r.Get(col.Key)
		if !ok || record.IsNil(v) {
			continue
		}
		if _, isNum := record.Number(v); !isNum {
			return false
		}
		seen = true
	}
	return seen
}

func sortRecords(records []record.Record, col column.Spec, dir Direction, lang language.Tag) {
	keys := make([]sortKey, len(records))
	for i, r := range records {
		keys[i] = keyFor(r, col)
	}
	numeric := numericOrder(records, col)
	coll := collate.New(lang)
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := keys[idx[i]], keys[idx[j]]
		switch {
		case a.null:
			return false
		case b.null:
			return true
		}
		c := compareKeys(a, b, numeric, coll)
		if dir == Descending {
			c = -c
		}
		return c < 0
	})
	sorted := make([]record.Record, len(records))
	for i, k := range idx {
		sorted[i] = records[k]
	}
	copy(records, sorted)
}

func compareKeys(a, b sortKey, numeric bool, coll *collate.Collator) int {
	if !numeric {
		return coll.CompareString(a.str, b.str)
	}
	switch {
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	}
	return 0
}
