package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

// maxArrayInline is the max number of scalar list elements shown inline.
const maxArrayInline = 3

// RenderTree renders each record as a branch titled by its first column.
// Unlike the table and cards, nested objects and lists are expanded.
func RenderTree(cols *column.Set, records []record.Record) string {
	specs := cols.Specs()
	if len(specs) == 0 {
		return ""
	}
	tree := treeprint.NewWithRoot(fmt.Sprintf("%d records", len(records)))
	for i, r := range records {
		title := cell(specs[0], r)
		if title == "" {
			title = fmt.Sprintf("[%d]", i)
		}
		branch := tree.AddBranch(title)
		for _, s := range specs[1:] {
			v, ok := r.Get(s.Key)
			if !ok || record.IsNil(v) {
				continue
			}
			if _, isBool := record.Bool(v); isBool || s.Render != nil {
				branch.AddNode(s.Title() + ": " + cell(s, r))
				continue
			}
			addTreeValue(branch, s.Title(), v)
		}
	}
	return tree.String()
}

func addTreeValue(branch treeprint.Tree, key string, val any) {
	switch v := val.(type) {
	case record.Record:
		addTreeValue(branch, key, map[string]any(v))
	case map[string]any:
		if len(v) == 0 {
			branch.AddNode(key + ": {}")
			return
		}
		child := branch.AddBranch(key)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addTreeValue(child, k, v[k])
		}
	case []any:
		switch {
		case len(v) == 0:
			branch.AddNode(key + ": []")
		case isScalarList(v) && len(v) <= maxArrayInline:
			parts := make([]string, len(v))
			for i, el := range v {
				parts[i] = scalarText(el)
			}
			branch.AddNode(key + ": [" + strings.Join(parts, ", ") + "]")
		case isScalarList(v):
			branch.AddNode(fmt.Sprintf("%s: [%d items]", key, len(v)))
		default:
			child := branch.AddBranch(key)
			for i, el := range v {
				addTreeValue(child, fmt.Sprintf("[%d]", i), el)
			}
		}
	default:
		branch.AddNode(key + ": " + scalarText(v))
	}
}

func isScalarList(v []any) bool {
	for _, el := range v {
		switch el.(type) {
		case map[string]any, record.Record, []any:
			return false
		}
	}
	return true
}

func scalarText(v any) string {
	if record.IsNil(v) {
		return "null"
	}
	return escapeScalarString(record.String(v))
}
