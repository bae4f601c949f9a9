package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

func people() []record.Record {
	return []record.Record{
		{"name": "Ana", "age": 30},
		{"name": "Bo", "age": 20},
		{"name": "Cy", "age": nil},
	}
}

func peopleColumns() *column.Set {
	return column.MustSet(
		column.Spec{Key: "name", Sortable: true, Filterable: true, FilterKind: column.FilterText},
		column.Spec{Key: "age", Sortable: true, Kind: column.KindNumber},
	)
}

func names(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = record.String(r["name"])
	}
	return out
}

func TestDeriveSortNullsLast(t *testing.T) {
	e := NewEngine(peopleColumns())

	e.SetSort(ModeTable, "age", Ascending)
	assert.Equal(t, []string{"Bo", "Ana", "Cy"}, names(e.Derive(people())))

	e.SetSort(ModeTable, "age", Descending)
	assert.Equal(t, []string{"Ana", "Bo", "Cy"}, names(e.Derive(people())))

	e.SetSort(ModeCard, "age", Descending)
	assert.Equal(t, []string{"Ana", "Bo", "Cy"}, names(e.Derive(people())), "card sort uses the same comparator")
}

func TestDeriveMissingFieldSortsLast(t *testing.T) {
	records := []record.Record{{"name": "Zed"}, {"name": "Ana", "age": 3}, {"name": "Bo", "age": 1}}
	e := NewEngine(peopleColumns())
	e.SetSort(ModeTable, "age", Descending)
	assert.Equal(t, []string{"Ana", "Bo", "Zed"}, names(e.Derive(records)))
}

func TestDeriveNumberColumnTreatsNonNumericAsNull(t *testing.T) {
	records := []record.Record{{"name": "x", "age": "old"}, {"name": "y", "age": 5}, {"name": "z", "age": 1}}
	e := NewEngine(peopleColumns())
	e.SetSort(ModeTable, "age", Ascending)
	assert.Equal(t, []string{"z", "y", "x"}, names(e.Derive(records)))
}

func TestDeriveStableForTies(t *testing.T) {
	records := []record.Record{
		{"name": "a1", "age": 1},
		{"name": "b2", "age": 2},
		{"name": "a2", "age": 1},
		{"name": "b1", "age": 2},
	}
	e := NewEngine(peopleColumns())
	e.SetSort(ModeTable, "age", Ascending)
	assert.Equal(t, []string{"a1", "a2", "b2", "b1"}, names(e.Derive(records)))

	e.SetSort(ModeTable, "age", Descending)
	assert.Equal(t, []string{"b2", "b1", "a1", "a2"}, names(e.Derive(records)), "desc keeps input order for ties")
}

func TestDeriveStringsUseCollation(t *testing.T) {
	records := []record.Record{{"name": "zeta"}, {"name": "Émile"}, {"name": "alpha"}, {"name": "Eve"}}
	e := NewEngine(peopleColumns(), WithLanguage(language.French))
	e.SetSort(ModeTable, "name", Ascending)
	assert.Equal(t, []string{"alpha", "Émile", "Eve", "zeta"}, names(e.Derive(records)))
}

func values(records []record.Record, key string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = record.String(r[key])
	}
	return out
}

func permutations(records []record.Record) [][]record.Record {
	if len(records) <= 1 {
		return [][]record.Record{records}
	}
	var out [][]record.Record
	for i := range records {
		rest := make([]record.Record, 0, len(records)-1)
		rest = append(rest, records[:i]...)
		rest = append(rest, records[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]record.Record{records[i]}, p...))
		}
	}
	return out
}

func TestDeriveMixedValuesCompareAsStrings(t *testing.T) {
	tests := []struct {
		name    string
		kind    column.Kind
		records []record.Record
		want    []string
	}{
		{
			name:    "unhinted numbers and strings",
			records: []record.Record{{"v": "b"}, {"v": 10}, {"v": 9}, {"v": "a"}},
			want:    []string{"10", "9", "a", "b"},
		},
		{
			name:    "unhinted numeric strings",
			records: []record.Record{{"v": 2}, {"v": "15"}, {"v": 10}},
			want:    []string{"10", "15", "2"},
		},
		{
			name:    "string column holding numbers",
			kind:    column.KindString,
			records: []record.Record{{"v": 2}, {"v": 15}, {"v": 10}},
			want:    []string{"10", "15", "2"},
		},
		{
			name:    "unhinted numbers only",
			records: []record.Record{{"v": 2}, {"v": 15}, {"v": nil}, {"v": 10}},
			want:    []string{"2", "10", "15", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(column.MustSet(column.Spec{Key: "v", Sortable: true, Kind: tt.kind}))
			e.SetSort(ModeTable, "v", Ascending)
			for _, in := range permutations(tt.records) {
				got := values(e.Derive(in), "v")
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Fatalf("input %v: order mismatch (-want +got):\n%s", values(in, "v"), diff)
				}
			}
		})
	}
}

func TestDeriveFreeText(t *testing.T) {
	records := []record.Record{
		{"name": "Ana", "city": "Lima"},
		{"name": "Bo", "city": "Quito"},
		{"name": "Cy", "city": nil, "note": "visited LIMA"},
	}
	e := NewEngine(peopleColumns())
	e.SetFreeText("lim")
	assert.Equal(t, []string{"Ana", "Cy"}, names(e.Derive(records)))

	e.SetFreeText("30")
	assert.Equal(t, []string{"Ana"}, names(e.Derive(people())), "numbers match by their string form")

	e.SetFreeText("nothing")
	assert.Empty(t, e.Derive(records))
}

func TestDeriveFreeTextMatchesBooleanLabels(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "status", Filterable: true, FilterKind: column.FilterExact, FilterOptions: []string{"Sí", "No"}})
	e := NewEngine(cols)
	e.SetFreeText("sí")
	got := e.Derive([]record.Record{{"status": true}, {"status": false}})
	require.Len(t, got, 1)
	assert.Equal(t, true, got[0]["status"])
}

func TestDeriveColumnFiltersCompose(t *testing.T) {
	cols := column.MustSet(
		column.Spec{Key: "name", Filterable: true, FilterKind: column.FilterText},
		column.Spec{Key: "role", Filterable: true, FilterKind: column.FilterExact, FilterOptions: []string{"Admin", "User"}},
	)
	records := []record.Record{
		{"name": "Ana", "role": "Admin"},
		{"name": "Anabel", "role": "User"},
		{"name": "Bo", "role": "Admin"},
		{"name": "ana", "role": "admin"},
	}
	e := NewEngine(cols)
	e.SetColumnFilter("name", "AN")
	assert.Equal(t, []string{"Ana", "Anabel", "ana"}, names(e.Derive(records)))

	e.SetColumnFilter("role", "Admin")
	assert.Equal(t, []string{"Ana"}, names(e.Derive(records)), "exact match is case-sensitive and ANDed")
}

func TestDeriveExactBooleanUsesOptionLabels(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "status", Filterable: true, FilterKind: column.FilterExact, FilterOptions: []string{"Sí", "No"}})
	records := []record.Record{{"status": true}}
	e := NewEngine(cols)

	e.SetColumnFilter("status", "Sí")
	assert.Len(t, e.Derive(records), 1)

	e.SetColumnFilter("status", "No")
	assert.Empty(t, e.Derive(records))
}

func TestDeriveUnknownKeysAreNoOps(t *testing.T) {
	e := NewEngine(peopleColumns())
	e.SetColumnFilter("missing", "x")
	e.SetSort(ModeTable, "missing", Ascending)
	assert.Equal(t, names(people()), names(e.Derive(people())))

	// age is not filterable
	e.SetColumnFilter("age", "30")
	assert.Len(t, e.Derive(people()), 3)
}

func TestDeriveNullNeverMatchesColumnFilter(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "age", Filterable: true})
	e := NewEngine(cols)
	e.SetColumnFilter("age", "2")
	assert.Equal(t, []string{"Bo"}, names(e.Derive(people())))
}

func TestDerivePurity(t *testing.T) {
	input := people()
	snapshot := people()
	e := NewEngine(peopleColumns())
	e.SetSort(ModeTable, "age", Descending)

	first := e.Derive(input)
	second := e.Derive(input)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("derive not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, input); diff != "" {
		t.Fatalf("derive mutated its input (-want +got):\n%s", diff)
	}
	first[0] = record.Record{"name": "replaced"}
	assert.Equal(t, "Ana", input[0]["name"], "result slice is independent of input")
}

func TestDeriveEmptyInput(t *testing.T) {
	e := NewEngine(peopleColumns())
	got := e.Derive(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeriveIgnoresNonSortableColumn(t *testing.T) {
	cols := column.MustSet(column.Spec{Key: "name"})
	e := NewEngine(cols)
	e.SetSort(ModeCard, "name", Descending)
	assert.Equal(t, []string{"Ana", "Bo", "Cy"}, names(e.Derive(people())))
}
