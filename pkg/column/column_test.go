package column

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/dvx/pkg/record"
)

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
		errMsg  string
	}{
		{name: "minimal", spec: Spec{Key: "name"}},
		{name: "text filter", spec: Spec{Key: "name", Filterable: true, FilterKind: FilterText}},
		{name: "exact with options", spec: Spec{Key: "status", Filterable: true, FilterKind: FilterExact, FilterOptions: []string{"Sí", "No"}}},
		{name: "exact not filterable needs no options", spec: Spec{Key: "status", FilterKind: FilterExact}},
		{name: "missing key", spec: Spec{Header: "Name"}, wantErr: true, errMsg: "key is required"},
		{name: "exact without options", spec: Spec{Key: "status", Filterable: true, FilterKind: FilterExact}, wantErr: true, errMsg: "requires filterOptions"},
		{name: "duplicate option", spec: Spec{Key: "s", Filterable: true, FilterKind: FilterExact, FilterOptions: []string{"a", "a"}}, wantErr: true, errMsg: "duplicate filter option"},
		{name: "unknown filter kind", spec: Spec{Key: "s", FilterKind: "fuzzy"}, wantErr: true, errMsg: "unknown filterKind"},
		{name: "unknown kind", spec: Spec{Key: "s", Kind: "date"}, wantErr: true, errMsg: "unknown kind"},
		{name: "negative width", spec: Spec{Key: "s", Width: -1}, wantErr: true, errMsg: "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidColumn))
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(
		Spec{Key: "name", Header: "Name", Sortable: true},
		Spec{Key: "age", Sortable: true, Kind: KindNumber},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"name", "age"}, set.Keys())

	spec, ok := set.Lookup("age")
	require.True(t, ok)
	assert.Equal(t, "age", spec.Title())

	_, ok = set.Lookup("missing")
	assert.False(t, ok)

	specs := set.Specs()
	specs[0].Header = "changed"
	again, _ := set.Lookup("name")
	assert.Equal(t, "Name", again.Header, "Specs must return a copy")
}

func TestNewSetReportsAllErrors(t *testing.T) {
	_, err := NewSet(
		Spec{Key: "a"},
		Spec{Key: "a"},
		Spec{Key: "b", Filterable: true, FilterKind: FilterExact},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidColumn)
	assert.Contains(t, err.Error(), `duplicate key "a"`)
	assert.Contains(t, err.Error(), "columns[2]")
}

func TestMustSetPanics(t *testing.T) {
	assert.Panics(t, func() { MustSet(Spec{}) })
}

func TestNilSet(t *testing.T) {
	var s *Set
	_, ok := s.Lookup("x")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Nil(t, s.Keys())
	assert.Nil(t, s.Specs())
}

func TestBoolLabel(t *testing.T) {
	status := Spec{Key: "status", Filterable: true, FilterKind: FilterExact, FilterOptions: []string{"Sí", "No"}}
	assert.Equal(t, "Sí", status.BoolLabel(true))
	assert.Equal(t, "No", status.BoolLabel(false))
	assert.Equal(t, "Sí", status.FilterString(true))

	explicit := Spec{Key: "active", TrueLabel: "Active", FalseLabel: "Inactive"}
	assert.Equal(t, "Active", explicit.BoolLabel(true))
	assert.Equal(t, "Inactive", explicit.BoolLabel(false))

	plain := Spec{Key: "flag"}
	assert.Equal(t, "true", plain.BoolLabel(true))
}

func TestFormatUsesRender(t *testing.T) {
	spec := Spec{Key: "price", Render: func(v any) string { return "$" + record.String(v) }}
	assert.Equal(t, "$5", spec.Format(5))
	assert.Equal(t, "5", Spec{Key: "price"}.Format(5))
}

func TestInfer(t *testing.T) {
	records := []record.Record{
		{"name": "Ana", "age": 30, "active": true},
		{"name": "Bo", "age": nil, "active": false, "mixed": 1},
		{"name": "Cy", "mixed": "one"},
	}
	specs := Infer(records)
	require.Len(t, specs, 4)

	byKey := map[string]Spec{}
	for _, s := range specs {
		byKey[s.Key] = s
		assert.True(t, s.Sortable)
		assert.True(t, s.Filterable)
	}
	assert.Equal(t, KindBoolean, byKey["active"].Kind)
	assert.Equal(t, FilterExact, byKey["active"].FilterKind)
	assert.Equal(t, []string{"true", "false"}, byKey["active"].FilterOptions)
	assert.Equal(t, KindNumber, byKey["age"].Kind)
	assert.Equal(t, KindString, byKey["mixed"].Kind)
	assert.Equal(t, FilterText, byKey["name"].FilterKind)

	_, err := NewSet(specs...)
	assert.NoError(t, err)
}
