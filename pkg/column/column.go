// Package column describes the fields of a collection: how they are labelled,
// whether they sort, and which filter semantics apply. Specs are pure data;
// a Set is the validated, ordered form the engine and renderers consume.
package column

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oakwood-commons/dvx/pkg/record"
)

// ErrInvalidColumn is wrapped by every column configuration error.
var ErrInvalidColumn = errors.New("invalid column")

// FilterKind selects the predicate applied to a column filter value.
type FilterKind string

const (
	// FilterText keeps records whose lowercase value contains the lowercase filter.
	FilterText FilterKind = "text"
	// FilterExact keeps records whose value equals one of the configured options.
	FilterExact FilterKind = "exact"
)

// Kind is a hint about the values a column holds.
type Kind string

const (
	KindAuto    Kind = ""
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// Spec declares one field of the collection.
type Spec struct {
	Key           string     `yaml:"key" json:"key"`
	Header        string     `yaml:"header,omitempty" json:"header,omitempty"`
	Sortable      bool       `yaml:"sortable,omitempty" json:"sortable,omitempty"`
	Filterable    bool       `yaml:"filterable,omitempty" json:"filterable,omitempty"`
	FilterKind    FilterKind `yaml:"filterKind,omitempty" json:"filterKind,omitempty"`
	FilterOptions []string   `yaml:"filterOptions,omitempty" json:"filterOptions,omitempty"`
	Kind          Kind       `yaml:"kind,omitempty" json:"kind,omitempty"`
	TrueLabel     string     `yaml:"trueLabel,omitempty" json:"trueLabel,omitempty"`
	FalseLabel    string     `yaml:"falseLabel,omitempty" json:"falseLabel,omitempty"`
	Width         int        `yaml:"width,omitempty" json:"width,omitempty"`

	// Render optionally overrides how a cell value is displayed. It never
	// affects filtering or sorting.
	Render func(v any) string `yaml:"-" json:"-"`
}

// Title returns the header, falling back to the key.
func (s Spec) Title() string {
	if s.Header != "" {
		return s.Header
	}
	return s.Key
}

// EffectiveFilterKind returns the filter kind, defaulting to text.
func (s Spec) EffectiveFilterKind() FilterKind {
	if s.FilterKind == "" {
		return FilterText
	}
	return s.FilterKind
}

// Validate checks the spec in isolation.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidColumn)
	}
	switch s.FilterKind {
	case "", FilterText, FilterExact:
	default:
		return fmt.Errorf("%w: column %q: unknown filterKind %q", ErrInvalidColumn, s.Key, s.FilterKind)
	}
	switch s.Kind {
	case KindAuto, KindString, KindNumber, KindBoolean:
	default:
		return fmt.Errorf("%w: column %q: unknown kind %q", ErrInvalidColumn, s.Key, s.Kind)
	}
	if s.Filterable && s.FilterKind == FilterExact {
		if len(s.FilterOptions) == 0 {
			return fmt.Errorf("%w: column %q: filterKind %q requires filterOptions", ErrInvalidColumn, s.Key, FilterExact)
		}
		seen := make(map[string]bool, len(s.FilterOptions))
		for _, opt := range s.FilterOptions {
			if seen[opt] {
				return fmt.Errorf("%w: column %q: duplicate filter option %q", ErrInvalidColumn, s.Key, opt)
			}
			seen[opt] = true
		}
	}
	if s.Width < 0 {
		return fmt.Errorf("%w: column %q: width must be non-negative", ErrInvalidColumn, s.Key)
	}
	return nil
}

// BoolLabel maps a boolean to its display/filter label. Explicit labels win;
// an exact column with exactly two options uses them as true/false labels.
func (s Spec) BoolLabel(b bool) string {
	if b && s.TrueLabel != "" {
		return s.TrueLabel
	}
	if !b && s.FalseLabel != "" {
		return s.FalseLabel
	}
	if s.EffectiveFilterKind() == FilterExact && len(s.FilterOptions) == 2 {
		if b {
			return s.FilterOptions[0]
		}
		return s.FilterOptions[1]
	}
	return record.String(b)
}

// FilterString returns the string form of v used by column filters.
func (s Spec) FilterString(v any) string {
	if b, ok := record.Bool(v); ok {
		return s.BoolLabel(b)
	}
	return record.String(v)
}

// Format returns the display form of a cell value.
func (s Spec) Format(v any) string {
	if s.Render != nil {
		return s.Render(v)
	}
	return s.FilterString(v)
}

// Set is an ordered, validated collection of column specs.
type Set struct {
	specs []Spec
	index map[string]int
}

// NewSet validates the specs and returns them as a Set. All problems are
// reported together.
func NewSet(specs ...Spec) (*Set, error) {
	s := &Set{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	var errs []error
	for i, spec := range specs {
		if err := spec.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("columns[%d]: %w", i, err))
			continue
		}
		if _, dup := s.index[spec.Key]; dup {
			errs = append(errs, fmt.Errorf("columns[%d]: %w: duplicate key %q", i, ErrInvalidColumn, spec.Key))
			continue
		}
		s.index[spec.Key] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustSet is like NewSet but panics on error. Intended for tests and
// package-level declarations.
func MustSet(specs ...Spec) *Set {
	s, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the spec for key.
func (s *Set) Lookup(key string) (Spec, bool) {
	if s == nil {
		return Spec{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// Specs returns a copy of the specs in declaration order.
func (s *Set) Specs() []Spec {
	if s == nil {
		return nil
	}
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Keys returns the column keys in declaration order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.specs))
	for i, spec := range s.specs {
		keys[i] = spec.Key
	}
	return keys
}

// Len returns the number of columns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.specs)
}

// Infer builds sortable, filterable specs from the keys present in records.
// Fields holding only booleans become exact filters over "true"/"false".
func Infer(records []record.Record) []Spec {
	keys := record.Keys(records)
	specs := make([]Spec, 0, len(keys))
	for _, k := range keys {
		spec := Spec{
			Key:        k,
			Header:     k,
			Sortable:   true,
			Filterable: true,
			FilterKind: FilterText,
		}
		switch inferKind(records, k) {
		case KindBoolean:
			spec.Kind = KindBoolean
			spec.FilterKind = FilterExact
			spec.FilterOptions = []string{"true", "false"}
		case KindNumber:
			spec.Kind = KindNumber
		}
		specs = append(specs, spec)
	}
	return specs
}

func inferKind(records []record.Record, key string) Kind {
	kind := KindAuto
	for _, r := range records {
		v, ok := r.Get(key)
		if !ok || record.IsNil(v) {
			continue
		}
		var k Kind
		switch {
		case isBool(v):
			k = KindBoolean
		case isNumber(v):
			k = KindNumber
		default:
			return KindString
		}
		if kind != KindAuto && kind != k {
			return KindString
		}
		kind = k
	}
	return kind
}

func isBool(v any) bool {
	_, ok := record.Bool(v)
	return ok
}

func isNumber(v any) bool {
	_, ok := record.Number(v)
	return ok
}
