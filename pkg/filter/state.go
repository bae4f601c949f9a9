package filter

import (
	"fmt"
	"strings"
)

// Direction is a sort direction. The zero value means "not sorted".
type Direction string

const (
	DirectionNone Direction = ""
	Ascending     Direction = "asc"
	Descending    Direction = "desc"
)

// ParseDirection accepts asc/ascending/desc/descending (any case) and "" or
// "none" for no direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DirectionNone, nil
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return DirectionNone, fmt.Errorf("unknown sort direction %q (expected asc or desc)", s)
}

// Mode names one of the two mutually exclusive sort owners.
type Mode string

const (
	// ModeTable is the sort driven by table column headers.
	ModeTable Mode = "table"
	// ModeCard is the sort driven by the card view's sort control.
	ModeCard Mode = "card"
)

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == ModeCard {
		return ModeTable
	}
	return ModeCard
}

// ParseMode parses "table" or "card".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTable:
		return ModeTable, nil
	case ModeCard:
		return ModeCard, nil
	}
	return "", fmt.Errorf("unknown sort mode %q (expected table or card)", s)
}

// SortSpec is a sort field and direction. Field is empty exactly when
// Direction is DirectionNone.
type SortSpec struct {
	Field     string    `json:"field,omitempty" yaml:"field,omitempty"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// IsZero reports whether the spec sorts nothing.
func (s SortSpec) IsZero() bool {
	return s.Field == "" || s.Direction == DirectionNone
}

func (s SortSpec) normalized() SortSpec {
	if s.IsZero() {
		return SortSpec{}
	}
	return s
}

func (s SortSpec) String() string {
	if s.IsZero() {
		return "none"
	}
	return s.Field + ":" + string(s.Direction)
}

// State is the complete filter and sort state for one collection.
type State struct {
	// Columns maps a field key to its filter value. Empty values are never
	// stored; an absent key means "no filter on this field".
	Columns map[string]string `json:"columns,omitempty" yaml:"columns,omitempty"`
	// FreeText is the collection-wide search term.
	FreeText string `json:"freeText,omitempty" yaml:"freeText,omitempty"`
	// TableSort and CardSort are mutually exclusive; at most one is set.
	TableSort SortSpec `json:"tableSort,omitempty" yaml:"tableSort,omitempty"`
	CardSort  SortSpec `json:"cardSort,omitempty" yaml:"cardSort,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if len(s.Columns) > 0 {
		out.Columns = make(map[string]string, len(s.Columns))
		for k, v := range s.Columns {
			out.Columns[k] = v
		}
	} else {
		out.Columns = nil
	}
	return out
}

// ColumnFilter returns the filter value for key ("" when unset).
func (s State) ColumnFilter(key string) string {
	return s.Columns[key]
}

// HasColumnFilters reports whether any column filter is active.
func (s State) HasColumnFilters() bool {
	for _, v := range s.Columns {
		if v != "" {
			return true
		}
	}
	return false
}

// IsZero reports whether nothing is filtered or sorted.
func (s State) IsZero() bool {
	return s.FreeText == "" && !s.HasColumnFilters() && s.TableSort.IsZero() && s.CardSort.IsZero()
}

// Sort returns the spec owned by mode.
func (s State) Sort(mode Mode) SortSpec {
	if mode == ModeCard {
		return s.CardSort
	}
	return s.TableSort
}

// ActiveSort returns the spec that Derive applies: the table sort when set,
// otherwise the card sort.
func (s State) ActiveSort() (Mode, SortSpec) {
	if !s.TableSort.IsZero() {
		return ModeTable, s.TableSort
	}
	if !s.CardSort.IsZero() {
		return ModeCard, s.CardSort
	}
	return "", SortSpec{}
}

func (s *State) setSort(mode Mode, spec SortSpec) {
	spec = spec.normalized()
	if mode == ModeCard {
		s.CardSort = spec
		s.TableSort = SortSpec{}
		return
	}
	s.TableSort = spec
	s.CardSort = SortSpec{}
}
