package filter

import "fmt"

// Event is a state transition. The set of events is closed: only the types
// in this package implement it.
type Event interface {
	transition(State) State
	fmt.Stringer
}

// SetColumnFilter sets the filter for one field. A non-empty value clears
// the free-text term.
type SetColumnFilter struct {
	Key   string
	Value string
}

func (e SetColumnFilter) transition(s State) State {
	if e.Value == "" {
		if _, ok := s.Columns[e.Key]; ok {
			delete(s.Columns, e.Key)
		}
		if len(s.Columns) == 0 {
			s.Columns = nil
		}
		return s
	}
	if s.Columns == nil {
		s.Columns = make(map[string]string, 1)
	}
	s.Columns[e.Key] = e.Value
	s.FreeText = ""
	return s
}

func (e SetColumnFilter) String() string {
	return fmt.Sprintf("set-column-filter %s=%q", e.Key, e.Value)
}

// SetFreeText sets the collection-wide search term. A non-empty term clears
// every column filter.
type SetFreeText struct {
	Term string
}

func (e SetFreeText) transition(s State) State {
	s.FreeText = e.Term
	if e.Term != "" {
		s.Columns = nil
	}
	return s
}

func (e SetFreeText) String() string {
	return fmt.Sprintf("set-free-text %q", e.Term)
}

// ToggleSort cycles Field through asc, desc and unsorted within Mode. A
// different field starts at asc. The other mode's sort is reset.
type ToggleSort struct {
	Mode  Mode
	Field string
}

func (e ToggleSort) transition(s State) State {
	current := s.Sort(e.Mode)
	next := SortSpec{Field: e.Field, Direction: Ascending}
	if e.Field == "" {
		next = SortSpec{}
	} else if current.Field == e.Field {
		switch current.Direction {
		case Ascending:
			next.Direction = Descending
		case Descending:
			next = SortSpec{}
		}
	}
	s.setSort(e.Mode, next)
	return s
}

func (e ToggleSort) String() string {
	return fmt.Sprintf("toggle-sort %s %s", e.Mode, e.Field)
}

// SetSort sets the sort for Mode explicitly. An empty field or direction
// clears it. The other mode's sort is reset either way.
type SetSort struct {
	Mode      Mode
	Field     string
	Direction Direction
}

func (e SetSort) transition(s State) State {
	s.setSort(e.Mode, SortSpec{Field: e.Field, Direction: e.Direction})
	return s
}

func (e SetSort) String() string {
	return fmt.Sprintf("set-sort %s %s", e.Mode, SortSpec{Field: e.Field, Direction: e.Direction})
}

// ClearAll resets filters and both sorts.
type ClearAll struct{}

func (ClearAll) transition(State) State { return State{} }

func (ClearAll) String() string { return "clear-all" }

// Reduce applies ev to s and returns the new state. s is not modified.
func Reduce(s State, ev Event) State {
	if ev == nil {
		return s.Clone()
	}
	return ev.transition(s.Clone())
}
