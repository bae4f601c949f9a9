// Package filter owns the filter and sort state of one collection and
// derives the filtered, sorted view from it.
//
// Free-text search and column filters are mutually exclusive, as are the
// table sort and the card sort: setting one side clears the other. All
// transitions go through Reduce so the state machine can be exercised
// without any rendering layer.
package filter

import (
	"github.com/go-logr/logr"
	"golang.org/x/text/language"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/record"
)

// Engine holds the state for one collection. It is not safe for concurrent
// mutation; Derive only reads.
type Engine struct {
	columns *column.Set
	lang    language.Tag
	log     logr.Logger
	state   State
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguage sets the collation locale used for string ordering.
func WithLanguage(tag language.Tag) Option {
	return func(e *Engine) { e.lang = tag }
}

// WithLogger attaches a logger; transitions are logged at V(1).
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithState seeds the engine with an initial state.
func WithState(s State) Option {
	return func(e *Engine) { e.state = s.Clone() }
}

// NewEngine returns an engine bound to the given columns. A nil set is
// allowed: every column filter and sort is then a no-op in Derive.
func NewEngine(columns *column.Set, opts ...Option) *Engine {
	e := &Engine{
		columns: columns,
		lang:    language.Und,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Columns returns the column set the engine was built with.
func (e *Engine) Columns() *column.Set { return e.columns }

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state.Clone() }

// Apply runs ev against the current state and returns the new state.
func (e *Engine) Apply(ev Event) State {
	e.state = Reduce(e.state, ev)
	if ev != nil {
		e.log.V(1).Info("filter transition", "event", ev.String(),
			"freeText", e.state.FreeText, "columns", len(e.state.Columns),
			"tableSort", e.state.TableSort.String(), "cardSort", e.state.CardSort.String())
	}
	return e.State()
}

// SetColumnFilter sets the filter value for key.
func (e *Engine) SetColumnFilter(key, value string) State {
	return e.Apply(SetColumnFilter{Key: key, Value: value})
}

// SetFreeText sets the collection-wide search term.
func (e *Engine) SetFreeText(term string) State {
	return e.Apply(SetFreeText{Term: term})
}

// ToggleSort cycles field through asc, desc and unsorted for mode.
func (e *Engine) ToggleSort(mode Mode, field string) State {
	return e.Apply(ToggleSort{Mode: mode, Field: field})
}

// SetSort sets the sort for mode explicitly.
func (e *Engine) SetSort(mode Mode, field string, dir Direction) State {
	return e.Apply(SetSort{Mode: mode, Field: field, Direction: dir})
}

// ClearAll resets every filter and sort.
func (e *Engine) ClearAll() State {
	return e.Apply(ClearAll{})
}

// Derive returns the filtered and sorted view of records for the current
// state. The input slice and its records are never modified.
func (e *Engine) Derive(records []record.Record) []record.Record {
	return Derive(records, e.state, e.columns, e.lang)
}
