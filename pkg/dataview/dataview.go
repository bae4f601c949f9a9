// Package dataview binds a column model, a filter engine, a view resolver and
// a slot composer to one collection. Everything is validated in New; after
// that the Controller exposes the callbacks a front end wires to user input.
package dataview

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/text/language"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/slot"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

// ErrSelection is returned for selection indices outside the derived view.
var ErrSelection = errors.New("selection out of range")

// Config describes one collection and its view group.
type Config struct {
	// Columns may be empty, in which case they are inferred from Records.
	Columns []column.Spec
	Records []record.Record

	// Zero Breakpoints and nil Views select the defaults.
	Breakpoints viewport.Breakpoints
	Views       []viewport.View
	Width       int
	Height      int

	Language language.Tag
	State    filter.State
	Logger   logr.Logger

	// SlotNames declares the non-view slots; nil keeps the built-in set.
	SlotNames []slot.Name
	// Slots fills caller content and defaults before the composer is built.
	Slots func(*slot.Builder)
}

// Controller owns the state of one collection.
type Controller struct {
	columns  *column.Set
	engine   *filter.Engine
	resolver *viewport.Resolver
	composer *slot.Composer
	log      logr.Logger

	records   []record.Record
	derived   []record.Record
	selection []int
	height    int
	props     map[string]any
}

// New validates cfg and returns a Controller. Column, breakpoint, view and
// slot problems are reported together.
func New(cfg Config) (*Controller, error) {
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	specs := cfg.Columns
	if len(specs) == 0 {
		specs = column.Infer(cfg.Records)
	}
	bp := cfg.Breakpoints
	if bp == (viewport.Breakpoints{}) {
		bp = viewport.DefaultBreakpoints()
	}
	views := cfg.Views
	if views == nil {
		views = viewport.DefaultViews()
	}

	var errs []error
	columns, err := column.NewSet(specs...)
	if err != nil {
		errs = append(errs, err)
	}
	resolver, err := viewport.NewResolver(bp, views, cfg.Width, viewport.WithLogger(log.WithName("viewport")))
	if err != nil {
		errs = append(errs, err)
	}
	b := slot.NewBuilder(viewport.Keys(views), cfg.SlotNames...).WithLogger(log.WithName("slot"))
	if cfg.Slots != nil {
		cfg.Slots(b)
	}
	composer, err := b.Build()
	if err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("dataview: %w", err)
	}

	c := &Controller{
		columns:  columns,
		resolver: resolver,
		composer: composer,
		log:      log,
		height:   cfg.Height,
		engine: filter.NewEngine(columns,
			filter.WithLanguage(cfg.Language),
			filter.WithLogger(log.WithName("filter")),
			filter.WithState(cfg.State)),
	}
	c.SetRecords(cfg.Records)
	return c, nil
}

// Columns returns the validated column set.
func (c *Controller) Columns() *column.Set { return c.columns }

// Engine exposes the filter engine for read access.
func (c *Controller) Engine() *filter.Engine { return c.engine }

// Resolver exposes the view resolver.
func (c *Controller) Resolver() *viewport.Resolver { return c.resolver }

// Composer exposes the slot composer.
func (c *Controller) Composer() *slot.Composer { return c.composer }

// SetRecords replaces the collection and recomputes the derived view.
func (c *Controller) SetRecords(records []record.Record) {
	c.records = append([]record.Record(nil), records...)
	c.refresh()
	c.log.V(1).Info("records replaced", "total", len(c.records), "derived", len(c.derived))
}

// Records returns the underlying collection.
func (c *Controller) Records() []record.Record {
	return append([]record.Record(nil), c.records...)
}

// Derived returns the filtered and sorted view.
func (c *Controller) Derived() []record.Record {
	return append([]record.Record(nil), c.derived...)
}

func (c *Controller) refresh() {
	c.derived = c.engine.Derive(c.records)
	c.selection = nil
}

func (c *Controller) apply(ev filter.Event) filter.State {
	s := c.engine.Apply(ev)
	c.refresh()
	return s
}

// State returns the filter state.
func (c *Controller) State() filter.State { return c.engine.State() }

// SetColumnFilter filters key by value; a non-empty value clears free text.
func (c *Controller) SetColumnFilter(key, value string) filter.State {
	return c.apply(filter.SetColumnFilter{Key: key, Value: value})
}

// SetFreeText searches every field; a non-empty term clears column filters.
func (c *Controller) SetFreeText(term string) filter.State {
	return c.apply(filter.SetFreeText{Term: term})
}

// ToggleSort cycles field for mode and resets the other mode.
func (c *Controller) ToggleSort(mode filter.Mode, field string) filter.State {
	return c.apply(filter.ToggleSort{Mode: mode, Field: field})
}

// SetSort sets the sort for mode and resets the other mode.
func (c *Controller) SetSort(mode filter.Mode, field string, dir filter.Direction) filter.State {
	return c.apply(filter.SetSort{Mode: mode, Field: field, Direction: dir})
}

// ClearAll resets every filter and sort.
func (c *Controller) ClearAll() filter.State {
	return c.apply(filter.ClearAll{})
}

// OnViewportChange feeds a new width to the resolver.
func (c *Controller) OnViewportChange(width int) viewport.State {
	return c.resolver.OnViewportChange(width)
}

// OnResize records the height and feeds the width to the resolver.
func (c *Controller) OnResize(size viewport.Size) viewport.State {
	c.height = size.Height
	return c.resolver.OnViewportChange(size.Width)
}

// SetManualOverride selects a view explicitly; "" restores automatic
// resolution.
func (c *Controller) SetManualOverride(key viewport.ViewKey) error {
	return c.resolver.SetManualOverride(key)
}

// CycleView overrides the active view with the next one in order.
func (c *Controller) CycleView() viewport.ViewKey {
	next := c.resolver.NextView()
	// NextView only returns configured keys.
	_ = c.resolver.SetManualOverride(next)
	return next
}

// ActiveView returns the view currently rendered.
func (c *Controller) ActiveView() viewport.ViewKey { return c.resolver.ActiveView() }

// ViewState returns the resolver state.
func (c *Controller) ViewState() viewport.State { return c.resolver.State() }

// Watch subscribes the resolver to obs.
func (c *Controller) Watch(obs viewport.Observer) func() {
	return c.resolver.Watch(obs)
}

// SetSelection selects derived records by index. Any filter or sort event
// clears the selection.
func (c *Controller) SetSelection(indices ...int) error {
	seen := make(map[int]bool, len(indices))
	sel := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(c.derived) {
			return fmt.Errorf("%w: index %d, derived view has %d records", ErrSelection, i, len(c.derived))
		}
		if !seen[i] {
			seen[i] = true
			sel = append(sel, i)
		}
	}
	if len(sel) == 0 {
		sel = nil
	}
	c.selection = sel
	return nil
}

// Selection returns the selected indices into Derived.
func (c *Controller) Selection() []int {
	return append([]int(nil), c.selection...)
}

// Selected returns the selected records.
func (c *Controller) Selected() []record.Record {
	out := make([]record.Record, 0, len(c.selection))
	for _, i := range c.selection {
		out = append(out, c.derived[i])
	}
	return out
}

// SetProp stores a free-form property passed to slot content.
func (c *Controller) SetProp(key string, value any) {
	if c.props == nil {
		c.props = make(map[string]any)
	}
	c.props[key] = value
}

// Context snapshots the state handed to slot content.
func (c *Controller) Context() slot.Context {
	state := c.engine.State()
	mode, sort := state.ActiveSort()
	vs := c.resolver.State()
	var props map[string]any
	if len(c.props) > 0 {
		props = make(map[string]any, len(c.props))
		for k, v := range c.props {
			props[k] = v
		}
	}
	return slot.Context{
		Records:    c.Derived(),
		Total:      len(c.records),
		Columns:    c.columns,
		Filter:     state,
		SortMode:   mode,
		Sort:       sort,
		ActiveView: vs.Active(),
		Override:   vs.ManualOverride,
		Width:      vs.ViewportWidth,
		Height:     c.height,
		Selection:  c.Selection(),
		Props:      props,
	}
}

// Render evaluates a named slot.
func (c *Controller) Render(name slot.Name) (any, bool) {
	return c.composer.Render(name, c.Context())
}

// RenderActiveView evaluates the content resolved for the active view and
// nothing else.
func (c *Controller) RenderActiveView() (any, bool) {
	return c.composer.RenderView(c.resolver.ActiveView(), c.Context())
}
