// Package viewport maps a live viewport width to one of an ordered list of
// views and tracks a manual override that only lives until the automatically
// resolved view changes.
package viewport

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// State is the resolution state of one view group.
type State struct {
	ViewportWidth int
	// ManualOverride is the user's explicit choice; empty means automatic.
	ManualOverride ViewKey
	// LastAutoView is the view resolved from ViewportWidth.
	LastAutoView ViewKey
}

// Active returns the override when set, otherwise the automatic view.
func (s State) Active() ViewKey {
	if s.ManualOverride != "" {
		return s.ManualOverride
	}
	return s.LastAutoView
}

// Event is a resolver transition.
type Event interface {
	isEvent()
}

// ViewportChanged reports a new viewport width.
type ViewportChanged struct {
	Width int
}

// OverrideSet records an explicit user choice; an empty View restores
// automatic resolution.
type OverrideSet struct {
	View ViewKey
}

func (ViewportChanged) isEvent() {}
func (OverrideSet) isEvent()     {}

// Resolver owns the ViewResolutionState of one view group. Its methods may
// be called from an observer goroutine.
type Resolver struct {
	mu    sync.Mutex
	bp    Breakpoints
	views []View
	known map[ViewKey]bool
	state State
	log   logr.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger; transitions are logged at V(1).
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver validates the configuration and resolves the initial view for
// width.
func NewResolver(bp Breakpoints, views []View, width int, opts ...Option) (*Resolver, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateViews(views); err != nil {
		return nil, err
	}
	r := &Resolver{
		bp:    bp,
		views: append([]View(nil), views...),
		known: make(map[ViewKey]bool, len(views)),
		log:   logr.Discard(),
	}
	for _, v := range views {
		r.known[v.Key] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state = State{ViewportWidth: width, LastAutoView: ResolveAutoView(width, bp, r.views)}
	return r, nil
}

// Apply runs ev and returns the new state. An OverrideSet naming an unknown
// view returns ErrUnknownView and leaves the state unchanged.
func (r *Resolver) Apply(ev Event) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch e := ev.(type) {
	case ViewportChanged:
		prev := r.state.LastAutoView
		r.state.ViewportWidth = e.Width
		r.state.LastAutoView = ResolveAutoView(e.Width, r.bp, r.views)
		if r.state.LastAutoView != prev {
			if r.state.ManualOverride != "" {
				r.log.V(1).Info("breakpoint crossed, discarding view override",
					"from", prev, "to", r.state.LastAutoView, "override", r.state.ManualOverride)
			}
			r.state.ManualOverride = ""
		}
	case OverrideSet:
		if e.View != "" && !r.known[e.View] {
			return r.state, fmt.Errorf("%w: %q", ErrUnknownView, e.View)
		}
		r.state.ManualOverride = e.View
		r.log.V(1).Info("view override", "view", e.View, "auto", r.state.LastAutoView)
	case nil:
	default:
		return r.state, fmt.Errorf("unsupported resolver event %T", ev)
	}
	return r.state, nil
}

// OnViewportChange recomputes the automatic view for width. When it differs
// from the previous automatic view the manual override is discarded.
func (r *Resolver) OnViewportChange(width int) State {
	s, _ := r.Apply(ViewportChanged{Width: width})
	return s
}

// SetManualOverride selects key explicitly; "" restores automatic resolution.
func (r *Resolver) SetManualOverride(key ViewKey) error {
	_, err := r.Apply(OverrideSet{View: key})
	return err
}

// ActiveView returns the override when set, otherwise the automatic view.
func (r *Resolver) ActiveView() ViewKey {
	return r.State().Active()
}

// State returns the current state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Breakpoints returns the configured thresholds.
func (r *Resolver) Breakpoints() Breakpoints { return r.bp }

// Views returns a copy of the ordered views.
func (r *Resolver) Views() []View {
	return append([]View(nil), r.views...)
}

// View returns the view configured under key.
func (r *Resolver) View(key ViewKey) (View, bool) {
	for _, v := range r.views {
		if v.Key == key {
			return v, true
		}
	}
	return View{}, false
}

// NextView returns the view after the active one, wrapping around. UIs use
// it to cycle the manual override.
func (r *Resolver) NextView() ViewKey {
	active := r.ActiveView()
	for i, v := range r.views {
		if v.Key == active {
			return r.views[(i+1)%len(r.views)].Key
		}
	}
	return r.views[0].Key
}

// Watch feeds widths from obs into OnViewportChange until the returned
// function is called.
func (r *Resolver) Watch(obs Observer) (unsubscribe func()) {
	return obs.Subscribe(func(s Size) {
		r.OnViewportChange(s.Width)
	})
}
