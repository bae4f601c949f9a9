package slot

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dvx/pkg/viewport"
)

// Builder collects fills and defaults and validates them in Build.
type Builder struct {
	views    []viewport.ViewKey
	declared map[Name]bool
	order    []Name
	filled   map[Name]Content
	defaults map[Name]Content
	errs     []error
	log      logr.Logger
}

// NewBuilder declares one view slot per key in views, ordered from the
// coarsest to the finest, plus the named slots. With no names the built-in
// header-actions, search and modal slots are declared.
func NewBuilder(views []viewport.ViewKey, names ...Name) *Builder {
	b := &Builder{
		views:    append([]viewport.ViewKey(nil), views...),
		declared: make(map[Name]bool),
		filled:   make(map[Name]Content),
		defaults: make(map[Name]Content),
		log:      logr.Discard(),
	}
	if len(views) == 0 {
		b.errs = append(b.errs, fmt.Errorf("%w: at least one view is required", ErrInvalidSlot))
	}
	if len(names) == 0 {
		names = []Name{HeaderActions, Search, Modal}
	}
	for _, n := range names {
		if _, isView := n.ViewKey(); isView || n == "" {
			b.errs = append(b.errs, fmt.Errorf("%w: invalid slot name %q", ErrInvalidSlot, n))
			continue
		}
		b.declare(n)
	}
	for _, v := range views {
		if v == "" {
			b.errs = append(b.errs, fmt.Errorf("%w: empty view key", ErrInvalidSlot))
			continue
		}
		b.declare(ViewSlot(v))
	}
	return b
}

func (b *Builder) declare(n Name) {
	if b.declared[n] {
		b.errs = append(b.errs, fmt.Errorf("%w: slot %q declared twice", ErrInvalidSlot, n))
		return
	}
	b.declared[n] = true
	b.order = append(b.order, n)
}

// WithLogger sets the composer's logger.
func (b *Builder) WithLogger(log logr.Logger) *Builder {
	b.log = log
	return b
}

// Fill supplies caller content for name.
func (b *Builder) Fill(name Name, c Content) *Builder {
	b.put(b.filled, "fill", name, c)
	return b
}

// FillView supplies caller content for the view slot of key.
func (b *Builder) FillView(key viewport.ViewKey, c Content) *Builder {
	return b.Fill(ViewSlot(key), c)
}

// Default supplies the host's built-in content for name. For view slots a
// caller fill on any coarser view wins over a default on the active view.
func (b *Builder) Default(name Name, c Content) *Builder {
	b.put(b.defaults, "default", name, c)
	return b
}

// DefaultView supplies the host's built-in content for the view slot of key.
// It is only reached when no caller fill exists from key toward coarser views.
func (b *Builder) DefaultView(key viewport.ViewKey, c Content) *Builder {
	return b.Default(ViewSlot(key), c)
}

func (b *Builder) put(m map[Name]Content, kind string, name Name, c Content) {
	switch {
	case !b.declared[name]:
		b.errs = append(b.errs, fmt.Errorf("%w: %s for unknown slot %q", ErrInvalidSlot, kind, name))
	case c == nil || !c.valid():
		b.errs = append(b.errs, fmt.Errorf("%w: %s for slot %q has no content", ErrInvalidSlot, kind, name))
	case m[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("%w: duplicate %s for slot %q", ErrInvalidSlot, kind, name))
	default:
		m[name] = c
	}
}

// Build returns the composer or every configuration error found.
func (b *Builder) Build() (*Composer, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	c := &Composer{
		views:    append([]viewport.ViewKey(nil), b.views...),
		names:    append([]Name(nil), b.order...),
		filled:   make(map[Name]Content, len(b.filled)),
		defaults: make(map[Name]Content, len(b.defaults)),
		log:      b.log,
	}
	for k, v := range b.filled {
		c.filled[k] = v
	}
	for k, v := range b.defaults {
		c.defaults[k] = v
	}
	return c, nil
}

// Composer resolves slot content. It is immutable after Build.
type Composer struct {
	views    []viewport.ViewKey
	names    []Name
	filled   map[Name]Content
	defaults map[Name]Content
	log      logr.Logger
}

// Names returns the declared slots in declaration order.
func (c *Composer) Names() []Name {
	return append([]Name(nil), c.names...)
}

// Filled reports whether a caller supplied content for name.
func (c *Composer) Filled(name Name) bool {
	return c.filled[name] != nil
}

// Lookup returns the caller content for name, else the default.
func (c *Composer) Lookup(name Name) (Content, bool) {
	if content := c.filled[name]; content != nil {
		return content, true
	}
	content := c.defaults[name]
	return content, content != nil
}

// Render evaluates the content of name. View slots do not fall back here;
// use RenderView.
func (c *Composer) Render(name Name, ctx Context) (any, bool) {
	content, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	return content.render(ctx), true
}

// ResolveView picks the content for active without evaluating it. Caller
// content is searched from active toward coarser views; only when none is
// found is the same chain searched over the defaults. source is the view
// whose slot supplied the content.
func (c *Composer) ResolveView(active viewport.ViewKey) (source viewport.ViewKey, content Content, ok bool) {
	idx := -1
	for i, v := range c.views {
		if v == active {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil, false
	}
	for _, m := range []map[Name]Content{c.filled, c.defaults} {
		for i := idx; i >= 0; i-- {
			if content := m[ViewSlot(c.views[i])]; content != nil {
				if i != idx {
					c.log.V(1).Info("view slot fallback", "active", active, "source", c.views[i])
				}
				return c.views[i], content, true
			}
		}
	}
	return "", nil, false
}

// RenderView evaluates only the content resolved for active.
func (c *Composer) RenderView(active viewport.ViewKey, ctx Context) (any, bool) {
	_, content, ok := c.ResolveView(active)
	if !ok {
		return nil, false
	}
	return content.render(ctx), true
}
