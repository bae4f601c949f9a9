// Package slot is a typed registry of named extension points. A host
// declares its slots up front, callers fill some of them, and unfilled slots
// fall back to the host's defaults. View slots additionally fall back along
// the ordered view list toward coarser views.
package slot

import (
	"errors"
	"strings"

	"github.com/oakwood-commons/dvx/pkg/column"
	"github.com/oakwood-commons/dvx/pkg/filter"
	"github.com/oakwood-commons/dvx/pkg/record"
	"github.com/oakwood-commons/dvx/pkg/viewport"
)

// ErrInvalidSlot is wrapped by every slot configuration error.
var ErrInvalidSlot = errors.New("invalid slot configuration")

// Name identifies a slot.
type Name string

// Built-in slot names.
const (
	HeaderActions Name = "header-actions"
	Search        Name = "search"
	Modal         Name = "modal"
)

const viewPrefix = "view:"

// ViewSlot returns the slot that renders view key.
func ViewSlot(key viewport.ViewKey) Name {
	return Name(viewPrefix + string(key))
}

// ViewKey reports the view a view slot renders.
func (n Name) ViewKey() (viewport.ViewKey, bool) {
	key, ok := strings.CutPrefix(string(n), viewPrefix)
	return viewport.ViewKey(key), ok
}

// Context is the derived state handed to slot content.
type Context struct {
	// Records is the derived view; Total is the size of the underlying
	// collection before filtering.
	Records []record.Record
	Total   int
	Columns *column.Set

	Filter   filter.State
	SortMode filter.Mode
	Sort     filter.SortSpec

	ActiveView viewport.ViewKey
	Override   viewport.ViewKey
	Width      int
	Height     int

	// Selection holds indices into Records.
	Selection []int

	Props map[string]any
}

// Prop returns a free-form property.
func (c Context) Prop(key string) (any, bool) {
	v, ok := c.Props[key]
	return v, ok
}

// Content is what a slot holds: a Producer or a Static value.
type Content interface {
	render(Context) any
	valid() bool
}

// Producer computes slot content from the current context. It is only
// called for the slot being rendered.
type Producer func(Context) any

func (p Producer) render(ctx Context) any { return p(ctx) }
func (p Producer) valid() bool            { return p != nil }

// Static is inert content rendered as-is. A Value implementing PropsReceiver
// receives the context first.
type Static struct {
	Value any
}

func (s Static) render(ctx Context) any {
	if pr, ok := s.Value.(PropsReceiver); ok {
		return pr.WithProps(ctx)
	}
	return s.Value
}

func (s Static) valid() bool { return s.Value != nil }

// PropsReceiver is implemented by static content that wants the context
// injected.
type PropsReceiver interface {
	WithProps(Context) any
}

// Render evaluates c against ctx.
func Render(c Content, ctx Context) any {
	if c == nil {
		return nil
	}
	return c.render(ctx)
}
