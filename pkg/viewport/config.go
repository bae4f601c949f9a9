package viewport

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by breakpoint and view configuration errors.
	ErrInvalidConfig = errors.New("invalid viewport configuration")
	// ErrUnknownView is returned when a view key is not configured.
	ErrUnknownView = errors.New("unknown view")
)

// ViewKey identifies one renderable representation of a collection.
type ViewKey string

// Canonical view keys, ordered from the widest to the narrowest viewport.
const (
	Desktop ViewKey = "desktop"
	Tablet  ViewKey = "tablet"
	Mobile  ViewKey = "mobile"
)

// View describes one entry of the ordered view list.
type View struct {
	Key  ViewKey `yaml:"key" json:"key"`
	Name string  `yaml:"name,omitempty" json:"name,omitempty"`
	Icon string  `yaml:"icon,omitempty" json:"icon,omitempty"`

	// Content is optional embedded content carried with the view definition.
	Content any `yaml:"-" json:"-"`
}

// Label returns the icon and name (or key) for display.
func (v View) Label() string {
	name := v.Name
	if name == "" {
		name = string(v.Key)
	}
	if v.Icon != "" {
		return v.Icon + " " + name
	}
	return name
}

// DefaultViews returns the canonical desktop/tablet/mobile list.
func DefaultViews() []View {
	return []View{
		{Key: Desktop, Name: "Table"},
		{Key: Tablet, Name: "Cards"},
		{Key: Mobile, Name: "Compact"},
	}
}

// ValidateViews checks that views is non-empty with unique, non-empty keys.
func ValidateViews(views []View) error {
	if len(views) == 0 {
		return fmt.Errorf("%w: at least one view is required", ErrInvalidConfig)
	}
	seen := make(map[ViewKey]bool, len(views))
	var errs []error
	for i, v := range views {
		if v.Key == "" {
			errs = append(errs, fmt.Errorf("%w: views[%d]: key is required", ErrInvalidConfig, i))
			continue
		}
		if seen[v.Key] {
			errs = append(errs, fmt.Errorf("%w: views[%d]: duplicate key %q", ErrInvalidConfig, i, v.Key))
			continue
		}
		seen[v.Key] = true
	}
	return errors.Join(errs...)
}

// Keys returns the view keys in order.
func Keys(views []View) []ViewKey {
	out := make([]ViewKey, len(views))
	for i, v := range views {
		out[i] = v.Key
	}
	return out
}

// Breakpoints are inclusive upper widths for the mobile and tablet ranges.
// Desktop marks the width from which the layout is considered full size; it
// does not change resolution. When set it must be the largest threshold.
type Breakpoints struct {
	Mobile  int `yaml:"mobile" json:"mobile"`
	Tablet  int `yaml:"tablet" json:"tablet"`
	Desktop int `yaml:"desktop" json:"desktop"`
}

// DefaultBreakpoints are expressed in terminal columns.
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{Mobile: 60, Tablet: 100, Desktop: 140}
}

// Validate checks that thresholds are positive and strictly increasing. A
// zero Desktop means unset.
func (b Breakpoints) Validate() error {
	if b.Mobile <= 0 {
		return fmt.Errorf("%w: breakpoints.mobile must be positive, got %d", ErrInvalidConfig, b.Mobile)
	}
	if b.Tablet <= b.Mobile {
		return fmt.Errorf("%w: breakpoints must increase: tablet (%d) <= mobile (%d)", ErrInvalidConfig, b.Tablet, b.Mobile)
	}
	if b.Desktop != 0 && b.Desktop <= b.Tablet {
		return fmt.Errorf("%w: breakpoints must increase: desktop (%d) <= tablet (%d)", ErrInvalidConfig, b.Desktop, b.Tablet)
	}
	return nil
}

// ResolveAutoView maps width to a view: at or below Mobile the last (most
// specific) view, at or below Tablet the middle view, otherwise the first.
// With fewer than three views the indices clamp to the available ones.
// views must be non-empty.
func ResolveAutoView(width int, bp Breakpoints, views []View) ViewKey {
	switch {
	case width <= bp.Mobile:
		return views[len(views)-1].Key
	case width <= bp.Tablet:
		return views[len(views)/2].Key
	}
	return views[0].Key
}
