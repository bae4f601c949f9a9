// Package limiter trims a derived view to a window for one-shot output.
package limiter

import (
	"fmt"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate rejects negative values and Limit combined with Tail. Offset is
// ignored when Tail is set.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Window returns the half-open range [start, end) selected from length
// items.
func (c Config) Window(length int) (start, end int) {
	if c.Tail > 0 {
		return max(length-c.Tail, 0), length
	}
	start = min(c.Offset, length)
	end = length
	if c.Limit > 0 {
		end = min(start+c.Limit, length)
	}
	return start, end
}

// Apply returns the window of items selected by c. The result shares the
// backing array with items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Window(len(items))
	return items[start:end]
}

// Describe summarizes the window for status lines, e.g. "11-20 of 42".
func (c Config) Describe(length int) string {
	start, end := c.Window(length)
	if !c.IsActive() || (start == 0 && end == length) {
		return fmt.Sprintf("%d", length)
	}
	if start == end {
		return fmt.Sprintf("0 of %d", length)
	}
	return fmt.Sprintf("%d-%d of %d", start+1, end, length)
}
