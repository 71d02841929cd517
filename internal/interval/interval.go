// Package interval provides the half-open time window model used by the
// scheduling core. A window [start, end) overlaps another iff each starts
// before the other ends; windows that merely touch do not overlap.
package interval

import (
	"fmt"
	"time"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds a window from start and end instants.
func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Validate checks the start < end invariant. Zero-duration and inverted
// windows are rejected here so overlap tests never see degenerate input.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("time window requires both start and end")
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("time window start (%s) must be before end (%s)",
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two half-open windows intersect. Touching
// endpoints (a.End == b.Start) do not count as overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether the instant t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
