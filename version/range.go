package version

import "fmt"

// Range is the half-open version interval [Start, End).
type Range struct {
	Start Version
	End   Version
}

// NewRange creates a Range, rejecting ranges that contain no versions.
func NewRange(start, end Version) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, fmt.Errorf("range bounds cannot be empty")
	}
	if end.Compare(start) <= 0 {
		return Range{}, fmt.Errorf("range end %s must be greater than start %s", end, start)
	}
	return Range{Start: start, End: end}, nil
}

// ParseRange parses both bounds and calls NewRange.
func ParseRange(start, end string) (Range, error) {
	s, err := Parse(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range start: %w", err)
	}
	e, err := Parse(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range end: %w", err)
	}
	return NewRange(s, e)
}

// Contains reports whether start <= v < end.
func (r Range) Contains(v Version) bool {
	if v.IsZero() {
		return false
	}
	return r.Start.Compare(v) <= 0 && v.Compare(r.End) < 0
}

// String renders the range in interval notation, e.g. "[1.0.0, 2.0.0)".
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
