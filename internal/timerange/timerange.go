// Package timerange provides time range arithmetic used by segment detection.
package timerange

import (
	"fmt"
	"slices"
	"sort"
)

// Range is a span of time in seconds. Start <= End is expected but not enforced.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// New creates a Range.
func New(start, end float64) Range {
	return Range{Start: start, End: end}
}

// Duration returns the length of the range in seconds.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// IsZero reports whether the range has no extent.
func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Intersects reports whether either endpoint of other lies strictly inside r.
// A range that fully contains r is not reported as intersecting.
func (r Range) Intersects(other Range) bool {
	return (r.Start < other.Start && other.Start < r.End) ||
		(r.Start < other.End && other.End < r.End)
}

// Shift returns the range moved by offset seconds.
func (r Range) Shift(offset float64) Range {
	return Range{Start: r.Start + offset, End: r.End + offset}
}

func (r Range) String() string {
	return fmt.Sprintf("[%.3f, %.3f]", r.Start, r.End)
}

// SortByDuration orders ranges longest first. Equal durations keep their
// original relative order.
func SortByDuration(ranges []Range) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Duration() > ranges[j].Duration()
	})
}

// FindContiguous splits times into maximal runs whose consecutive values are
// at most maxGap apart and returns the run with the greatest duration. When
// several runs share that duration the earliest one wins. An empty input
// yields the zero Range.
func FindContiguous(times []float64, maxGap float64) Range {
	if len(times) == 0 {
		return Range{}
	}

	sorted := slices.Clone(times)
	slices.Sort(sorted)

	var runs []Range
	current := Range{Start: sorted[0], End: sorted[0]}
	for i := 0; i < len(sorted)-1; i++ {
		next := sorted[i+1]
		if next-sorted[i] <= maxGap {
			current.End = next
			continue
		}
		runs = append(runs, current)
		current = Range{Start: next, End: next}
	}
	runs = append(runs, current)

	SortByDuration(runs)
	return runs[0]
}
