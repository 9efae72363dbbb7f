package integrator

import (
	"fmt"
	"math"
)

// Grid returns n evenly spaced instants spanning [start, end].
// The first point is exactly start and the last point is exactly end.
func Grid(start, end float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least two points, got %d", ErrInvalidGrid, n)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) || math.IsNaN(end) || math.IsInf(end, 0) {
		return nil, fmt.Errorf("%w: non-finite bounds [%f, %f]", ErrInvalidGrid, start, end)
	}
	if end <= start {
		return nil, fmt.Errorf("%w: end %f must be after start %f", ErrInvalidGrid, end, start)
	}
	ts := make([]float64, n)
	span := end - start
	last := float64(n - 1)
	for i := range ts {
		ts[i] = start + span*float64(i)/last
	}
	ts[n-1] = end // Avoid rounding on the last point.
	return ts, nil
}

// checkGrid ensures ts is usable as an output grid.
func checkGrid(y0, ts []float64) error {
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial state", ErrInvalidGrid)
	}
	if len(ts) < 2 {
		return fmt.Errorf("%w: need at least two points, got %d", ErrInvalidGrid, len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if !(ts[i] > ts[i-1]) {
			return fmt.Errorf("%w: ts[%d]=%f does not follow ts[%d]=%f", ErrInvalidGrid, i, ts[i], i-1, ts[i-1])
		}
	}
	return nil
}

// finite returns whether all the values of v are finite.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// clone returns a copy of s.
func clone(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
