package drone

import "math"

// finite returns whether all the values of v are finite.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// rotate returns p rotated counter-clockwise by θ radians around the origin.
func rotate(p Point, θ float64) Point {
	sθ, cθ := math.Sincos(θ)
	return Point{p.X*cθ - p.Y*sθ, p.X*sθ + p.Y*cθ}
}
