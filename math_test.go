package drone

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestRotate(t *testing.T) {
	for _, tc := range []struct {
		in  Point
		θ   float64
		exp Point
	}{
		{Point{1, 0}, 0, Point{1, 0}},
		{Point{1, 0}, math.Pi / 2, Point{0, 1}},
		{Point{1, 0}, math.Pi, Point{-1, 0}},
		{Point{0, 1}, math.Pi / 2, Point{-1, 0}},
		{Point{2, 3}, -math.Pi / 2, Point{3, -2}},
	} {
		got := rotate(tc.in, tc.θ)
		if !scalar.EqualWithinAbs(got.X, tc.exp.X, 1e-12) || !scalar.EqualWithinAbs(got.Y, tc.exp.Y, 1e-12) {
			t.Fatalf("rotate(%+v, %f) = %+v, expected %+v", tc.in, tc.θ, got, tc.exp)
		}
	}
}

func TestFinite(t *testing.T) {
	if !finite([]float64{0, -1, 1e300}) {
		t.Fatal("finite values reported as non-finite")
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if finite([]float64{1, bad}) {
			t.Fatalf("%f reported as finite", bad)
		}
	}
	if !(State{}).IsFinite() || (State{Y: math.NaN()}).IsFinite() {
		t.Fatal("State.IsFinite is wrong")
	}
}

func TestParameters(t *testing.T) {
	p, err := NewParameters(2, 2, 9.81)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(p.Inertia, 2/3.0, 1e-15) {
		t.Fatalf("rod inertia %f", p.Inertia)
	}
	if p.HoverThrust() != 9.81 {
		t.Fatalf("hover thrust %f", p.HoverThrust())
	}
	if _, err := NewParametersWithInertia(2, 2, 9.81, 0.5); err != nil {
		t.Fatalf("custom inertia rejected: %s", err)
	}
	if _, err := NewParameters(2, 2, 0); err != nil {
		t.Fatalf("vacuum rejected: %s", err)
	}
	if _, err := NewParameters(0, 2, 9.81); err == nil {
		t.Fatal("null mass accepted")
	}
	if _, err := NewParametersWithInertia(1, 1, 1, -1); err == nil {
		t.Fatal("negative inertia accepted")
	}
}
