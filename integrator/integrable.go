package integrator

import (
	"context"
	"fmt"
)

// Integrable defines something which can be integrated, i.e. has an ODE function.
// Func must not retain s and must return a new slice.
type Integrable interface {
	Func(t float64, s []float64) []float64 // ODE function from time t and state s.
}

// Func adapts a plain function to the Integrable interface.
type Func func(t float64, s []float64) []float64

// Func implements the Integrable interface.
func (f Func) Func(t float64, s []float64) []float64 {
	return f(t, s)
}

// Stats stores the bookkeeping of one Solve call.
type Stats struct {
	Steps       int // Accepted internal steps.
	Rejected    int // Rejected internal steps (adaptive solvers only).
	Evaluations int // Calls to Func.
}

// Solver integrates an Integrable from ts[0] and reports the solution at every ts[k].
// ys[k] is the state at ts[k] and ys[0] is a copy of y0. On error, ys holds the
// longest prefix of output points which were reached before the failure.
type Solver interface {
	Solve(ctx context.Context, f Integrable, y0, ts []float64) (ys [][]float64, stats Stats, err error)
}

// evaluator counts and checks the calls to an Integrable.
type evaluator struct {
	f     Integrable
	stats *Stats
}

func (e *evaluator) eval(t float64, s []float64) ([]float64, error) {
	e.stats.Evaluations++
	d := e.f.Func(t, s)
	if len(d) != len(s) {
		return nil, fmt.Errorf("integrator: Func returned %d values for a state of size %d", len(d), len(s))
	}
	if !finite(d) {
		return nil, fmt.Errorf("%w at t=%g: %v", ErrNonFinite, t, d)
	}
	return d, nil
}
