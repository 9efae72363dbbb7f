package integrator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ChristopherRabotin/ode"
)

// RK4 defines the classical fixed step Runge-Kutta integrator.
// The output points are interpolated with cubic Hermite polynomials between two steps,
// hence the step size does not need to divide the output spacing.
type RK4 struct {
	StepSize float64 // The step size.
	MaxSteps int     // Internal step budget, DefaultMaxSteps if zero.
}

// NewRK4 returns a new RK4 integrator instance.
func NewRK4(stepSize float64) (*RK4, error) {
	if !(stepSize > 0) || math.IsInf(stepSize, 0) {
		return nil, errors.New("integrator: RK4 step size must be positive")
	}
	return &RK4{StepSize: stepSize}, nil
}

// Solve implements the Solver interface.
func (r *RK4) Solve(ctx context.Context, f Integrable, y0, ts []float64) ([][]float64, Stats, error) {
	var stats Stats
	if !(r.StepSize > 0) || math.IsInf(r.StepSize, 0) {
		return nil, stats, errors.New("integrator: RK4 step size must be positive")
	}
	if err := checkGrid(y0, ts); err != nil {
		return nil, stats, err
	}
	if !finite(y0) {
		return nil, stats, fmt.Errorf("%w: initial state %v", ErrNonFinite, y0)
	}
	run := &rk4Run{
		ctx:      ctx,
		ev:       evaluator{f: f, stats: &stats},
		ts:       ts,
		next:     1,
		ys:       make([][]float64, 1, len(ts)),
		t:        ts[0],
		state:    clone(y0),
		maxSteps: r.MaxSteps,
	}
	if run.maxSteps <= 0 {
		run.maxSteps = DefaultMaxSteps
	}
	run.ys[0] = clone(y0)
	if _, _, err := ode.NewRK4(ts[0], r.StepSize, run).Solve(); err != nil && run.err == nil { // Blocking.
		run.err = err
	}
	return run.ys, stats, run.err
}

// rk4Run is the ode.Integrable of one RK4 solve. It records the output points
// crossed by every accepted step and stops the integration on the first failure.
type rk4Run struct {
	ctx      context.Context
	ev       evaluator
	ts       []float64
	next     int
	ys       [][]float64
	t        float64
	state    []float64
	f        []float64 // derivative at (t, state), nil until needed
	maxSteps int
	err      error
}

// GetState returns the state of the last accepted step.
func (r *rk4Run) GetState() []float64 {
	return r.state
}

// SetState accepts the step from r.t to t.
func (r *rk4Run) SetState(t float64, s []float64) {
	if r.err != nil {
		return
	}
	if !finite(s) {
		r.err = fmt.Errorf("%w: state overflow at t=%g", ErrNonFinite, t)
		return
	}
	r.ev.stats.Steps++
	h := t - r.t
	var fNew []float64
	var err error
	for r.next < len(r.ts) && r.ts[r.next] <= t {
		if r.ts[r.next] == t {
			r.ys = append(r.ys, clone(s))
			r.next++
			continue
		}
		if r.f == nil {
			if r.f, err = r.ev.eval(r.t, r.state); err != nil {
				r.err = err
				return
			}
		}
		if fNew == nil {
			if fNew, err = r.ev.eval(t, s); err != nil {
				r.err = err
				return
			}
		}
		r.ys = append(r.ys, hermite((r.ts[r.next]-r.t)/h, h, r.state, r.f, s, fNew))
		r.next++
	}
	r.t, r.state, r.f = t, s, fNew
}

// Stop is called between two steps: cancellation and the step budget are checked here.
func (r *rk4Run) Stop(t float64) bool {
	switch {
	case r.err != nil:
		return true
	case r.next >= len(r.ts):
		return true
	}
	if err := r.ctx.Err(); err != nil {
		r.err = err
		return true
	}
	if r.ev.stats.Steps >= r.maxSteps {
		r.err = fmt.Errorf("%w: %d steps reached at t=%g", ErrStepBudget, r.maxSteps, t)
		return true
	}
	return false
}

// Func evaluates the derivative. After a failure, the remaining stages of the
// current step are not evaluated and its result is discarded by SetState.
func (r *rk4Run) Func(t float64, s []float64) []float64 {
	if r.err == nil {
		d, err := r.ev.eval(t, s)
		if err == nil {
			return d
		}
		r.err = err
	}
	return make([]float64, len(s))
}

// hermite evaluates the cubic Hermite interpolant at the fraction s of a step of
// size h from (y0, f0) to (y1, f1). Components which do not move are returned unchanged.
func hermite(s, h float64, y0, f0, y1, f1 []float64) []float64 {
	s2 := s * s
	s3 := s2 * s
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	out := make([]float64, len(y0))
	for i := range out {
		out[i] = y0[i] + h01*(y1[i]-y0[i]) + h*(h10*f0[i]+h11*f1[i])
	}
	return out
}
