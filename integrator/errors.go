package integrator

import "errors"

var (
	// ErrStepBudget is returned when the solver needs more internal steps than allowed.
	ErrStepBudget = errors.New("integrator: maximum number of steps exceeded")
	// ErrStepUnderflow is returned when the adaptive step shrinks below the time resolution.
	ErrStepUnderflow = errors.New("integrator: step size underflow")
	// ErrNonFinite is returned when Func returns a NaN or an infinite value.
	ErrNonFinite = errors.New("integrator: non-finite derivative")
	// ErrInvalidGrid is returned for output grids which are not strictly increasing.
	ErrInvalidGrid = errors.New("integrator: invalid output grid")
)
