package drone

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Derivative returns the time derivative of the state s at time t.
// The thrusts act along the body normal with an offset of L/2 from the center of mass.
func Derivative(t float64, s State, p Parameters, fp ForceProvider) (sDot State) {
	u := fp.Forces(t)
	sθ, cθ := math.Sincos(s[Theta])
	thrust := u.F1 + u.F2
	// d(x, y, θ)/dt
	sDot[X] = s[VX]
	sDot[Y] = s[VY]
	sDot[Theta] = s[Omega]
	// d(ẋ, ẏ, θ̇)/dt
	sDot[VX] = -thrust * sθ / p.Mass
	sDot[VY] = thrust*cθ/p.Mass - p.Gravity
	sDot[Omega] = (u.F2 - u.F1) * p.Length / (2 * p.Inertia)
	return
}

// Dynamics binds the parameters and the thrust input of a drone.
// It implements integrator.Integrable.
type Dynamics struct {
	Params Parameters
	Input  ForceProvider
}

// Derivative returns the time derivative of s at t.
func (d Dynamics) Derivative(t float64, s State) State {
	return Derivative(t, s, d.Params, d.Input)
}

// Func implements integrator.Integrable.
func (d Dynamics) Func(t float64, f []float64) []float64 {
	fDot := d.Derivative(t, stateFromSlice(f))
	return fDot[:]
}

// Linearize returns the Jacobians of the state derivative at (t, s) with respect
// to the state (A, 6x6) and to the engine thrusts (B, 6x2).
func (d Dynamics) Linearize(t float64, s State) (A, B *mat.Dense) {
	u := d.Input.Forces(t)
	thrust := u.F1 + u.F2
	m := d.Params.Mass
	sθ, cθ := math.Sincos(s[Theta])

	A = mat.NewDense(StateSize, StateSize, nil)
	// Top right is Identity 3x3
	A.Set(X, VX, 1)
	A.Set(Y, VY, 1)
	A.Set(Theta, Omega, 1)
	A.Set(VX, Theta, -thrust*cθ/m)
	A.Set(VY, Theta, -thrust*sθ/m)

	arm := d.Params.Length / (2 * d.Params.Inertia)
	B = mat.NewDense(StateSize, 2, []float64{
		0, 0,
		0, 0,
		0, 0,
		-sθ / m, -sθ / m,
		cθ / m, cθ / m,
		-arm, arm,
	})
	return
}
