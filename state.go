package drone

import "fmt"

// StateSize is the dimension of the state vector.
const StateSize = 6

// Indexes of the state vector.
const (
	X     = iota // horizontal position (m)
	Y            // vertical position (m)
	Theta        // pitch (rad)
	VX           // horizontal velocity (m/s)
	VY           // vertical velocity (m/s)
	Omega        // pitch rate (rad/s)
)

// State is the planar state of the drone: {x, y, θ, ẋ, ẏ, θ̇}.
// The pitch is never wrapped to [-π, π]: pitch tracking relies on it being continuous.
type State [StateSize]float64

// NewState returns a state at the provided pose with null velocities.
func NewState(x, y, theta float64) State {
	return State{X: x, Y: y, Theta: theta}
}

// Pose returns the position and the pitch.
func (s State) Pose() (x, y, theta float64) {
	return s[X], s[Y], s[Theta]
}

// IsFinite returns whether none of the components is NaN or infinite.
func (s State) IsFinite() bool {
	return finite(s[:])
}

func (s State) String() string {
	return fmt.Sprintf("x=%.4f y=%.4f θ=%.4f ẋ=%.4f ẏ=%.4f θ̇=%.4f", s[X], s[Y], s[Theta], s[VX], s[VY], s[Omega])
}

// stateFromSlice copies the first StateSize values of s.
func stateFromSlice(s []float64) (st State) {
	copy(st[:], s)
	return
}
