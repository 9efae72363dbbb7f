package drone

import (
	"fmt"
	"math"
)

// Parameters defines the physical parameters of the drone.
// It is a value type: a Mission keeps its own copy.
type Parameters struct {
	Mass    float64 // kg
	Length  float64 // m, distance between both engines
	Gravity float64 // m/s^2
	Inertia float64 // kg*m^2, around the center of mass
}

// RodInertia returns the moment of inertia of a uniform rod of mass m and length l.
func RodInertia(m, l float64) float64 {
	return m * l * l / 12
}

// NewParameters returns validated parameters where the inertia is the one of a uniform rod.
func NewParameters(mass, length, gravity float64) (Parameters, error) {
	return NewParametersWithInertia(mass, length, gravity, RodInertia(mass, length))
}

// NewParametersWithInertia returns validated parameters with the provided inertia.
func NewParametersWithInertia(mass, length, gravity, inertia float64) (Parameters, error) {
	p := Parameters{Mass: mass, Length: length, Gravity: gravity, Inertia: inertia}
	return p, p.Validate()
}

// Validate returns a ConfigurationError if any parameter is out of bounds.
// Gravity may be zero.
func (p Parameters) Validate() error {
	for _, c := range []struct {
		field     string
		value     float64
		allowZero bool
	}{
		{"mass", p.Mass, false},
		{"length", p.Length, false},
		{"gravity", p.Gravity, true},
		{"inertia", p.Inertia, false},
	} {
		switch {
		case math.IsNaN(c.value) || math.IsInf(c.value, 0):
			return &ConfigurationError{Field: c.field, Value: c.value, Reason: "must be finite"}
		case c.allowZero && c.value < 0:
			return &ConfigurationError{Field: c.field, Value: c.value, Reason: "must not be negative"}
		case !c.allowZero && c.value <= 0:
			return &ConfigurationError{Field: c.field, Value: c.value, Reason: "must be strictly positive"}
		}
	}
	return nil
}

// HoverThrust returns the thrust each engine must provide for the drone to hover.
func (p Parameters) HoverThrust() float64 {
	return p.Mass * p.Gravity / 2
}

func (p Parameters) String() string {
	return fmt.Sprintf("m=%.3fkg L=%.3fm g=%.3fm/s^2 I=%.4fkg*m^2", p.Mass, p.Length, p.Gravity, p.Inertia)
}
