package drone

import (
	"fmt"
	"math"
)

// Forces are the thrusts of the left (F1) and right (F2) engines in Newtons.
// Negative thrust is accepted by the model.
type Forces struct {
	F1, F2 float64
}

// Total returns the sum of both thrusts.
func (f Forces) Total() float64 {
	return f.F1 + f.F2
}

func (f Forces) finite() bool {
	return finite([]float64{f.F1, f.F2})
}

func (f Forces) String() string {
	return fmt.Sprintf("F1=%.3fN F2=%.3fN", f.F1, f.F2)
}

// ForceProvider returns the engine thrusts at a given time.
// Implementations must be pure functions of t: the integrator evaluates them
// out of temporal order.
type ForceProvider interface {
	Forces(t float64) Forces
}

/* Available force providers */

// Segment is a piece of a Schedule: its Forces apply to every t < Until which is
// not covered by a previous segment.
type Segment struct {
	Until  float64
	Forces Forces
}

// Schedule is a piecewise constant ForceProvider.
// A time equal to a breakpoint belongs to the next segment.
type Schedule struct {
	segments []Segment
	final    Forces
}

// NewSchedule returns a Schedule from segments with strictly increasing breakpoints.
// The final forces apply from the last breakpoint onward.
func NewSchedule(segments []Segment, final Forces) (*Schedule, error) {
	for i, seg := range segments {
		if math.IsNaN(seg.Until) || math.IsInf(seg.Until, 0) {
			return nil, &ConfigurationError{Field: fmt.Sprintf("segment %d breakpoint", i), Value: seg.Until, Reason: "must be finite"}
		}
		if i > 0 && seg.Until <= segments[i-1].Until {
			return nil, &ConfigurationError{Field: fmt.Sprintf("segment %d breakpoint", i), Value: seg.Until, Reason: "breakpoints must be strictly increasing"}
		}
		if !seg.Forces.finite() {
			return nil, &ConfigurationError{Field: fmt.Sprintf("segment %d forces", i), Value: seg.Forces, Reason: "must be finite"}
		}
	}
	if !final.finite() {
		return nil, &ConfigurationError{Field: "final forces", Value: final, Reason: "must be finite"}
	}
	s := &Schedule{segments: make([]Segment, len(segments)), final: final}
	copy(s.segments, segments)
	return s, nil
}

// DefaultSchedule returns the example maneuver: hover up, roll right, roll left, climb.
func DefaultSchedule() *Schedule {
	s, err := NewSchedule([]Segment{
		{Until: 2, Forces: Forces{15, 15}},
		{Until: 3, Forces: Forces{15, 14.9}},
		{Until: 5, Forces: Forces{14, 15}},
	}, Forces{18.6, 18})
	if err != nil {
		panic(err)
	}
	return s
}

// Forces implements the ForceProvider interface.
func (s *Schedule) Forces(t float64) Forces {
	for _, seg := range s.segments {
		if t < seg.Until {
			return seg.Forces
		}
	}
	return s.final
}

// Segments returns a copy of the segments of this schedule, and its final forces.
func (s *Schedule) Segments() ([]Segment, Forces) {
	segs := make([]Segment, len(s.segments))
	copy(segs, s.segments)
	return segs, s.final
}

func (s *Schedule) String() string {
	str := "schedule"
	for _, seg := range s.segments {
		str += fmt.Sprintf(" [t<%g: %s]", seg.Until, seg.Forces)
	}
	return str + fmt.Sprintf(" [else: %s]", s.final)
}

// Constant is a ForceProvider returning the same thrusts at all times.
type Constant struct {
	forces Forces
}

// NewConstant returns a constant ForceProvider.
func NewConstant(f1, f2 float64) (*Constant, error) {
	f := Forces{f1, f2}
	if !f.finite() {
		return nil, &ConfigurationError{Field: "constant forces", Value: f, Reason: "must be finite"}
	}
	return &Constant{f}, nil
}

// NewHover returns the constant ForceProvider which balances gravity.
func NewHover(p Parameters) *Constant {
	h := p.HoverThrust()
	return &Constant{Forces{h, h}}
}

// Forces implements the ForceProvider interface.
func (c *Constant) Forces(t float64) Forces {
	return c.forces
}

func (c *Constant) String() string {
	return "constant " + c.forces.String()
}
