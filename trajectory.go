package drone

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Sample is the state of the drone at a given time.
type Sample struct {
	T     float64
	State State
}

// Point is a planar position in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the rectangle in which a trajectory fits for rendering.
type Bounds struct {
	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.3f, %.3f]x[%.3f, %.3f]", b.XMin, b.XMax, b.YMin, b.YMax)
}

// Trajectory is the time ordered solution of one Mission run. It is never modified
// after its creation.
type Trajectory struct {
	times     []float64
	states    []State
	path      []Point
	length    float64
	span      float64
	requested int
	complete  bool
	bounds    Bounds
}

// newTrajectory copies the provided samples. The bounds are only computed for complete trajectories.
func newTrajectory(times []float64, states []State, length, span float64, requested int, complete bool) *Trajectory {
	tr := &Trajectory{
		times:     make([]float64, len(times)),
		states:    make([]State, len(states)),
		path:      make([]Point, len(states)),
		length:    length,
		span:      span,
		requested: requested,
		complete:  complete && len(states) == requested,
	}
	copy(tr.times, times)
	copy(tr.states, states)
	xs := make([]float64, len(states))
	ys := make([]float64, len(states))
	for i, s := range states {
		tr.path[i] = Point{s[X], s[Y]}
		xs[i], ys[i] = s[X], s[Y]
	}
	if tr.complete && len(states) > 0 {
		tr.bounds = Bounds{
			XMin: floats.Min(xs) - length,
			XMax: floats.Max(xs) + length,
			YMin: 0,
			YMax: floats.Max(ys) + 1,
		}
	}
	return tr
}

// Len returns the number of samples.
func (tr *Trajectory) Len() int {
	return len(tr.states)
}

// Requested returns the number of samples which were requested.
func (tr *Trajectory) Requested() int {
	return tr.requested
}

// Complete returns whether the integration reached the end of the horizon.
func (tr *Trajectory) Complete() bool {
	return tr.complete
}

// At returns the i-th sample. Incomplete trajectories may be inspected.
func (tr *Trajectory) At(i int) (Sample, error) {
	if i < 0 || i >= len(tr.states) {
		return Sample{}, &SamplingError{Index: i, Len: len(tr.states), Reason: "index out of range"}
	}
	return Sample{tr.times[i], tr.states[i]}, nil
}

// Times returns a copy of the sample times.
func (tr *Trajectory) Times() []float64 {
	ts := make([]float64, len(tr.times))
	copy(ts, tr.times)
	return ts
}

// States returns a copy of the sample states.
func (tr *Trajectory) States() []State {
	ss := make([]State, len(tr.states))
	copy(ss, tr.states)
	return ss
}

// Samples returns a copy of all the samples.
func (tr *Trajectory) Samples() []Sample {
	out := make([]Sample, len(tr.states))
	for i := range tr.states {
		out[i] = Sample{tr.times[i], tr.states[i]}
	}
	return out
}

// Length returns the distance between the engines of the simulated drone.
func (tr *Trajectory) Length() float64 {
	return tr.length
}

// FrameInterval returns the playback duration of each frame for a real time animation.
func (tr *Trajectory) FrameInterval() time.Duration {
	if tr.requested == 0 {
		return 0
	}
	return time.Duration(tr.span / float64(tr.requested) * float64(time.Second))
}

// Bounds returns the rendering box [min(x)-L, max(x)+L] x [0, max(y)+1].
func (tr *Trajectory) Bounds() (Bounds, error) {
	if !tr.complete {
		return Bounds{}, &SamplingError{Index: -1, Len: len(tr.states), Reason: "bounds of an incomplete trajectory", Err: ErrIncomplete}
	}
	return tr.bounds, nil
}

// Frame returns the i-th animation frame of a complete trajectory.
func (tr *Trajectory) Frame(i int) (Frame, error) {
	if !tr.complete {
		return Frame{}, &SamplingError{Index: i, Len: len(tr.states), Reason: "trajectory is incomplete", Err: ErrIncomplete}
	}
	if i < 0 || i >= len(tr.states) {
		return Frame{}, &SamplingError{Index: i, Len: len(tr.states), Reason: "index out of range"}
	}
	s := tr.states[i]
	return Frame{
		Index:  i,
		Time:   tr.times[i],
		X:      s[X],
		Y:      s[Y],
		Theta:  s[Theta],
		Length: tr.length,
		Path:   tr.path[: i+1 : i+1],
	}, nil
}

// Frames returns a restartable sequence over all the frames of a complete trajectory.
func (tr *Trajectory) Frames() (*FrameSequence, error) {
	if !tr.complete {
		return nil, &SamplingError{Index: 0, Len: len(tr.states), Reason: "trajectory is incomplete", Err: ErrIncomplete}
	}
	return &FrameSequence{tr: tr}, nil
}
