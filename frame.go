package drone

// BodyHeight is the drawn thickness of the drone body in meters.
const BodyHeight = 0.2

// Frame is one rendering unit of a trajectory: the pose at a sample and the path
// traced up to and including it.
type Frame struct {
	Index  int
	Time   float64
	X, Y   float64
	Theta  float64
	Length float64
	Path   []Point // references the trajectory, must not be modified
}

// Body returns the corners of the drone body, a Length x BodyHeight rectangle
// centered on the position and rotated by the pitch (in radians).
// The corners are ordered counter-clockwise from the rear bottom one.
func (f Frame) Body() [4]Point {
	a, b := f.Length/2, BodyHeight/2
	corners := [4]Point{{-a, -b}, {a, -b}, {a, b}, {-a, b}}
	for i, c := range corners {
		r := rotate(c, f.Theta)
		corners[i] = Point{f.X + r.X, f.Y + r.Y}
	}
	return corners
}

// FrameSequence iterates over the frames of a trajectory. Reset restarts it,
// hence animations can be replayed without integrating again.
type FrameSequence struct {
	tr   *Trajectory
	next int
}

// Next returns the next frame, or false once all the frames were returned.
func (s *FrameSequence) Next() (Frame, bool) {
	if s.next >= s.tr.Len() {
		return Frame{}, false
	}
	f, err := s.tr.Frame(s.next)
	if err != nil {
		return Frame{}, false
	}
	s.next++
	return f, true
}

// Reset restarts the sequence from the first frame.
func (s *FrameSequence) Reset() {
	s.next = 0
}

// Len returns the number of frames of the sequence.
func (s *FrameSequence) Len() int {
	return s.tr.Len()
}
