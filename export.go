package drone

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the header row of WriteCSV.
var CSVHeader = []string{"t", "x", "y", "theta", "vx", "vy", "omega"}

// WriteCSV writes all the samples of tr, complete or not, as CSV.
func WriteCSV(w io.Writer, tr *Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	record := make([]string, len(CSVHeader))
	for i, s := range tr.states {
		record[0] = strconv.FormatFloat(tr.times[i], 'g', -1, 64)
		for j, v := range s {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Animation is the JSON document written by WriteFrames.
type Animation struct {
	Name       string        `json:"name,omitempty"`
	Length     float64       `json:"length"`
	BodyHeight float64       `json:"bodyHeight"`
	IntervalMs float64       `json:"intervalMs"`
	Bounds     Bounds        `json:"bounds"`
	Frames     []FrameRecord `json:"frames"`
}

// FrameRecord is one frame of an Animation. The path of a frame is made of the
// positions of all the previous records.
type FrameRecord struct {
	Index int      `json:"index"`
	Time  float64  `json:"t"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Theta float64  `json:"theta"`
	Body  [4]Point `json:"body"`
}

// NewAnimation returns the animation of a complete trajectory.
func NewAnimation(name string, tr *Trajectory) (*Animation, error) {
	bounds, err := tr.Bounds()
	if err != nil {
		return nil, err
	}
	frames, err := tr.Frames()
	if err != nil {
		return nil, err
	}
	a := &Animation{
		Name:       name,
		Length:     tr.Length(),
		BodyHeight: BodyHeight,
		IntervalMs: float64(tr.FrameInterval().Microseconds()) / 1e3,
		Bounds:     bounds,
		Frames:     make([]FrameRecord, 0, frames.Len()),
	}
	for f, ok := frames.Next(); ok; f, ok = frames.Next() {
		a.Frames = append(a.Frames, FrameRecord{Index: f.Index, Time: f.Time, X: f.X, Y: f.Y, Theta: f.Theta, Body: f.Body()})
	}
	return a, nil
}

// WriteFrames writes the animation of a complete trajectory as JSON.
func WriteFrames(w io.Writer, name string, tr *Trajectory) error {
	a, err := NewAnimation(name, tr)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("drone: could not encode animation: %w", err)
	}
	return nil
}
