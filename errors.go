package drone

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRun is returned when a Mission which already ran is run again without Reset.
	ErrAlreadyRun = errors.New("drone: mission already ran")
	// ErrIncomplete is returned when sampling a trajectory of a failed run.
	ErrIncomplete = errors.New("drone: trajectory is incomplete")
)

// ConfigurationError is returned when a mission is configured with invalid values.
// It is always returned before any integration starts.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("drone: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// IntegrationError is returned when the integration halts before the end of the horizon.
// The trajectory returned alongside holds the Samples first points.
type IntegrationError struct {
	Time    float64 // time of the last valid sample
	Samples int     // number of valid samples
	Err     error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("drone: integration failed after %d samples (t=%gs): %s", e.Samples, e.Time, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// SamplingError is returned when a frame or the bounds are queried out of contract.
type SamplingError struct {
	Index  int
	Len    int
	Reason string
	Err    error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("drone: cannot sample frame %d of %d: %s", e.Index, e.Len, e.Reason)
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}
