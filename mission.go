package drone

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fpelogia/drone-simulation/integrator"
	kitlog "github.com/go-kit/log"
)

const (
	// DefaultStart is the default start of the horizon in seconds.
	DefaultStart = 0.0
	// DefaultEnd is the default end of the horizon in seconds.
	DefaultEnd = 10.0
	// DefaultSamples is the default number of output samples.
	DefaultSamples = 100
	// DefaultStepSize is the default step size of the RK4 method in seconds.
	DefaultStepSize = 1e-3
)

// Status is the lifecycle status of a Mission.
type Status uint8

const (
	// Configured missions are ready to run.
	Configured Status = iota
	// Running missions are being integrated.
	Running
	// Completed missions reached the end of the horizon.
	Completed
	// Failed missions stopped before the end of the horizon.
	Failed
)

func (s Status) String() string {
	switch s {
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Method defines an integration method.
type Method uint8

const (
	// DormandPrince is the adaptive Runge-Kutta 5(4) method with dense output.
	DormandPrince Method = iota + 1
	// RK4 is the fixed step Runge-Kutta method with Hermite interpolation.
	RK4
)

func (m Method) String() string {
	switch m {
	case DormandPrince:
		return "dopri5"
	case RK4:
		return "rk4"
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// MethodFromString returns the Method named s.
func MethodFromString(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dopri5", "dopri", "rk45", "dormand-prince":
		return DormandPrince, nil
	case "rk4":
		return RK4, nil
	}
	return 0, &ConfigurationError{Field: "method", Value: s, Reason: "unknown integration method"}
}

// Config defines a simulation request.
type Config struct {
	Params     Parameters
	Input      ForceProvider
	Initial    State
	Start, End float64 // horizon in seconds
	Samples    int     // number of evenly spaced output samples, both ends included
	Method     Method
	RelTol     float64 // DormandPrince only, integrator default if zero
	AbsTol     float64 // DormandPrince only, integrator default if zero
	MaxSteps   int     // internal step budget, integrator default if zero
	StepSize   float64 // RK4 only, DefaultStepSize if zero

	// Logger receives the run logs, which are discarded if it is nil.
	Logger kitlog.Logger
}

// DefaultConfig returns the example simulation: a 2 kg, 2 m drone starting at rest
// at the origin and flying the default schedule for ten seconds.
func DefaultConfig() Config {
	p, _ := NewParameters(2, 2, 9.81)
	return Config{
		Params:  p,
		Input:   DefaultSchedule(),
		Start:   DefaultStart,
		End:     DefaultEnd,
		Samples: DefaultSamples,
		Method:  DormandPrince,
		RelTol:  integrator.DefaultRelTol,
		AbsTol:  integrator.DefaultAbsTol,
	}
}

// Validate returns a ConfigurationError if the configuration cannot be run.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Input == nil {
		return &ConfigurationError{Field: "input", Value: nil, Reason: "a force provider is required"}
	}
	if !c.Initial.IsFinite() {
		return &ConfigurationError{Field: "initial state", Value: c.Initial, Reason: "must be finite"}
	}
	if !finite([]float64{c.Start, c.End}) || c.End <= c.Start {
		return &ConfigurationError{Field: "horizon", Value: [2]float64{c.Start, c.End}, Reason: "must be finite with end after start"}
	}
	if c.Samples < 2 {
		return &ConfigurationError{Field: "samples", Value: c.Samples, Reason: "at least two samples are required"}
	}
	switch c.Method {
	case DormandPrince, RK4:
	default:
		return &ConfigurationError{Field: "method", Value: c.Method, Reason: "unknown integration method"}
	}
	for _, tol := range []struct {
		field string
		value float64
	}{{"relative tolerance", c.RelTol}, {"absolute tolerance", c.AbsTol}, {"step size", c.StepSize}} {
		if math.IsNaN(tol.value) || math.IsInf(tol.value, 0) || tol.value < 0 {
			return &ConfigurationError{Field: tol.field, Value: tol.value, Reason: "must be finite and not negative"}
		}
	}
	if c.MaxSteps < 0 {
		return &ConfigurationError{Field: "max steps", Value: c.MaxSteps, Reason: "must not be negative"}
	}
	return nil
}

// solver returns the integrator for this configuration.
func (c Config) solver() integrator.Solver {
	if c.Method == RK4 {
		step := c.StepSize
		if step == 0 {
			step = DefaultStepSize
		}
		return &integrator.RK4{StepSize: step, MaxSteps: c.MaxSteps}
	}
	return &integrator.DormandPrince{RelTol: c.RelTol, AbsTol: c.AbsTol, MaxSteps: c.MaxSteps}
}

/* Handles the propagation of the drone. */

// Mission integrates one simulation request. A Mission runs once; call Reset to run it again.
type Mission struct {
	Name   string
	conf   Config
	grid   []float64
	status Status
	stats  integrator.Stats
	logger kitlog.Logger
}

// NewMission returns a validated Mission in the Configured status.
func NewMission(name string, conf Config) (*Mission, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	grid, err := integrator.Grid(conf.Start, conf.End, conf.Samples)
	if err != nil {
		return nil, &ConfigurationError{Field: "horizon", Value: [2]float64{conf.Start, conf.End}, Reason: err.Error()}
	}
	logger := conf.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "sim", name)
	return &Mission{Name: name, conf: conf, grid: grid, status: Configured, logger: logger}, nil
}

// Simulate runs a new Mission for the provided configuration.
func Simulate(ctx context.Context, conf Config) (*Trajectory, error) {
	m, err := NewMission("drone", conf)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// Status returns the lifecycle status of the mission.
func (m *Mission) Status() Status {
	return m.status
}

// Stats returns the integrator bookkeeping of the last run.
func (m *Mission) Stats() integrator.Stats {
	return m.stats
}

// Config returns the configuration of the mission.
func (m *Mission) Config() Config {
	return m.conf
}

// Reset allows a finished mission to run again.
func (m *Mission) Reset() {
	if m.status == Running {
		return
	}
	m.status = Configured
	m.stats = integrator.Stats{}
}

// Run integrates the mission over its horizon. It blocks until the integration
// completes, fails or ctx is canceled; cancellation is checked between internal steps.
// On failure, the returned trajectory holds the samples which were computed and
// the error is an *IntegrationError.
func (m *Mission) Run(ctx context.Context) (*Trajectory, error) {
	if m.status != Configured {
		return nil, fmt.Errorf("%w (status %s)", ErrAlreadyRun, m.status)
	}
	m.status = Running
	m.logger.Log("level", "info", "subsys", "sim", "status", "started", "method", m.conf.Method, "horizon", fmt.Sprintf("[%g, %g]s", m.conf.Start, m.conf.End), "samples", m.conf.Samples, "params", m.conf.Params, "input", m.conf.Input)

	wall := time.Now()
	dyn := Dynamics{Params: m.conf.Params, Input: m.conf.Input}
	ys, stats, err := m.conf.solver().Solve(ctx, dyn, m.conf.Initial[:], m.grid)
	m.stats = stats

	states := make([]State, len(ys))
	for i, y := range ys {
		states[i] = stateFromSlice(y)
	}
	traj := newTrajectory(m.grid[:len(states)], states, m.conf.Params.Length, m.conf.End-m.conf.Start, m.conf.Samples, err == nil)

	if err != nil {
		m.status = Failed
		ierr := &IntegrationError{Time: m.conf.Start, Samples: len(states), Err: err}
		if len(states) > 0 {
			ierr.Time = m.grid[len(states)-1]
		}
		m.logger.Log("level", "critical", "subsys", "integrator", "status", "failed", "err", err, "t", ierr.Time, "samples", ierr.Samples, "steps", stats.Steps, "rejected", stats.Rejected)
		return traj, ierr
	}
	m.status = Completed
	m.logger.Log("level", "notice", "subsys", "sim", "status", "finished", "steps", stats.Steps, "rejected", stats.Rejected, "evaluations", stats.Evaluations, "duration", time.Since(wall), "final", states[len(states)-1])
	return traj, nil
}
