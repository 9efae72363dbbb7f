package drone

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/fpelogia/drone-simulation/integrator"
	kitlog "github.com/go-kit/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// quietConfig returns the default configuration without logging.
func quietConfig() Config {
	conf := DefaultConfig()
	conf.Logger = kitlog.NewNopLogger()
	return conf
}

// nanAfter returns NaN thrusts from a given time onward.
type nanAfter float64

func (n nanAfter) Forces(t float64) Forces {
	if t >= float64(n) {
		return Forces{math.NaN(), math.NaN()}
	}
	return DefaultSchedule().Forces(t)
}

func TestMissionDefaultScenario(t *testing.T) {
	m, err := NewMission("default", quietConfig())
	if err != nil {
		t.Fatal(err)
	}
	if m.Status() != Configured {
		t.Fatalf("new mission is %s", m.Status())
	}
	tr, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Status() != Completed || !tr.Complete() {
		t.Fatalf("mission %s, trajectory complete=%v", m.Status(), tr.Complete())
	}
	if tr.Len() != 100 {
		t.Fatalf("expected 100 samples, got %d", tr.Len())
	}
	ts := tr.Times()
	if ts[0] != 0 || ts[99] != 10 {
		t.Fatalf("time grid spans [%f, %f]", ts[0], ts[99])
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			t.Fatalf("time grid not strictly increasing at %d", i)
		}
		if !scalar.EqualWithinAbs(ts[i]-ts[i-1], 10/99.0, 1e-12) {
			t.Fatalf("time grid not uniform at %d", i)
		}
	}
	for i, s := range tr.States() {
		if !s.IsFinite() {
			t.Fatalf("sample %d is not finite: %s", i, s)
		}
	}
	first, _ := tr.At(0)
	if first.State != (State{}) {
		t.Fatalf("first sample is not the initial state: %s", first.State)
	}
	// (15+15)/2 - 9.81 > 0 so the drone climbs.
	acc := Derivative(0, first.State, m.Config().Params, m.Config().Input)[VY]
	if !scalar.EqualWithinAbs(acc, 5.19, 1e-12) {
		t.Fatalf("initial vertical acceleration %f", acc)
	}
	second, _ := tr.At(1)
	if second.State[Y] <= 0 || second.State[VY] <= 0 {
		t.Fatalf("drone does not climb initially: %s", second.State)
	}
	// Closed form while the first segment applies: y = ½ a t².
	if exp := 0.5 * acc * second.T * second.T; !scalar.EqualWithinAbsOrRel(second.State[Y], exp, 1e-9, 1e-6) {
		t.Fatalf("y(%f)=%f expected %f", second.T, second.State[Y], exp)
	}
	if stats := m.Stats(); stats.Steps == 0 || stats.Steps >= 100 {
		t.Fatalf("unexpected number of internal steps: %+v", stats)
	}
}

func TestMissionHover(t *testing.T) {
	for _, method := range []Method{DormandPrince, RK4} {
		for _, pp := range [][3]float64{{2, 2, 9.81}, {1.3, 0.5, 9.81}, {0.7, 4, 3.71}, {2.5, 1, 1.62}} {
			p, err := NewParameters(pp[0], pp[1], pp[2])
			if err != nil {
				t.Fatal(err)
			}
			conf := quietConfig()
			conf.Params = p
			conf.Input = NewHover(p)
			conf.Method = method
			conf.StepSize = 0.01
			tr, err := Simulate(context.Background(), conf)
			if err != nil {
				t.Fatalf("[%s] %s", method, err)
			}
			for i, s := range tr.States() {
				if !scalar.EqualWithinAbs(s[Y], 0, 1e-9) || s[X] != 0 || s[Theta] != 0 {
					t.Fatalf("[%s %s] drone does not hover at sample %d: %s", method, p, i, s)
				}
			}
		}
	}
}

func TestMissionBallistic(t *testing.T) {
	for _, method := range []Method{DormandPrince, RK4} {
		conf := quietConfig()
		conf.Input, _ = NewConstant(0, 0)
		conf.Initial = State{3, 100, 0.3, 0, 5, 0}
		conf.Method = method
		conf.StepSize = 0.05
		tr, err := Simulate(context.Background(), conf)
		if err != nil {
			t.Fatalf("[%s] %s", method, err)
		}
		g := conf.Params.Gravity
		for _, s := range tr.Samples() {
			exp := 100 + 5*s.T - 0.5*g*s.T*s.T
			if !scalar.EqualWithinAbs(s.State[Y], exp, 1e-8) {
				t.Fatalf("[%s] y(%f)=%f expected %f", method, s.T, s.State[Y], exp)
			}
			if s.State[X] != 3 || s.State[Theta] != 0.3 {
				t.Fatalf("[%s] x or θ changed during a ballistic drop: %s", method, s.State)
			}
		}
	}
}

func TestMissionZeroGravity(t *testing.T) {
	conf := quietConfig()
	conf.Params, _ = NewParameters(1, 1, 0)
	conf.Input, _ = NewConstant(0, 0)
	conf.Initial = State{0, 0, 0, 1, -2, 0.5}
	tr, err := Simulate(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range tr.Samples() {
		exp := State{s.T, -2 * s.T, 0.5 * s.T, 1, -2, 0.5}
		if !floats.EqualApprox(s.State[:], exp[:], 1e-9) {
			t.Fatalf("uniform motion broken at %f: %s", s.T, s.State)
		}
	}
}

func TestMissionUnwrappedPitch(t *testing.T) {
	conf := quietConfig()
	conf.Input, _ = NewConstant(0, 1)
	conf.Params.Gravity = 0
	tr, err := Simulate(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	prev := math.Inf(-1)
	for _, s := range tr.States() {
		if s[Theta] < prev {
			t.Fatalf("pitch decreased from %f to %f", prev, s[Theta])
		}
		prev = s[Theta]
	}
	if prev <= 2*math.Pi {
		t.Fatalf("pitch should exceed a full turn without wrapping, got %f", prev)
	}
}

func TestMethodsAgree(t *testing.T) {
	conf := quietConfig()
	conf.Input, _ = NewConstant(10, 10.5)
	conf.End = 4
	conf.RelTol, conf.AbsTol = 1e-10, 1e-12
	dp, err := Simulate(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	conf.Method = RK4
	rk, err := Simulate(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range dp.States() {
		r, _ := rk.At(i)
		if !floats.EqualApprox(s[:], r.State[:], 1e-6) {
			t.Fatalf("methods disagree at sample %d:\ndopri5 %s\nrk4    %s", i, s, r.State)
		}
	}
}

func TestMissionOneShot(t *testing.T) {
	m, _ := NewMission("oneshot", quietConfig())
	tr1, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun, got %v", err)
	}
	m.Reset()
	if m.Status() != Configured {
		t.Fatalf("reset mission is %s", m.Status())
	}
	tr2, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range tr1.States() {
		if other, _ := tr2.At(i); other.State != s {
			t.Fatalf("runs are not deterministic at sample %d", i)
		}
	}
}

func TestMissionConfigurationErrors(t *testing.T) {
	for name, mod := range map[string]func(*Config){
		"mass":           func(c *Config) { c.Params.Mass = 0 },
		"length":         func(c *Config) { c.Params.Length = -1 },
		"inertia":        func(c *Config) { c.Params.Inertia = 0 },
		"gravity":        func(c *Config) { c.Params.Gravity = -9.81 },
		"nan mass":       func(c *Config) { c.Params.Mass = math.NaN() },
		"input":          func(c *Config) { c.Input = nil },
		"initial":        func(c *Config) { c.Initial[VY] = math.Inf(1) },
		"horizon":        func(c *Config) { c.End = c.Start },
		"nan horizon":    func(c *Config) { c.End = math.NaN() },
		"samples":        func(c *Config) { c.Samples = 1 },
		"method":         func(c *Config) { c.Method = 0 },
		"tolerance":      func(c *Config) { c.RelTol = -1 },
		"step":           func(c *Config) { c.StepSize = math.Inf(1) },
		"negative steps": func(c *Config) { c.MaxSteps = -1 },
	} {
		conf := quietConfig()
		mod(&conf)
		m, err := NewMission(name, conf)
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) || m != nil {
			t.Fatalf("[%s] expected a ConfigurationError, got %v", name, err)
		}
	}
	conf := quietConfig()
	conf.Params.Gravity = 0
	if _, err := NewMission("vacuum", conf); err != nil {
		t.Fatalf("zero gravity rejected: %s", err)
	}
}

func TestMissionNonFinite(t *testing.T) {
	conf := quietConfig()
	conf.Input = nanAfter(3)
	m, _ := NewMission("nan", conf)
	tr, err := m.Run(context.Background())
	var intErr *IntegrationError
	if !errors.As(err, &intErr) || !errors.Is(err, integrator.ErrNonFinite) {
		t.Fatalf("expected a non-finite IntegrationError, got %v", err)
	}
	if m.Status() != Failed || tr.Complete() {
		t.Fatal("failed run reported as complete")
	}
	if tr.Len() == 0 || tr.Len() >= 100 || intErr.Samples != tr.Len() {
		t.Fatalf("unexpected prefix: %d samples, error reports %d", tr.Len(), intErr.Samples)
	}
	if len(tr.Times()) != tr.Len() {
		t.Fatal("times and states lengths differ")
	}
	last, err := tr.At(tr.Len() - 1)
	if err != nil {
		t.Fatal(err)
	}
	if last.T >= 3 || last.T != intErr.Time || !last.State.IsFinite() {
		t.Fatalf("invalid last sample %+v (error at t=%f)", last, intErr.Time)
	}
	if _, err := tr.Frame(0); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("frames of a failed run should not be available: %v", err)
	}
	if _, err := tr.Bounds(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("bounds of a failed run should not be available: %v", err)
	}
}

func TestMissionStepBudget(t *testing.T) {
	conf := quietConfig()
	conf.MaxSteps = 5
	tr, err := Simulate(context.Background(), conf)
	if !errors.Is(err, integrator.ErrStepBudget) {
		t.Fatalf("expected ErrStepBudget, got %v", err)
	}
	if tr == nil || tr.Complete() || tr.Len() >= tr.Requested() {
		t.Fatal("budget failure returned a complete trajectory")
	}
}

func TestMissionCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, method := range []Method{DormandPrince, RK4} {
		conf := quietConfig()
		conf.Method = method
		tr, err := Simulate(ctx, conf)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("[%s] expected context.Canceled, got %v", method, err)
		}
		if tr.Len() != 1 {
			t.Fatalf("[%s] canceled run should only hold the initial state, got %d", method, tr.Len())
		}
	}
}

func TestMissionLogs(t *testing.T) {
	var buf bytes.Buffer
	conf := DefaultConfig()
	conf.Logger = kitlog.NewLogfmtLogger(&buf)
	m, _ := NewMission("logged", conf)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, exp := range []string{"sim=logged", "status=started", "status=finished", "method=dopri5", "subsys=sim"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("log output lacks %q:\n%s", exp, out)
		}
	}
}

func TestMethodFromString(t *testing.T) {
	for in, exp := range map[string]Method{"dopri5": DormandPrince, "RK45": DormandPrince, " rk4 ": RK4} {
		if m, err := MethodFromString(in); err != nil || m != exp {
			t.Fatalf("MethodFromString(%q) = %s, %v", in, m, err)
		}
	}
	if _, err := MethodFromString("euler"); err == nil {
		t.Fatal("unknown method accepted")
	}
}

func TestMissionSilentWithoutLogger(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	conf := DefaultConfig()
	conf.Logger = nil
	_, runErr := Simulate(context.Background(), conf)
	os.Stdout = stdout
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if runErr != nil {
		t.Fatal(runErr)
	}
	if len(out) != 0 {
		t.Fatalf("mission without a logger wrote to stdout:\n%s", out)
	}
}
