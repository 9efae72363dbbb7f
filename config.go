package drone

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fpelogia/drone-simulation/integrator"
	"github.com/spf13/viper"
)

// Scenario is a simulation request read from a TOML file.
type Scenario struct {
	Name   string
	Config Config
	CSV    string // output.csv, empty if not requested
	Frames string // output.frames, empty if not requested
}

type segmentConf struct {
	Until float64 `mapstructure:"until"`
	F1    float64 `mapstructure:"f1"`
	F2    float64 `mapstructure:"f2"`
}

// LoadScenario reads the scenario at path.
func LoadScenario(path string) (Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("drone: %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return scenarioFromViper(v, name)
}

// ReadScenario reads a TOML scenario from r.
func ReadScenario(r io.Reader) (Scenario, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return Scenario{}, fmt.Errorf("drone: could not read scenario: %w", err)
	}
	return scenarioFromViper(v, "drone")
}

// scenarioFromViper reads the scenario keys, falling back to DefaultConfig.
func scenarioFromViper(v *viper.Viper, name string) (Scenario, error) {
	def := DefaultConfig()
	v.SetDefault("name", name)
	v.SetDefault("drone.mass", def.Params.Mass)
	v.SetDefault("drone.length", def.Params.Length)
	v.SetDefault("drone.gravity", def.Params.Gravity)
	v.SetDefault("horizon.start", def.Start)
	v.SetDefault("horizon.end", def.End)
	v.SetDefault("horizon.samples", def.Samples)
	v.SetDefault("solver.method", def.Method.String())
	v.SetDefault("solver.rtol", integrator.DefaultRelTol)
	v.SetDefault("solver.atol", integrator.DefaultAbsTol)
	v.SetDefault("solver.step", DefaultStepSize)
	v.SetDefault("input.type", "scheduled")
	v.SetDefault("input.f1", 15.0)
	v.SetDefault("input.f2", 15.0)

	sc := Scenario{Name: v.GetString("name"), CSV: v.GetString("output.csv"), Frames: v.GetString("output.frames")}
	conf := def

	// Read drone
	mass := v.GetFloat64("drone.mass")
	length := v.GetFloat64("drone.length")
	gravity := v.GetFloat64("drone.gravity")
	var err error
	if v.IsSet("drone.inertia") {
		conf.Params, err = NewParametersWithInertia(mass, length, gravity, v.GetFloat64("drone.inertia"))
	} else {
		conf.Params, err = NewParameters(mass, length, gravity)
	}
	if err != nil {
		return sc, err
	}

	// Read initial state
	for i, key := range []string{"x", "y", "theta", "vx", "vy", "omega"} {
		conf.Initial[i] = v.GetFloat64("initial." + key)
	}

	// Read horizon and solver
	conf.Start = v.GetFloat64("horizon.start")
	conf.End = v.GetFloat64("horizon.end")
	conf.Samples = v.GetInt("horizon.samples")
	if conf.Method, err = MethodFromString(v.GetString("solver.method")); err != nil {
		return sc, err
	}
	conf.RelTol = v.GetFloat64("solver.rtol")
	conf.AbsTol = v.GetFloat64("solver.atol")
	conf.StepSize = v.GetFloat64("solver.step")
	conf.MaxSteps = v.GetInt("solver.max_steps")

	// Read inputs
	if conf.Input, err = inputFromViper(v, conf.Params); err != nil {
		return sc, err
	}
	sc.Config = conf
	return sc, conf.Validate()
}

func inputFromViper(v *viper.Viper, p Parameters) (ForceProvider, error) {
	switch kind := strings.ToLower(v.GetString("input.type")); kind {
	case "constant":
		c, err := NewConstant(v.GetFloat64("input.f1"), v.GetFloat64("input.f2"))
		if err != nil {
			return nil, err
		}
		return c, nil
	case "hover":
		return NewHover(p), nil
	case "scheduled":
		var segs []segmentConf
		if err := v.UnmarshalKey("input.segments", &segs); err != nil {
			return nil, &ConfigurationError{Field: "input.segments", Value: v.Get("input.segments"), Reason: err.Error()}
		}
		if len(segs) == 0 {
			return DefaultSchedule(), nil
		}
		if !v.IsSet("input.final.f1") || !v.IsSet("input.final.f2") {
			return nil, &ConfigurationError{Field: "input.final", Value: nil, Reason: "a custom schedule needs final forces"}
		}
		segments := make([]Segment, len(segs))
		for i, seg := range segs {
			segments[i] = Segment{Until: seg.Until, Forces: Forces{seg.F1, seg.F2}}
		}
		s, err := NewSchedule(segments, Forces{v.GetFloat64("input.final.f1"), v.GetFloat64("input.final.f2")})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &ConfigurationError{Field: "input.type", Value: kind, Reason: "expected scheduled, constant or hover"}
	}
}
