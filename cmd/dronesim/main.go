package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	drone "github.com/fpelogia/drone-simulation"
	kitlog "github.com/go-kit/log"
)

// This code reads a scenario, propagates the drone and writes the trajectory.

const defaultScenario = "~~unset~~"

var (
	scenario   string
	useDefault bool
	csvPath    string
	framesPath string
	verbose    bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "simulation scenario TOML file")
	flag.BoolVar(&useDefault, "default", false, "run the default scenario")
	flag.StringVar(&csvPath, "csv", "", "trajectory CSV output (overrides output.csv)")
	flag.StringVar(&framesPath, "frames", "", "animation JSON output (overrides output.frames)")
	flag.BoolVar(&verbose, "verbose", false, "print the configuration")
}

func main() {
	flag.Parse()
	var sc drone.Scenario
	switch {
	case useDefault:
		sc = drone.Scenario{Name: "default", Config: drone.DefaultConfig()}
	case scenario == defaultScenario:
		log.Fatal("no scenario provided, use -scenario file.toml or -default")
	default:
		var err error
		if sc, err = drone.LoadScenario(scenario); err != nil {
			log.Fatalf("[conf] %s", err)
		}
	}
	if csvPath != "" {
		sc.CSV = csvPath
	}
	if framesPath != "" {
		sc.Frames = framesPath
	}
	sc.Config.Logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	if verbose {
		log.Printf("[conf] %s: %s, input %v, initial %s", sc.Name, sc.Config.Params, sc.Config.Input, sc.Config.Initial)
		log.Printf("[conf] horizon [%g, %g]s, %d samples, %s", sc.Config.Start, sc.Config.End, sc.Config.Samples, sc.Config.Method)
	}

	if err := run(sc); err != nil {
		log.Fatal(err)
	}
}

// run propagates the scenario and writes its outputs. The signal handler is
// released before returning.
func run(sc drone.Scenario) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	m, err := drone.NewMission(sc.Name, sc.Config)
	if err != nil {
		return fmt.Errorf("[conf] %w", err)
	}
	tr, runErr := m.Run(ctx)
	var intErr *drone.IntegrationError
	if runErr != nil && !errors.As(runErr, &intErr) {
		return runErr
	}

	// The available prefix is written even if the integration failed.
	if sc.CSV != "" {
		if err := writeFile(sc.CSV, func(f *os.File) error { return drone.WriteCSV(f, tr) }); err != nil {
			return fmt.Errorf("[export] %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("simulation failed: %w", runErr)
	}
	if sc.Frames != "" {
		if err := writeFile(sc.Frames, func(f *os.File) error { return drone.WriteFrames(f, sc.Name, tr) }); err != nil {
			return fmt.Errorf("[export] %w", err)
		}
	}
	if bounds, err := tr.Bounds(); err == nil {
		fmt.Printf("%s: %d samples, bounds %s, frame interval %s\n", sc.Name, tr.Len(), bounds, tr.FrameInterval())
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
