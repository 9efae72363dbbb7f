package integrator

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultRelTol is the default relative tolerance of DormandPrince.
	DefaultRelTol = 1e-3
	// DefaultAbsTol is the default absolute tolerance of DormandPrince.
	DefaultAbsTol = 1e-6
	// DefaultMaxSteps bounds the number of internal steps (accepted and rejected) of one Solve.
	DefaultMaxSteps = 100000

	safety    = 0.9
	minFactor = 0.2
	maxFactor = 10
	errExp    = -1 / 5.0
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1 / 5.0, 3 / 10.0, 4 / 5.0, 8 / 9.0, 1, 1}
	dpA = [6][5]float64{
		{},
		{1 / 5.0},
		{3 / 40.0, 9 / 40.0},
		{44 / 45.0, -56 / 15.0, 32 / 9.0},
		{19372 / 6561.0, -25360 / 2187.0, 64448 / 6561.0, -212 / 729.0},
		{9017 / 3168.0, -355 / 33.0, 46732 / 5247.0, 49 / 176.0, -5103 / 18656.0},
	}
	dpB = [7]float64{35 / 384.0, 0, 500 / 1113.0, 125 / 192.0, -2187 / 6784.0, 11 / 84.0, 0}
	// dpE is the difference between the fifth and the embedded fourth order weights.
	dpE = [7]float64{71 / 57600.0, 0, -71 / 16695.0, 71 / 1920.0, -17253 / 339200.0, 22 / 525.0, -1 / 40.0}
	// dpP holds the coefficients of the free fourth order interpolant (Shampine),
	// row j multiplies stage j, column c multiplies x^(c+1).
	dpP = [7][4]float64{
		{1, -8048581381 / 2820520608.0, 8663915743 / 2820520608.0, -12715105075 / 11282082432.0},
		{0, 0, 0, 0},
		{0, 131558114200 / 32700410799.0, -68118460800 / 10900136933.0, 87487479700 / 32700410799.0},
		{0, -1754552775 / 470086768.0, 14199869525 / 1410260304.0, -10690763975 / 1880347072.0},
		{0, 127303824393 / 49829197408.0, -318862633887 / 49829197408.0, 701980252875 / 199316789632.0},
		{0, -282668133 / 205662961.0, 2019193451 / 616988883.0, -1453857185 / 822651844.0},
		{0, 40617522 / 29380423.0, -110615467 / 29380423.0, 69997945 / 29380423.0},
	}
)

// DormandPrince is an adaptive explicit Runge-Kutta 5(4) solver for non-stiff systems.
// Internal steps are chosen from the error estimate only, and the solution at the
// requested output times is obtained through dense output.
type DormandPrince struct {
	RelTol      float64 // Relative tolerance, DefaultRelTol if zero.
	AbsTol      float64 // Absolute tolerance, DefaultAbsTol if zero.
	MaxSteps    int     // Internal step budget, DefaultMaxSteps if zero.
	InitialStep float64 // First step size, selected automatically if zero.
	MaxStep     float64 // Largest step size, unbounded if zero.
}

// NewDormandPrince returns a DormandPrince solver with the provided tolerances.
func NewDormandPrince(relTol, absTol float64) *DormandPrince {
	return &DormandPrince{RelTol: relTol, AbsTol: absTol}
}

func (dp *DormandPrince) settings() (rtol, atol float64, maxSteps int) {
	rtol, atol, maxSteps = dp.RelTol, dp.AbsTol, dp.MaxSteps
	if rtol <= 0 {
		rtol = DefaultRelTol
	}
	if atol <= 0 {
		atol = DefaultAbsTol
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return
}

// Solve implements the Solver interface.
func (dp *DormandPrince) Solve(ctx context.Context, f Integrable, y0, ts []float64) ([][]float64, Stats, error) {
	var stats Stats
	if err := checkGrid(y0, ts); err != nil {
		return nil, stats, err
	}
	if !finite(y0) {
		return nil, stats, fmt.Errorf("%w: initial state %v", ErrNonFinite, y0)
	}
	rtol, atol, maxSteps := dp.settings()
	ev := evaluator{f: f, stats: &stats}
	n := len(y0)

	ys := make([][]float64, 1, len(ts))
	ys[0] = clone(y0)
	t, tEnd := ts[0], ts[len(ts)-1]
	y := clone(y0)
	fy, err := ev.eval(t, y)
	if err != nil {
		return ys, stats, err
	}

	h := dp.InitialStep
	if h <= 0 {
		if h, err = initialStep(&ev, t, y, fy, rtol, atol); err != nil {
			return ys, stats, err
		}
	}
	h = math.Min(h, tEnd-t)
	if dp.MaxStep > 0 {
		h = math.Min(h, dp.MaxStep)
	}

	var k [7][]float64
	yTmp := make([]float64, n)
	next := 1
	rejected := false
	for next < len(ts) {
		// Cancellation is only honored between steps.
		if err := ctx.Err(); err != nil {
			return ys, stats, err
		}
		if stats.Steps+stats.Rejected >= maxSteps {
			return ys, stats, fmt.Errorf("%w: %d steps reached at t=%g", ErrStepBudget, maxSteps, t)
		}
		minStep := 10 * (math.Nextafter(math.Abs(t), math.Inf(1)) - math.Abs(t))
		if h < minStep {
			return ys, stats, fmt.Errorf("%w: h=%g at t=%g", ErrStepUnderflow, h, t)
		}
		tNew := t + h
		if tNew >= tEnd || tEnd-tNew < minStep {
			tNew = tEnd
			h = tEnd - t
		}

		k[0] = fy
		for s := 1; s < 6; s++ {
			copy(yTmp, y)
			for j := 0; j < s; j++ {
				if a := dpA[s][j]; a != 0 {
					floats.AddScaled(yTmp, h*a, k[j])
				}
			}
			if k[s], err = ev.eval(t+dpC[s]*h, yTmp); err != nil {
				return ys, stats, err
			}
		}
		yNew := clone(y)
		for j := 0; j < 6; j++ {
			if b := dpB[j]; b != 0 {
				floats.AddScaled(yNew, h*b, k[j])
			}
		}
		if !finite(yNew) {
			return ys, stats, fmt.Errorf("%w: state overflow at t=%g", ErrNonFinite, tNew)
		}
		if k[6], err = ev.eval(tNew, yNew); err != nil {
			return ys, stats, err
		}

		errNorm := 0.0
		for i := 0; i < n; i++ {
			e := 0.0
			for j := range dpE {
				e += dpE[j] * k[j][i]
			}
			sc := atol + rtol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
			e *= h / sc
			errNorm += e * e
		}
		errNorm = math.Sqrt(errNorm / float64(n))

		if errNorm >= 1 {
			stats.Rejected++
			h *= math.Max(minFactor, safety*math.Pow(errNorm, errExp))
			rejected = true
			continue
		}

		stats.Steps++
		ys, next = denseOutput(ys, ts, next, t, h, tNew, y, yNew, &k)
		factor := float64(maxFactor)
		if errNorm > 0 {
			factor = math.Min(maxFactor, safety*math.Pow(errNorm, errExp))
		}
		if rejected {
			factor = math.Min(1, factor)
		}
		rejected = false
		t, y, fy = tNew, yNew, k[6]
		h *= factor
		if dp.MaxStep > 0 {
			h = math.Min(h, dp.MaxStep)
		}
	}
	return ys, stats, nil
}

// denseOutput appends to ys the solution at every ts[next:] within (t, tNew] and
// returns the index of the first output point which is still ahead.
func denseOutput(ys [][]float64, ts []float64, next int, t, h, tNew float64, y, yNew []float64, k *[7][]float64) ([][]float64, int) {
	var q [4][]float64
	for next < len(ts) && ts[next] <= tNew {
		if ts[next] == tNew {
			ys = append(ys, clone(yNew))
			next++
			continue
		}
		if q[0] == nil {
			for c := range q {
				q[c] = make([]float64, len(y))
				for j := range k {
					if p := dpP[j][c]; p != 0 {
						floats.AddScaled(q[c], p, k[j])
					}
				}
			}
		}
		x := (ts[next] - t) / h
		out := clone(y)
		xp := x
		for c := range q {
			floats.AddScaled(out, h*xp, q[c])
			xp *= x
		}
		ys = append(ys, out)
		next++
	}
	return ys, next
}

// initialStep selects the first step size from the local behavior of f at (t, y),
// following Hairer, Norsett & Wanner (II.4).
func initialStep(ev *evaluator, t float64, y, fy []float64, rtol, atol float64) (float64, error) {
	n := len(y)
	scale := make([]float64, n)
	for i, v := range y {
		scale[i] = atol + math.Abs(v)*rtol
	}
	d0 := rmsScaled(y, scale)
	d1 := rmsScaled(fy, scale)
	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	y1 := make([]float64, n)
	floats.AddScaledTo(y1, y, h0, fy)
	f1, err := ev.eval(t+h0, y1)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, n)
	floats.SubTo(diff, f1, fy)
	d2 := rmsScaled(diff, scale) / h0

	var h1 float64
	if dMax := math.Max(d1, d2); dMax <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/dMax, 1/5.0)
	}
	return math.Min(100*h0, h1), nil
}

// rmsScaled returns the root mean square of v/scale.
func rmsScaled(v, scale []float64) float64 {
	w := make([]float64, len(v))
	floats.DivTo(w, v, scale)
	return floats.Norm(w, 2) / math.Sqrt(float64(len(v)))
}
