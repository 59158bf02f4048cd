// Package envelope constructs global envelope tests: simultaneous confidence
// bands over a whole argument domain together with Monte Carlo p-values.
// Four constructors are provided - rank, studentised, directional-quantile
// and unscaled - all pure functions from a curve set and options to an
// immutable result record.
package envelope

import (
	"fmt"
	"math"
	"sort"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/internal"
	"goenvelope/stats/measure"
	"goenvelope/stats/rank"
)

// Method identifies the envelope construction
type Method string

const (
	MethodRank        Method = "rank"
	MethodStudentised Method = "st"
	MethodQuantile    Method = "qdir"
	MethodUnscaled    Method = "unscaled"
)

// Retention flags for the diagnostic extremity vector
const (
	RetainOn  = "on"
	RetainOff = "off"
)

// Options is the explicit configuration record shared by the constructors.
// Zero values are not meaningful; start from DefaultOptions.
type Options struct {
	Alpha       float64        `json:"alpha"`
	Alternative rank.Direction `json:"alternative"`
	Ties        TiePolicy      `json:"ties"`
	Measure     measure.Kind   `json:"measure"` // rank envelope ordering measure
	Probs       [2]float64     `json:"probs"`   // directional-quantile probabilities
	// RetainExtremity controls whether the per-curve extremity vector is kept
	// on the result for diagnostics. An unrecognized value warns and
	// defaults to off rather than failing.
	RetainExtremity string `json:"retain_extremity,omitempty"`
}

// DefaultOptions returns the stated defaults: alpha 0.05, two-sided,
// midrank ties, erl ordering, 2.5%/97.5% quantiles, no extremity retention.
func DefaultOptions() Options {
	return Options{
		Alpha:       0.05,
		Alternative: rank.DirectionTwoSided,
		Ties:        TiesMidrank,
		Measure:     measure.MeasureERL,
		Probs:       [2]float64{0.025, 0.975},
	}
}

// Validate checks the option record before any computation
func (o Options) Validate() error {
	if o.Alpha < 0 || o.Alpha > 1 || math.IsNaN(o.Alpha) {
		return fmt.Errorf("%w: %g", core.ErrInvalidAlpha, o.Alpha)
	}
	if err := o.Alternative.Validate(); err != nil {
		return err
	}
	if err := o.Ties.Validate(); err != nil {
		return err
	}
	return nil
}

// retainExtremity resolves the retention flag, warning on unknown values.
// This is the single permitted leniency in option handling.
func (o Options) retainExtremity() bool {
	switch o.RetainExtremity {
	case RetainOn:
		return true
	case RetainOff, "":
		return false
	default:
		internal.DefaultLogger.Warn("envelope: unrecognized retain_extremity %q, defaulting to off", o.RetainExtremity)
		return false
	}
}

// Result is an immutable envelope test record. Obs, Central, Lower and Upper
// all have the length of R; the observed curve leaves the band somewhere iff
// the test rejects at the chosen level.
type Result struct {
	ID          core.TestID    `json:"id"`
	Method      Method         `json:"method"`
	Measure     measure.Kind   `json:"measure"`
	Alternative rank.Direction `json:"alternative"`

	R       []float64 `json:"r"`
	Obs     []float64 `json:"obs"`
	Central []float64 `json:"central"`
	Lower   []float64 `json:"lo"`
	Upper   []float64 `json:"hi"`

	PValue    float64     `json:"p_value"`
	PInterval *[2]float64 `json:"p_interval,omitempty"` // rank envelope only
	Critical  float64     `json:"critical"`
	Extremity []float64   `json:"extremity,omitempty"` // diagnostic, on request

	CentralIsTheo bool           `json:"central_is_theo"`
	CreatedAt     core.Timestamp `json:"created_at"`
}

// RankEnvelope performs the global rank envelope test. The ordering measure
// is taken from the options: the classical extreme rank produces an
// order-statistic band, while its erl/cont/area refinements produce the
// min/max hull of the curves whose measure is no more extreme than the
// critical value. The p-interval brackets the liberal and conservative
// p-value estimates.
func RankEnvelope(cs *curves.CurveSet, o Options) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Measure.Deviation() {
		return nil, fmt.Errorf("%w: rank envelope requires an ordering measure, got %s",
			core.ErrInvalidMeasure, o.Measure)
	}
	mo := measure.DefaultOptions(o.Measure)
	mo.Alternative = o.Alternative
	mo.Probs = o.Probs
	ext, err := measure.Compute(cs, mo)
	if err != nil {
		return nil, err
	}

	crit := criticalValue(ext, o.Alpha, true)
	res := newResult(cs, MethodRank, o, ext, crit)
	res.PValue = pValue(ext, true, o.Ties)
	interval := pInterval(ext, true)
	res.PInterval = &interval

	if o.Measure == measure.MeasureRank {
		res.Lower, res.Upper = orderStatisticBand(cs, crit)
	} else {
		res.Lower, res.Upper = hullBand(cs, ext, crit)
	}
	clipOneSided(res, o.Alternative)
	return res, nil
}

// StudentisedEnvelope performs the studentised max-deviation test: residuals
// are divided by the pointwise standard deviation of the simulated curves and
// the band is central +/- critical*sd. Fails with a degenerate-input error if
// any pointwise standard deviation is exactly zero against a nonzero
// residual.
func StudentisedEnvelope(cs *curves.CurveSet, o Options) (*Result, error) {
	return deviationEnvelope(cs, o, MethodStudentised, measure.ScalingStudentise)
}

// QuantileEnvelope performs the directional-quantile max-deviation test:
// positive and negative residuals are scaled by their own quantile-based
// coefficients and the band widens asymmetrically. The same zero-scale error
// policy as the studentised test applies.
func QuantileEnvelope(cs *curves.CurveSet, o Options) (*Result, error) {
	return deviationEnvelope(cs, o, MethodQuantile, measure.ScalingQuantDir)
}

// UnscaledEnvelope performs the classical unscaled max-deviation test; the
// band has constant width everywhere.
func UnscaledEnvelope(cs *curves.CurveSet, o Options) (*Result, error) {
	return deviationEnvelope(cs, o, MethodUnscaled, measure.ScalingNone)
}

func deviationEnvelope(cs *curves.CurveSet, o Options, method Method, scaling measure.Scaling) (*Result, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	mo := measure.DefaultOptions(measure.MeasureMax)
	mo.Alternative = o.Alternative
	mo.Scaling = scaling
	mo.Probs = o.Probs
	ext, err := measure.Compute(cs, mo)
	if err != nil {
		return nil, err
	}

	crit := criticalValue(ext, o.Alpha, false)
	res := newResult(cs, method, o, ext, crit)
	res.Measure = measure.MeasureMax
	res.PValue = pValue(ext, false, o.Ties)

	central := res.Central
	lower := make([]float64, cs.Nr())
	upper := make([]float64, cs.Nr())
	switch scaling {
	case measure.ScalingStudentise:
		sd := measure.PointwiseStdDev(cs)
		for i := range lower {
			lower[i] = central[i] - crit*sd[i]
			upper[i] = central[i] + crit*sd[i]
		}
	case measure.ScalingQuantDir:
		qlo, qhi := measure.PointwiseQuantiles(cs, o.Probs)
		for i := range lower {
			lower[i] = central[i] - crit*math.Abs(central[i]-qlo[i])
			upper[i] = central[i] + crit*math.Abs(qhi[i]-central[i])
		}
	default:
		for i := range lower {
			lower[i] = central[i] - crit
			upper[i] = central[i] + crit
		}
	}
	res.Lower = lower
	res.Upper = upper
	clipOneSided(res, o.Alternative)
	return res, nil
}

// newResult fills the fields common to every constructor
func newResult(cs *curves.CurveSet, method Method, o Options, ext []float64, crit float64) *Result {
	res := &Result{
		ID:            core.NewTestID(),
		Method:        method,
		Measure:       o.Measure,
		Alternative:   o.Alternative,
		R:             append([]float64(nil), cs.R...),
		Obs:           append([]float64(nil), cs.Obs...),
		Central:       cs.Central(),
		Critical:      crit,
		CentralIsTheo: cs.HasTheo(),
		CreatedAt:     core.Now(),
	}
	if o.retainExtremity() {
		res.Extremity = ext
	}
	return res
}

// orderStatisticBand builds the classical rank envelope: at every position
// the band runs from the k-th smallest to the k-th largest curve value, with
// k the integer part of the critical extreme rank.
func orderStatisticBand(cs *curves.CurveSet, crit float64) (lower, upper []float64) {
	k := int(math.Floor(crit))
	if k < 1 {
		k = 1
	}
	nr := cs.Nr()
	lower = make([]float64, nr)
	upper = make([]float64, nr)
	for i := 0; i < nr; i++ {
		vals := cs.Row(i)
		sort.Float64s(vals)
		lower[i] = vals[k-1]
		upper[i] = vals[len(vals)-k]
	}
	return lower, upper
}

// hullBand builds the refined rank envelope: the elementwise min/max hull of
// the curves whose ordering measure is at least the critical value (the
// curves inside the central region).
func hullBand(cs *curves.CurveSet, ext []float64, crit float64) (lower, upper []float64) {
	nr := cs.Nr()
	lower = make([]float64, nr)
	upper = make([]float64, nr)
	for i := range lower {
		lower[i] = math.Inf(1)
		upper[i] = math.Inf(-1)
	}
	for j, e := range ext {
		if e < crit {
			continue
		}
		for i := 0; i < nr; i++ {
			v := cs.Obs[i]
			if j > 0 {
				v = cs.Sim[i][j-1]
			}
			if v < lower[i] {
				lower[i] = v
			}
			if v > upper[i] {
				upper[i] = v
			}
		}
	}
	return lower, upper
}

// clipOneSided widens the untested side to infinity for one-sided
// alternatives.
func clipOneSided(res *Result, dir rank.Direction) {
	switch dir {
	case rank.DirectionLess:
		for i := range res.Upper {
			res.Upper[i] = math.Inf(1)
		}
	case rank.DirectionGreater:
		for i := range res.Lower {
			res.Lower[i] = math.Inf(-1)
		}
	}
}
