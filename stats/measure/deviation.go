package measure

import (
	"math"
	"sort"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/stats/rank"

	"gonum.org/v1/gonum/stat"
)

// PointwiseStdDev returns the sample standard deviation of the simulated
// curves at each argument position.
func PointwiseStdDev(cs *curves.CurveSet) []float64 {
	out := make([]float64, cs.Nr())
	for i := range out {
		out[i] = stat.StdDev(cs.Sim[i], nil)
	}
	return out
}

// PointwiseQuantiles returns the lower and upper empirical quantiles of the
// simulated curves at each argument position.
func PointwiseQuantiles(cs *curves.CurveSet, probs [2]float64) (lo, hi []float64) {
	nr := cs.Nr()
	lo = make([]float64, nr)
	hi = make([]float64, nr)
	for i := 0; i < nr; i++ {
		vals := cs.SimValues(i)
		sort.Float64s(vals)
		lo[i] = stat.Quantile(probs[0], stat.Empirical, vals, nil)
		hi[i] = stat.Quantile(probs[1], stat.Empirical, vals, nil)
	}
	return lo, hi
}

// pointwiseScales resolves the scaling option into per-position lower and
// upper scale coefficients. Symmetric scalings return the same slice twice.
func pointwiseScales(cs *curves.CurveSet, o Options, central []float64) (lo, hi []float64) {
	switch o.Scaling {
	case ScalingStudentise:
		sd := PointwiseStdDev(cs)
		return sd, sd
	case ScalingQuantile:
		qlo, qhi := PointwiseQuantiles(cs, o.Probs)
		width := make([]float64, cs.Nr())
		for i := range width {
			width[i] = qhi[i] - qlo[i]
		}
		return width, width
	case ScalingQuantDir:
		qlo, qhi := PointwiseQuantiles(cs, o.Probs)
		lo = make([]float64, cs.Nr())
		hi = make([]float64, cs.Nr())
		for i := range lo {
			lo[i] = math.Abs(central[i] - qlo[i])
			hi[i] = math.Abs(qhi[i] - central[i])
		}
		return lo, hi
	default: // ScalingNone
		ones := make([]float64, cs.Nr())
		for i := range ones {
			ones[i] = 1
		}
		return ones, ones
	}
}

// computeDeviation evaluates the max/int/int2 deviation measures on scaled
// residual curves. Larger values are more extreme. A zero scale against a
// nonzero residual is a degenerate input and fails; a zero scale against a
// zero residual contributes nothing.
func computeDeviation(cs *curves.CurveSet, o Options) ([]float64, error) {
	central := cs.Central()
	scaleLo, scaleHi := pointwiseScales(cs, o, central)

	nfunc := cs.Nfunc()
	out := make([]float64, nfunc)
	for j := 0; j < nfunc; j++ {
		var dev float64
		for i := 0; i < cs.Nr(); i++ {
			v := cs.Obs[i]
			if j > 0 {
				v = cs.Sim[i][j-1]
			}
			res := v - central[i]
			scale := scaleHi[i]
			if res < 0 {
				scale = scaleLo[i]
			}
			c, err := scaledContribution(res, scale, o.Alternative)
			if err != nil {
				return nil, err
			}
			switch o.Measure {
			case MeasureMax:
				if c > dev {
					dev = c
				}
			case MeasureInt:
				dev += c
			case MeasureInt2:
				dev += c * c
			}
		}
		out[j] = dev
	}
	return out, nil
}

// scaledContribution converts a residual into its one- or two-sided scaled
// deviation contribution.
func scaledContribution(res, scale float64, dir rank.Direction) (float64, error) {
	if scale == 0 {
		if res == 0 {
			return 0, nil
		}
		return 0, core.ErrDegenerateScale
	}
	t := res / scale
	switch dir {
	case rank.DirectionGreater:
		return math.Max(t, 0), nil
	case rank.DirectionLess:
		return math.Max(-t, 0), nil
	default:
		return math.Abs(t), nil
	}
}
