// Package measure reduces pointwise curve ranks (or scaled residuals) to one
// extremity score per curve. The ordering measures (rank, erl, cont, area)
// follow the convention that smaller scores are more extreme; the deviation
// measures (max, int, int2) follow the opposite convention.
package measure

import (
	"fmt"
	"math"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/stats/rank"
)

// Kind identifies the extremity measure
type Kind string

const (
	MeasureRank Kind = "rank" // extreme rank: min pointwise rank
	MeasureERL  Kind = "erl"  // extreme rank length: lexicographic sorted-rank comparison
	MeasureCont Kind = "cont" // min continuous pointwise rank
	MeasureArea Kind = "area" // area refinement of erl and cont
	MeasureMax  Kind = "max"  // max scaled residual (deviation)
	MeasureInt  Kind = "int"  // integrated scaled residual (deviation)
	MeasureInt2 Kind = "int2" // integrated squared scaled residual (deviation)
)

// Validate checks that the kind is recognized
func (k Kind) Validate() error {
	if _, ok := kindTable[k]; !ok {
		return fmt.Errorf("%w: %q", core.ErrInvalidMeasure, string(k))
	}
	return nil
}

// Deviation reports whether larger scores mean more extreme for this kind
func (k Kind) Deviation() bool {
	spec, ok := kindTable[k]
	return ok && spec.deviation
}

// Scaling selects the per-position scale applied to residual curves before a
// deviation measure is taken
type Scaling string

const (
	ScalingNone       Scaling = "none" // raw residuals
	ScalingQuantile   Scaling = "q"    // symmetric quantile width
	ScalingQuantDir   Scaling = "qdir" // asymmetric upper/lower quantile offsets
	ScalingStudentise Scaling = "st"   // pointwise simulated standard deviation
)

// Validate checks that the scaling is recognized
func (s Scaling) Validate() error {
	switch s {
	case ScalingNone, ScalingQuantile, ScalingQuantDir, ScalingStudentise:
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidScaling, string(s))
	}
}

// Options is the explicit configuration record for measure computation.
// There are no module-level defaults; construct with DefaultOptions and
// override named fields.
type Options struct {
	Measure     Kind           `json:"measure"`
	Alternative rank.Direction `json:"alternative"`
	Scaling     Scaling        `json:"scaling"`          // deviation measures only
	Probs       [2]float64     `json:"probs"`            // lower/upper probabilities for quantile scalings
	HistogramK  int            `json:"histogram_k"`      // truncation tiers for the erl rank histogram
	LargeCells  int            `json:"large_cell_count"` // cell-count threshold above which erl truncates
}

// DefaultOptions returns the stated defaults for the given measure:
// two-sided ranking, no residual scaling, 2.5%/97.5% quantiles, histogram
// truncation k=6 engaged above four million table cells.
func DefaultOptions(measure Kind) Options {
	return Options{
		Measure:     measure,
		Alternative: rank.DirectionTwoSided,
		Scaling:     ScalingNone,
		Probs:       [2]float64{0.025, 0.975},
		HistogramK:  6,
		LargeCells:  1 << 22,
	}
}

// Validate checks the full option record before any computation
func (o Options) Validate() error {
	if err := o.Measure.Validate(); err != nil {
		return err
	}
	if err := o.Alternative.Validate(); err != nil {
		return err
	}
	if err := o.Scaling.Validate(); err != nil {
		return err
	}
	if o.HistogramK < 1 {
		return core.NewOptionError("histogram_k", o.HistogramK)
	}
	if !(o.Probs[0] >= 0 && o.Probs[0] < o.Probs[1] && o.Probs[1] <= 1) {
		return core.NewOptionError("probs", o.Probs)
	}
	return nil
}

// kindSpec maps a measure variant to its computation, partial and combine
// functions. The table is consulted once per call, never per element.
type kindSpec struct {
	deviation bool
	compute   func(cs *curves.CurveSet, o Options) ([]float64, error)
	partial   func(cs *curves.CurveSet, o Options) (*Partial, error)
	combine   func(ps []*Partial) ([]float64, error)
}

var kindTable = map[Kind]kindSpec{
	MeasureRank: {compute: computeRank, partial: partialRank, combine: combineMin},
	MeasureERL:  {compute: computeERL, partial: partialERL, combine: combineERL},
	MeasureCont: {compute: computeCont, partial: partialCont, combine: combineCont},
	MeasureArea: {compute: computeArea, partial: partialArea, combine: combineArea},
	MeasureMax:  {deviation: true, compute: computeDeviation},
	MeasureInt:  {deviation: true, compute: computeDeviation},
	MeasureInt2: {deviation: true, compute: computeDeviation},
}

// Compute reduces the curve set to one extremity score per curve, observed
// curve first. Ordering measures produce scores where smaller is more
// extreme; deviation measures the opposite.
func Compute(cs *curves.CurveSet, o Options) ([]float64, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return kindTable[o.Measure].compute(cs, o)
}

// rankMatrix computes the pointwise rank matrix, indexed [position][curve],
// using the given rank function.
func rankMatrix(cs *curves.CurveSet, dir rank.Direction,
	rankFn func([]float64, rank.Direction) ([]float64, error)) ([][]float64, error) {

	nr := cs.Nr()
	m := make([][]float64, nr)
	for i := 0; i < nr; i++ {
		row, err := rankFn(cs.Row(i), dir)
		if err != nil {
			return nil, err
		}
		m[i] = row
	}
	return m, nil
}

// contNormalizer is the normalizing constant for the cont and area measures
func contNormalizer(nfunc int, dir rank.Direction) float64 {
	if dir.OneSided() {
		return float64(nfunc - 1)
	}
	return math.Ceil(float64(nfunc) / 2)
}

func computeRank(cs *curves.CurveSet, o Options) ([]float64, error) {
	disc, err := rankMatrix(cs, o.Alternative, rank.Discrete)
	if err != nil {
		return nil, err
	}
	return columnMins(disc, cs.Nfunc()), nil
}

func computeCont(cs *curves.CurveSet, o Options) ([]float64, error) {
	cont, err := rankMatrix(cs, o.Alternative, rank.Continuous)
	if err != nil {
		return nil, err
	}
	mins := columnMins(cont, cs.Nfunc())
	norm := contNormalizer(cs.Nfunc(), o.Alternative)
	for j := range mins {
		mins[j] /= norm
	}
	return mins, nil
}

func computeERL(cs *curves.CurveSet, o Options) ([]float64, error) {
	hists, err := rankHistograms(cs, o)
	if err != nil {
		return nil, err
	}
	return lexicographicMeasure(hists), nil
}

func computeArea(cs *curves.CurveSet, o Options) ([]float64, error) {
	rstar, area, err := areaParts(cs, o)
	if err != nil {
		return nil, err
	}
	nfunc := cs.Nfunc()
	norm := contNormalizer(nfunc, o.Alternative)
	out := make([]float64, nfunc)
	for j := 0; j < nfunc; j++ {
		out[j] = (rstar[j] - area[j]/float64(cs.Nr())) / norm
	}
	return out, nil
}

// areaParts computes the per-curve critical rank (ceiling of the minimum
// pointwise rank) and the accumulated area between that rank and the
// continuous rank, over positions whose discrete rank does not exceed it.
func areaParts(cs *curves.CurveSet, o Options) (rstar, area []float64, err error) {
	disc, err := rankMatrix(cs, o.Alternative, rank.Discrete)
	if err != nil {
		return nil, nil, err
	}
	cont, err := rankMatrix(cs, o.Alternative, rank.Continuous)
	if err != nil {
		return nil, nil, err
	}
	nfunc := cs.Nfunc()
	rstar = make([]float64, nfunc)
	area = make([]float64, nfunc)
	for j := 0; j < nfunc; j++ {
		min := math.Inf(1)
		for i := range cont {
			if cont[i][j] < min {
				min = cont[i][j]
			}
			if disc[i][j] < min {
				min = disc[i][j]
			}
		}
		rstar[j] = math.Ceil(min)
		for i := range cont {
			if disc[i][j] <= rstar[j] {
				area[j] += rstar[j] - cont[i][j]
			}
		}
	}
	return rstar, area, nil
}

// columnMins reduces a [position][curve] matrix to per-curve minima
func columnMins(m [][]float64, ncols int) []float64 {
	mins := make([]float64, ncols)
	for j := range mins {
		mins[j] = math.Inf(1)
	}
	for _, row := range m {
		for j, v := range row {
			if v < mins[j] {
				mins[j] = v
			}
		}
	}
	return mins
}
