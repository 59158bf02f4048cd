package measure

import (
	"fmt"
	"math"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/stats/rank"
)

// Partial is a partition-local sufficient statistic for one of the ordering
// measures, computed on a contiguous block of argument positions. Partials
// computed under different options, or from different simulation draws, must
// not be combined; Combine rejects option mismatches, but identical draws are
// the caller's responsibility.
type Partial struct {
	Measure     Kind           `json:"measure"`
	Alternative rank.Direction `json:"alternative"`
	Nfunc       int            `json:"nfunc"`
	Nr          int            `json:"nr"`
	HistogramK  int            `json:"histogram_k"`

	Extremity  []float64       `json:"extremity,omitempty"`  // rank, cont: local minima (cont unnormalized)
	Histograms []RankHistogram `json:"histograms,omitempty"` // erl: truncated rank histograms
	RankStar   []float64       `json:"rank_star,omitempty"`  // area: local critical ranks
	Area       []float64       `json:"area,omitempty"`       // area: raw local area sums
}

// ComputePartial evaluates the partition-local sufficient statistic for the
// configured ordering measure. Deviation measures have no partial form.
func ComputePartial(cs *curves.CurveSet, o Options) (*Partial, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	spec := kindTable[o.Measure]
	if spec.partial == nil {
		return nil, fmt.Errorf("%w: %s has no partition form", core.ErrInvalidMeasure, o.Measure)
	}
	return spec.partial(cs, o)
}

// Combine merges partition-local partials into the global extremity vector,
// exactly reproducing the whole-domain measure. The merge is associative and
// commutative across the partial list. Combining partials that disagree on
// measure, direction, function count or truncation is an error.
func Combine(partials []*Partial) ([]float64, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("%w: no partials to combine", core.ErrPartialMismatch)
	}
	first := partials[0]
	for _, p := range partials[1:] {
		if p.Measure != first.Measure {
			return nil, fmt.Errorf("%w: measures %s and %s", core.ErrPartialMismatch, first.Measure, p.Measure)
		}
		if p.Alternative != first.Alternative {
			return nil, fmt.Errorf("%w: alternatives %s and %s", core.ErrPartialMismatch, first.Alternative, p.Alternative)
		}
		if p.Nfunc != first.Nfunc {
			return nil, fmt.Errorf("%w: function counts %d and %d", core.ErrPartialMismatch, first.Nfunc, p.Nfunc)
		}
		if p.HistogramK != first.HistogramK {
			return nil, fmt.Errorf("%w: truncation tiers %d and %d", core.ErrPartialMismatch, first.HistogramK, p.HistogramK)
		}
	}
	return kindTable[first.Measure].combine(partials)
}

func newPartial(cs *curves.CurveSet, o Options) *Partial {
	return &Partial{
		Measure:     o.Measure,
		Alternative: o.Alternative,
		Nfunc:       cs.Nfunc(),
		Nr:          cs.Nr(),
		HistogramK:  o.HistogramK,
	}
}

func partialRank(cs *curves.CurveSet, o Options) (*Partial, error) {
	ext, err := computeRank(cs, o)
	if err != nil {
		return nil, err
	}
	p := newPartial(cs, o)
	p.Extremity = ext
	return p, nil
}

func partialCont(cs *curves.CurveSet, o Options) (*Partial, error) {
	// Unnormalized local minima; the normalizer depends only on Nfunc and the
	// direction, so it is applied once at combine time.
	cont, err := rankMatrix(cs, o.Alternative, rank.Continuous)
	if err != nil {
		return nil, err
	}
	p := newPartial(cs, o)
	p.Extremity = columnMins(cont, cs.Nfunc())
	return p, nil
}

func partialERL(cs *curves.CurveSet, o Options) (*Partial, error) {
	hists, err := rankHistogramsTruncated(cs, o, true)
	if err != nil {
		return nil, err
	}
	p := newPartial(cs, o)
	p.Histograms = hists
	return p, nil
}

func partialArea(cs *curves.CurveSet, o Options) (*Partial, error) {
	rstar, area, err := areaParts(cs, o)
	if err != nil {
		return nil, err
	}
	p := newPartial(cs, o)
	p.RankStar = rstar
	p.Area = area
	return p, nil
}

// combineMin merges rank partials: the elementwise minimum commutes exactly
// across partitions.
func combineMin(partials []*Partial) ([]float64, error) {
	out, err := elementwiseMin(partials)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// combineCont merges cont partials and applies the normalizer
func combineCont(partials []*Partial) ([]float64, error) {
	out, err := elementwiseMin(partials)
	if err != nil {
		return nil, err
	}
	norm := contNormalizer(partials[0].Nfunc, partials[0].Alternative)
	for j := range out {
		out[j] /= norm
	}
	return out, nil
}

func elementwiseMin(partials []*Partial) ([]float64, error) {
	nfunc := partials[0].Nfunc
	out := make([]float64, nfunc)
	for j := range out {
		out[j] = math.Inf(1)
	}
	for _, p := range partials {
		if len(p.Extremity) != nfunc {
			return nil, fmt.Errorf("%w: extremity vector length %d, want %d", core.ErrPartialMismatch, len(p.Extremity), nfunc)
		}
		for j, v := range p.Extremity {
			if v < out[j] {
				out[j] = v
			}
		}
	}
	return out, nil
}

// combineERL merges each curve's per-partition rank histograms by value,
// keeps the k globally smallest tiers and applies the lexicographic
// tie-averaged ranking to the merged histograms.
func combineERL(partials []*Partial) ([]float64, error) {
	nfunc := partials[0].Nfunc
	k := partials[0].HistogramK
	merged := make([]RankHistogram, nfunc)
	for _, p := range partials {
		if len(p.Histograms) != nfunc {
			return nil, fmt.Errorf("%w: histogram count %d, want %d", core.ErrPartialMismatch, len(p.Histograms), nfunc)
		}
		for j := range merged {
			merged[j] = merged[j].Merge(p.Histograms[j])
		}
	}
	for j := range merged {
		merged[j] = merged[j].Truncate(k)
	}
	return lexicographicMeasure(merged), nil
}

// combineArea merges area partials. The global critical rank is the minimum
// of the local ones; only partitions whose local critical rank attains the
// global minimum contribute area, since their ties at the minimum are ties at
// the true global minimum.
func combineArea(partials []*Partial) ([]float64, error) {
	nfunc := partials[0].Nfunc
	rstar := make([]float64, nfunc)
	for j := range rstar {
		rstar[j] = math.Inf(1)
	}
	nrTotal := 0
	for _, p := range partials {
		if len(p.RankStar) != nfunc || len(p.Area) != nfunc {
			return nil, fmt.Errorf("%w: area partial of %d curves, want %d", core.ErrPartialMismatch, len(p.RankStar), nfunc)
		}
		nrTotal += p.Nr
		for j, v := range p.RankStar {
			if v < rstar[j] {
				rstar[j] = v
			}
		}
	}
	norm := contNormalizer(nfunc, partials[0].Alternative)
	out := make([]float64, nfunc)
	for j := 0; j < nfunc; j++ {
		area := 0.0
		for _, p := range partials {
			if p.RankStar[j] == rstar[j] {
				area += p.Area[j]
			}
		}
		out[j] = (rstar[j] - area/float64(nrTotal)) / norm
	}
	return out, nil
}
