package measure

import (
	"sort"

	"goenvelope/domain/curves"
	"goenvelope/internal"
	"goenvelope/stats/rank"
)

// RankHistogram is the run-length encoding of a curve's sorted pointwise
// ranks: distinct rank values ascending with their multiplicities. It is the
// sufficient statistic for the extreme-rank-length comparison, and may be
// truncated to the k smallest tiers to bound memory on large inputs. Tie
// detection uses exact equality on the underlying float representation.
type RankHistogram struct {
	Values []float64 `json:"values"`
	Counts []int     `json:"counts"`
}

// newRankHistogram encodes one curve's pointwise ranks
func newRankHistogram(ranks []float64) RankHistogram {
	sorted := make([]float64, len(ranks))
	copy(sorted, ranks)
	sort.Float64s(sorted)
	var h RankHistogram
	for lo := 0; lo < len(sorted); {
		hi := lo + 1
		for hi < len(sorted) && sorted[hi] == sorted[lo] {
			hi++
		}
		h.Values = append(h.Values, sorted[lo])
		h.Counts = append(h.Counts, hi-lo)
		lo = hi
	}
	return h
}

// Truncate keeps only the k smallest rank tiers. Comparison beyond the kept
// tiers is a documented approximation: curves identical through tier k
// compare as equal.
func (h RankHistogram) Truncate(k int) RankHistogram {
	if len(h.Values) <= k {
		return h
	}
	return RankHistogram{Values: h.Values[:k:k], Counts: h.Counts[:k:k]}
}

// Merge combines two histograms over disjoint argument partitions by summing
// multiplicities of equal rank values.
func (h RankHistogram) Merge(other RankHistogram) RankHistogram {
	var out RankHistogram
	i, j := 0, 0
	for i < len(h.Values) || j < len(other.Values) {
		switch {
		case j >= len(other.Values) || (i < len(h.Values) && h.Values[i] < other.Values[j]):
			out.Values = append(out.Values, h.Values[i])
			out.Counts = append(out.Counts, h.Counts[i])
			i++
		case i >= len(h.Values) || other.Values[j] < h.Values[i]:
			out.Values = append(out.Values, other.Values[j])
			out.Counts = append(out.Counts, other.Counts[j])
			j++
		default:
			out.Values = append(out.Values, h.Values[i])
			out.Counts = append(out.Counts, h.Counts[i]+other.Counts[j])
			i++
			j++
		}
	}
	return out
}

// Compare orders histograms lexicographically on the expanded sorted-rank
// vectors: -1 means h is more extreme than other. Within a tier, a smaller
// rank value is more extreme; at equal values a larger multiplicity is more
// extreme (more copies of the small rank come first in the expansion).
func (h RankHistogram) Compare(other RankHistogram) int {
	n := len(h.Values)
	if len(other.Values) < n {
		n = len(other.Values)
	}
	for t := 0; t < n; t++ {
		if h.Values[t] != other.Values[t] {
			if h.Values[t] < other.Values[t] {
				return -1
			}
			return 1
		}
		if h.Counts[t] != other.Counts[t] {
			if h.Counts[t] > other.Counts[t] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// rankHistograms builds the per-curve sorted-rank histograms for the erl
// measure, truncating when the table is large enough to warrant the
// approximation (or when forced for a partition partial).
func rankHistograms(cs *curves.CurveSet, o Options) ([]RankHistogram, error) {
	truncate := cs.Nr()*cs.Nfunc() > o.LargeCells
	if truncate {
		internal.DefaultLogger.Debug("measure: %dx%d rank table exceeds %d cells, truncating histograms to %d tiers",
			cs.Nr(), cs.Nfunc(), o.LargeCells, o.HistogramK)
	}
	return rankHistogramsTruncated(cs, o, truncate)
}

func rankHistogramsTruncated(cs *curves.CurveSet, o Options, truncate bool) ([]RankHistogram, error) {
	disc, err := rankMatrix(cs, o.Alternative, rank.Discrete)
	if err != nil {
		return nil, err
	}
	nfunc := cs.Nfunc()
	col := make([]float64, cs.Nr())
	hists := make([]RankHistogram, nfunc)
	for j := 0; j < nfunc; j++ {
		for i := range disc {
			col[i] = disc[i][j]
		}
		h := newRankHistogram(col)
		if truncate {
			h = h.Truncate(o.HistogramK)
		}
		hists[j] = h
	}
	return hists, nil
}

// lexicographicMeasure assigns each curve the tie-averaged lexicographic rank
// of its histogram divided by the number of curves. The most extreme curve
// receives 1/Nfunc; a curve tied with every other receives 1 minus half the
// tie mass. Values lie in (0, 1].
func lexicographicMeasure(hists []RankHistogram) []float64 {
	n := len(hists)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return hists[idx[a]].Compare(hists[idx[b]]) < 0
	})
	out := make([]float64, n)
	for lo := 0; lo < n; {
		hi := lo + 1
		for hi < n && hists[idx[hi]].Compare(hists[idx[lo]]) == 0 {
			hi++
		}
		avg := (float64(lo+1) + float64(hi-lo-1)/2.0) / float64(n)
		for k := lo; k < hi; k++ {
			out[idx[k]] = avg
		}
		lo = hi
	}
	return out
}
