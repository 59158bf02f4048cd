// Package rank implements the pointwise rank engine: tie-averaged discrete
// ranks and continuously interpolated ranks of a set of scalar values, under
// one-sided and two-sided extremity conventions. Rank 1 is the most extreme
// value in the tested direction.
package rank

import (
	"fmt"
	"math"
	"sort"

	"goenvelope/domain/core"
)

// Direction selects which tail counts as extreme
type Direction string

const (
	DirectionLess     Direction = "less"      // rank 1 = smallest value
	DirectionGreater  Direction = "greater"   // rank 1 = largest value
	DirectionTwoSided Direction = "two.sided" // rank = min of both one-sided ranks
)

// Validate checks that the direction is one of the recognized conventions
func (d Direction) Validate() error {
	switch d {
	case DirectionLess, DirectionGreater, DirectionTwoSided:
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidAlternative, string(d))
	}
}

// OneSided reports whether the direction tests a single tail
func (d Direction) OneSided() bool { return d != DirectionTwoSided }

// Discrete computes tie-averaged ranks of values with rank 1 most extreme in
// the tested direction. For two.sided the rank is min(lo, n+1-lo) where lo is
// the ascending tie-averaged rank.
func Discrete(values []float64, dir Direction) ([]float64, error) {
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, core.ErrTooFewCurves
	}
	lo := ascendingRanks(values)
	n := float64(len(values))
	out := make([]float64, len(values))
	switch dir {
	case DirectionLess:
		copy(out, lo)
	case DirectionGreater:
		for i, r := range lo {
			out[i] = n + 1 - r
		}
	case DirectionTwoSided:
		for i, r := range lo {
			out[i] = math.Min(r, n+1-r)
		}
	}
	return out, nil
}

// ascendingRanks assigns tie-averaged ascending ranks (smallest value gets
// rank 1). Ties are resolved by grouping runs of equal sorted values and
// assigning every member the run's average position.
func ascendingRanks(values []float64) []float64 {
	n := len(values)
	idx := sortedIndices(values, false)
	ranks := make([]float64, n)
	for lo := 0; lo < n; {
		hi := lo + 1
		for hi < n && values[idx[hi]] == values[idx[lo]] {
			hi++
		}
		avg := float64(lo+1) + float64(hi-lo-1)/2.0
		for k := lo; k < hi; k++ {
			ranks[idx[k]] = avg
		}
		lo = hi
	}
	return ranks
}

// Continuous computes real-valued ranks that refine the discrete ranking by
// linear interpolation between adjacent order statistics; rank 1 stays the
// most extreme. The two-sided rank is the elementwise minimum of the ranks
// computed from either tail.
//
// With y the values in extremity order (most extreme first), the most extreme
// element gets exp(-(y1-y2)/(y2-yn)), interior element k gets
// (k-1) + (y[k-1]-y[k])/(y[k-1]-y[k+1]), and the least extreme element gets
// its integer rank. Runs of exactly equal values share the average of the
// ranks their members would receive individually.
func Continuous(values []float64, dir Direction) ([]float64, error) {
	if err := dir.Validate(); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, core.ErrTooFewCurves
	}
	switch dir {
	case DirectionGreater:
		return continuousOneSided(values, true), nil
	case DirectionLess:
		return continuousOneSided(values, false), nil
	default:
		up := continuousOneSided(values, true)
		down := continuousOneSided(values, false)
		out := make([]float64, len(values))
		for i := range out {
			out[i] = math.Min(up[i], down[i])
		}
		return out, nil
	}
}

// continuousOneSided ranks with the largest value most extreme when
// largestExtreme is set, else the smallest.
func continuousOneSided(values []float64, largestExtreme bool) []float64 {
	n := len(values)
	idx := sortedIndices(values, largestExtreme)
	y := make([]float64, n)
	for k, j := range idx {
		y[k] = values[j]
	}
	raw := continuousSorted(y)

	// Tied runs share the average of their members' individual ranks; this
	// preserves the rank-sum invariant under ties.
	out := make([]float64, n)
	for lo := 0; lo < n; {
		hi := lo + 1
		sum := raw[lo]
		for hi < n && y[hi] == y[lo] {
			sum += raw[hi]
			hi++
		}
		avg := sum / float64(hi-lo)
		for k := lo; k < hi; k++ {
			out[idx[k]] = avg
		}
		lo = hi
	}
	return out
}

// continuousSorted computes the per-position continuous ranks of y, which is
// ordered most extreme first. gap(a,b) is the extremity distance from a to b,
// nonnegative by construction.
func continuousSorted(y []float64) []float64 {
	n := len(y)
	raw := make([]float64, n)
	if y[0] == y[n-1] {
		// Every value equal: a single full tie, resolved by the discrete
		// tie-average.
		for k := range raw {
			raw[k] = (float64(n) + 1) / 2
		}
		return raw
	}
	for k := 0; k < n; k++ {
		switch {
		case k == 0:
			denom := math.Abs(y[1] - y[n-1])
			num := math.Abs(y[0] - y[1])
			if num == 0 {
				raw[k] = 1 // first member of a tie at the extreme end
			} else if denom == 0 {
				// All less extreme values coincide; the limiting value of
				// the interpolation is taken.
				raw[k] = 0
			} else {
				raw[k] = math.Exp(-num / denom)
			}
		case k < n-1:
			num := math.Abs(y[k-1] - y[k])
			denom := math.Abs(y[k-1] - y[k+1])
			if num == 0 {
				raw[k] = float64(k) // k-1 in one-based terms
			} else {
				raw[k] = float64(k) + num/denom
			}
		default:
			if y[n-2] == y[n-1] {
				raw[k] = float64(n - 1)
			} else {
				raw[k] = float64(n)
			}
		}
	}
	return raw
}

// sortedIndices returns curve indices ordered most extreme first.
func sortedIndices(values []float64, largestExtreme bool) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if largestExtreme {
			return values[idx[a]] > values[idx[b]]
		}
		return values[idx[a]] < values[idx[b]]
	})
	return idx
}
