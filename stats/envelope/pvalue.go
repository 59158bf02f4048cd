package envelope

import (
	"fmt"
	"sort"

	"goenvelope/domain/core"
)

// TiePolicy resolves ties between the observed extremity and simulated ones
// when estimating the Monte Carlo p-value
type TiePolicy string

const (
	TiesMidrank      TiePolicy = "midrank"      // ties contribute one half
	TiesConservative TiePolicy = "conservative" // ties count fully toward the observed
	TiesLiberal      TiePolicy = "liberal"      // ties excluded
)

// Validate checks that the tie policy is recognized
func (t TiePolicy) Validate() error {
	switch t {
	case TiesMidrank, TiesConservative, TiesLiberal:
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidTies, string(t))
	}
}

// weight returns the tie contribution under the policy
func (t TiePolicy) weight() float64 {
	switch t {
	case TiesConservative:
		return 1
	case TiesLiberal:
		return 0
	default:
		return 0.5
	}
}

// extremeCounts counts simulated extremities strictly more extreme than the
// observed one and those exactly tied with it. extremity[0] is the observed
// score; smallerExtreme states the measure's sign convention.
func extremeCounts(extremity []float64, smallerExtreme bool) (more, ties int) {
	obs := extremity[0]
	for _, v := range extremity[1:] {
		switch {
		case v == obs:
			ties++
		case smallerExtreme && v < obs:
			more++
		case !smallerExtreme && v > obs:
			more++
		}
	}
	return more, ties
}

// pValue estimates p = (1 + #{more extreme} + w*#{ties}) / (Nsim+1) with the
// tie weight w chosen by the policy.
func pValue(extremity []float64, smallerExtreme bool, ties TiePolicy) float64 {
	more, tied := extremeCounts(extremity, smallerExtreme)
	n := float64(len(extremity))
	return (1 + float64(more) + ties.weight()*float64(tied)) / n
}

// pInterval returns the liberal and conservative p-value bounds arising from
// discrete tie handling.
func pInterval(extremity []float64, smallerExtreme bool) [2]float64 {
	more, tied := extremeCounts(extremity, smallerExtreme)
	n := float64(len(extremity))
	return [2]float64{
		(1 + float64(more)) / n,
		(1 + float64(more) + float64(tied)) / n,
	}
}

// criticalValue picks the (1-alpha)-level critical extremity: the order
// statistic at position floor((1-alpha)*Nfunc) counted from the LEAST extreme
// end of the sorted extremities. For deviation measures (larger = more
// extreme) that is the ascending position; for ordering measures (smaller =
// more extreme) the descending one. Either way at least floor((1-alpha)*Nfunc)
// curves are no more extreme than the returned value, so the central region
// they span retains the (1-alpha) share of least extreme curves.
func criticalValue(extremity []float64, alpha float64, smallerExtreme bool) float64 {
	sorted := make([]float64, len(extremity))
	copy(sorted, extremity)
	sort.Float64s(sorted)
	n := len(sorted)
	m := int((1 - alpha) * float64(n))
	if m < 1 {
		m = 1
	}
	if m > n {
		m = n
	}
	if smallerExtreme {
		return sorted[n-m]
	}
	return sorted[m-1]
}
