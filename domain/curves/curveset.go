package curves

import (
	"fmt"
	"math"

	"goenvelope/domain/core"

	"github.com/montanaflynn/stats"
)

// CurveSet holds one observed function and its Monte Carlo replicates over a
// shared argument domain. Column 0 of the combined table is always the
// observed curve; columns 1..Nsim are the simulations.
//
// INVARIANTS:
// - R is strictly increasing (need not be evenly spaced)
// - len(Obs) == len(R) and every Sim row has Nsim entries
// - Nfunc = Nsim+1 >= 2
// - no curve is entirely missing (all-NaN)
type CurveSet struct {
	R    []float64   `json:"r"`              // argument values, length nr
	Obs  []float64   `json:"obs"`            // observed curve, length nr
	Sim  [][]float64 `json:"sim_m"`          // Sim[i][j]: simulation j at position i
	Theo []float64   `json:"theo,omitempty"` // optional theoretical reference curve
}

// NewCurveSet builds a validated curve set. theo may be nil.
func NewCurveSet(r, obs []float64, sim [][]float64, theo []float64) (*CurveSet, error) {
	cs := &CurveSet{R: r, Obs: obs, Sim: sim, Theo: theo}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return cs, nil
}

// MustNewCurveSet builds a curve set and panics on invalid input.
// Use only in tests and development - production code should handle validation errors
func MustNewCurveSet(r, obs []float64, sim [][]float64, theo []float64) *CurveSet {
	cs, err := NewCurveSet(r, obs, sim, theo)
	if err != nil {
		panic(err)
	}
	return cs
}

// Validate checks the curve-set invariants
func (cs *CurveSet) Validate() error {
	nr := len(cs.R)
	if nr == 0 {
		return core.ErrEmptyDomain
	}
	for i := 1; i < nr; i++ {
		if !(cs.R[i] > cs.R[i-1]) {
			return fmt.Errorf("%w: r[%d]=%g, r[%d]=%g", core.ErrUnorderedDomain, i-1, cs.R[i-1], i, cs.R[i])
		}
	}
	if len(cs.Obs) != nr {
		return core.NewShapeError("observed curve length", nr, len(cs.Obs))
	}
	if len(cs.Sim) != nr {
		return core.NewShapeError("simulation rows", nr, len(cs.Sim))
	}
	nsim := len(cs.Sim[0])
	if nsim < 1 {
		return core.ErrTooFewCurves
	}
	for i, row := range cs.Sim {
		if len(row) != nsim {
			return core.NewShapeError(fmt.Sprintf("simulation row %d", i), nsim, len(row))
		}
	}
	if cs.Theo != nil && len(cs.Theo) != nr {
		return core.NewShapeError("theoretical curve length", nr, len(cs.Theo))
	}
	// Reject entirely missing curves
	for j := -1; j < nsim; j++ {
		allNaN := true
		for i := 0; i < nr; i++ {
			if !math.IsNaN(cs.value(i, j)) {
				allNaN = false
				break
			}
		}
		if allNaN {
			return fmt.Errorf("%w: curve %d is entirely missing", core.ErrDegenerateInput, j+1)
		}
	}
	return nil
}

// value returns the observed value for j == -1, otherwise simulation j.
func (cs *CurveSet) value(i, j int) float64 {
	if j < 0 {
		return cs.Obs[i]
	}
	return cs.Sim[i][j]
}

// Nr returns the number of argument positions
func (cs *CurveSet) Nr() int { return len(cs.R) }

// Nsim returns the number of simulated curves
func (cs *CurveSet) Nsim() int {
	if len(cs.Sim) == 0 {
		return 0
	}
	return len(cs.Sim[0])
}

// Nfunc returns the total number of functions (observed + simulations)
func (cs *CurveSet) Nfunc() int { return cs.Nsim() + 1 }

// Row returns all Nfunc curve values at argument position i, observed first.
func (cs *CurveSet) Row(i int) []float64 {
	row := make([]float64, 0, cs.Nfunc())
	row = append(row, cs.Obs[i])
	row = append(row, cs.Sim[i]...)
	return row
}

// SimValues returns the simulated values at argument position i.
func (cs *CurveSet) SimValues(i int) []float64 {
	out := make([]float64, len(cs.Sim[i]))
	copy(out, cs.Sim[i])
	return out
}

// Central returns the reference curve: the theoretical curve when supplied,
// otherwise the pointwise mean of the simulated curves.
func (cs *CurveSet) Central() []float64 {
	if cs.Theo != nil {
		out := make([]float64, len(cs.Theo))
		copy(out, cs.Theo)
		return out
	}
	central := make([]float64, cs.Nr())
	for i := range central {
		m, err := stats.Mean(cs.Sim[i])
		if err != nil {
			m = math.NaN()
		}
		central[i] = m
	}
	return central
}

// HasTheo reports whether a theoretical reference curve was supplied
func (cs *CurveSet) HasTheo() bool { return cs.Theo != nil }

// Slice returns the curve set restricted to argument positions [lo, hi).
// The slice shares no storage with the receiver.
func (cs *CurveSet) Slice(lo, hi int) (*CurveSet, error) {
	if lo < 0 || hi > cs.Nr() || lo >= hi {
		return nil, fmt.Errorf("%w: slice bounds [%d,%d) outside domain of %d positions",
			core.ErrShapeMismatch, lo, hi, cs.Nr())
	}
	n := hi - lo
	out := &CurveSet{
		R:   make([]float64, n),
		Obs: make([]float64, n),
		Sim: make([][]float64, n),
	}
	copy(out.R, cs.R[lo:hi])
	copy(out.Obs, cs.Obs[lo:hi])
	for i := 0; i < n; i++ {
		row := make([]float64, len(cs.Sim[lo+i]))
		copy(row, cs.Sim[lo+i])
		out.Sim[i] = row
	}
	if cs.Theo != nil {
		out.Theo = make([]float64, n)
		copy(out.Theo, cs.Theo[lo:hi])
	}
	return out, nil
}

// Partition splits the argument domain into nparts contiguous blocks of
// near-equal size, for out-of-core or parallel partial computation.
func (cs *CurveSet) Partition(nparts int) ([]*CurveSet, error) {
	if nparts < 1 || nparts > cs.Nr() {
		return nil, fmt.Errorf("%w: cannot split %d positions into %d partitions",
			core.ErrShapeMismatch, cs.Nr(), nparts)
	}
	nr := cs.Nr()
	parts := make([]*CurveSet, 0, nparts)
	for p := 0; p < nparts; p++ {
		lo := p * nr / nparts
		hi := (p + 1) * nr / nparts
		part, err := cs.Slice(lo, hi)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}
