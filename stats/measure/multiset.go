package measure

import (
	"fmt"
	"sort"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/stats/rank"
)

// OrderSets jointly orders the functions of several named curve sets that
// describe the same observed function and simulations under different test
// statistics or variables. Each set's extremity vector is computed
// independently, the vectors are stacked into a derived table with one row
// per set, and a second-stage extreme-rank-length ranking of that table
// yields one combined extremity per function (smaller = more extreme).
func OrderSets(sets map[string]*curves.CurveSet, o Options) ([]float64, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no curve sets", core.ErrSetMismatch)
	}

	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	nfunc := sets[names[0]].Nfunc()
	stacked := make([][]float64, 0, len(names))
	for _, name := range names {
		cs := sets[name]
		if cs.Nfunc() != nfunc {
			return nil, fmt.Errorf("%w: set %q has %d functions, want %d",
				core.ErrSetMismatch, name, cs.Nfunc(), nfunc)
		}
		ext, err := Compute(cs, o)
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", name, err)
		}
		stacked = append(stacked, ext)
	}

	// Second stage: the stacked distances are themselves a curve table with
	// the set index as argument. For deviation measures large values are
	// extreme, for ordering measures small ones.
	dir := rank.DirectionLess
	if o.Measure.Deviation() {
		dir = rank.DirectionGreater
	}
	return erlOnMatrix(stacked, dir, nfunc)
}

// erlOnMatrix applies the extreme-rank-length ranking to a [row][curve]
// matrix of distances.
func erlOnMatrix(m [][]float64, dir rank.Direction, nfunc int) ([]float64, error) {
	disc := make([][]float64, len(m))
	for i, row := range m {
		ranks, err := rank.Discrete(row, dir)
		if err != nil {
			return nil, err
		}
		disc[i] = ranks
	}
	col := make([]float64, len(m))
	hists := make([]RankHistogram, nfunc)
	for j := 0; j < nfunc; j++ {
		for i := range disc {
			col[i] = disc[i][j]
		}
		hists[j] = newRankHistogram(col)
	}
	return lexicographicMeasure(hists), nil
}
