package curves

import (
	"goenvelope/domain/core"
)

// NewCurveSetFromTable builds a curve set from a rectangular nr x Nfunc table
// whose first column is the observed function. This is the natural constructor
// for vector-valued joint tests where the collaborator supplies one wide table
// rather than separate obs/sim blocks. theo may be nil.
func NewCurveSetFromTable(r []float64, table [][]float64, theo []float64) (*CurveSet, error) {
	if len(table) != len(r) {
		return nil, core.NewShapeError("table rows", len(r), len(table))
	}
	obs := make([]float64, len(r))
	sim := make([][]float64, len(r))
	for i, row := range table {
		if len(row) < 2 {
			return nil, core.ErrTooFewCurves
		}
		obs[i] = row[0]
		s := make([]float64, len(row)-1)
		copy(s, row[1:])
		sim[i] = s
	}
	return NewCurveSet(r, obs, sim, theo)
}
