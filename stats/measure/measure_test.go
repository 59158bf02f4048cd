package measure

import (
	"errors"
	"math"
	"testing"

	"goenvelope/domain/core"
	"goenvelope/domain/curves"
	"goenvelope/internal/testkit"
	"goenvelope/stats/rank"
)

const eps = 1e-12

// symmetricCurveSet builds the reference table: observed flat zero against
// four simulations forming the symmetric values [-2,-1,1,2] at every
// position.
func symmetricCurveSet(t *testing.T) *curves.CurveSet {
	t.Helper()
	r := []float64{1, 2, 3}
	obs := []float64{0, 0, 0}
	sim := [][]float64{
		{-2, -1, 1, 2},
		{-2, -1, 1, 2},
		{-2, -1, 1, 2},
	}
	cs, err := curves.NewCurveSet(r, obs, sim, nil)
	if err != nil {
		t.Fatalf("NewCurveSet failed: %v", err)
	}
	return cs
}

// TestCompute_ExtremeRank verifies the two-sided extreme rank on the
// symmetric table: the observed flat-zero curve sits at rank 3, the outer
// simulations at rank 1
func TestCompute_ExtremeRank(t *testing.T) {
	cs := symmetricCurveSet(t)
	ext, err := Compute(cs, DefaultOptions(MeasureRank))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := []float64{3, 1, 2, 2, 1}
	for j := range want {
		if math.Abs(ext[j]-want[j]) > eps {
			t.Errorf("extreme rank[%d] = %g, want %g", j, ext[j], want[j])
		}
	}
}

// TestCompute_ERLOrdering verifies the erl refinement: values lie in (0,1],
// tied pairs share an averaged value, and curves that are extreme everywhere
// score below curves that never are
func TestCompute_ERLOrdering(t *testing.T) {
	cs := symmetricCurveSet(t)
	ext, err := Compute(cs, DefaultOptions(MeasureERL))
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := []float64{1.0, 0.3, 0.7, 0.7, 0.3}
	for j := range want {
		if math.Abs(ext[j]-want[j]) > eps {
			t.Errorf("erl[%d] = %g, want %g", j, ext[j], want[j])
		}
		if ext[j] <= 0 || ext[j] > 1 {
			t.Errorf("erl[%d] = %g outside (0,1]", j, ext[j])
		}
	}
	// Pointwise rank [1,1,1] must sort before pointwise rank [3,3,3]
	if ext[1] >= ext[0] {
		t.Errorf("everywhere-extreme curve (%g) not ordered before never-extreme curve (%g)", ext[1], ext[0])
	}
}

// TestCompute_ColumnPermutation verifies permuting simulation columns
// permutes the extremity vector identically
func TestCompute_ColumnPermutation(t *testing.T) {
	gen := testkit.NewCurveGenerator(testkit.GeneratorConfig{Nr: 12, Nsim: 6, Noise: 1, Seed: 19})
	cs := gen.GaussianCurveSet()

	perm := []int{3, 0, 5, 1, 4, 2}
	sim := make([][]float64, cs.Nr())
	for i := range sim {
		row := make([]float64, len(perm))
		for jNew, jOld := range perm {
			row[jNew] = cs.Sim[i][jOld]
		}
		sim[i] = row
	}
	shuffled := curves.MustNewCurveSet(cs.R, cs.Obs, sim, nil)

	for _, kind := range []Kind{MeasureRank, MeasureERL, MeasureCont, MeasureArea} {
		orig, err := Compute(cs, DefaultOptions(kind))
		if err != nil {
			t.Fatalf("%s: Compute failed: %v", kind, err)
		}
		permuted, err := Compute(shuffled, DefaultOptions(kind))
		if err != nil {
			t.Fatalf("%s: Compute on permuted set failed: %v", kind, err)
		}
		if math.Abs(orig[0]-permuted[0]) > eps {
			t.Errorf("%s: observed extremity changed under permutation: %g vs %g", kind, orig[0], permuted[0])
		}
		for jNew, jOld := range perm {
			if math.Abs(permuted[jNew+1]-orig[jOld+1]) > eps {
				t.Errorf("%s: extremity[%d] = %g, want %g", kind, jNew+1, permuted[jNew+1], orig[jOld+1])
			}
		}
	}
}

// TestCompute_ShiftedObservationIsMostExtreme verifies an observation far
// from the null trend gets the most extreme score under every measure
func TestCompute_ShiftedObservationIsMostExtreme(t *testing.T) {
	gen := testkit.NewCurveGenerator(testkit.GeneratorConfig{Nr: 30, Nsim: 20, Noise: 1, Seed: 5})
	cs := gen.ShiftedCurveSet(25)

	for _, kind := range []Kind{MeasureRank, MeasureERL, MeasureCont, MeasureArea} {
		ext, err := Compute(cs, DefaultOptions(kind))
		if err != nil {
			t.Fatalf("%s: Compute failed: %v", kind, err)
		}
		for j := 1; j < len(ext); j++ {
			if ext[0] > ext[j] {
				t.Errorf("%s: observed extremity %g not minimal (curve %d has %g)", kind, ext[0], j, ext[j])
			}
		}
	}

	o := DefaultOptions(MeasureMax)
	o.Scaling = ScalingStudentise
	dev, err := Compute(cs, o)
	if err != nil {
		t.Fatalf("max: Compute failed: %v", err)
	}
	for j := 1; j < len(dev); j++ {
		if dev[0] < dev[j] {
			t.Errorf("max: observed deviation %g not maximal (curve %d has %g)", dev[0], j, dev[j])
		}
	}
}

// TestCompute_DeviationMeasures verifies the unscaled deviation measures on
// a hand-checked table
func TestCompute_DeviationMeasures(t *testing.T) {
	cs := symmetricCurveSet(t)
	// Central curve is the simulated mean, identically zero.
	for _, tc := range []struct {
		kind Kind
		want []float64
	}{
		{MeasureMax, []float64{0, 2, 1, 1, 2}},
		{MeasureInt, []float64{0, 6, 3, 3, 6}},
		{MeasureInt2, []float64{0, 12, 3, 3, 12}},
	} {
		ext, err := Compute(cs, DefaultOptions(tc.kind))
		if err != nil {
			t.Fatalf("%s: Compute failed: %v", tc.kind, err)
		}
		for j := range tc.want {
			if math.Abs(ext[j]-tc.want[j]) > eps {
				t.Errorf("%s: deviation[%d] = %g, want %g", tc.kind, j, ext[j], tc.want[j])
			}
		}
	}
}

// TestCompute_DegenerateStudentisedScale verifies a zero pointwise standard
// deviation against a nonzero residual fails loudly
func TestCompute_DegenerateStudentisedScale(t *testing.T) {
	r := []float64{1, 2}
	obs := []float64{3, 3}
	sim := [][]float64{{1, 1, 1}, {1, 1, 1}}
	cs := curves.MustNewCurveSet(r, obs, sim, nil)

	o := DefaultOptions(MeasureMax)
	o.Scaling = ScalingStudentise
	if _, err := Compute(cs, o); !core.IsDegenerateError(err) {
		t.Fatalf("expected degenerate-scale error, got %v", err)
	}
}

// TestOptions_Validation verifies option errors surface before computation
func TestOptions_Validation(t *testing.T) {
	cs := symmetricCurveSet(t)

	o := DefaultOptions(Kind("entropy"))
	if _, err := Compute(cs, o); !errors.Is(err, core.ErrInvalidMeasure) {
		t.Errorf("expected invalid-measure error for unknown measure, got %v", err)
	}

	o = DefaultOptions(MeasureRank)
	o.Alternative = rank.Direction("both")
	if _, err := Compute(cs, o); !errors.Is(err, core.ErrInvalidAlternative) {
		t.Errorf("expected invalid-alternative error, got %v", err)
	}

	o = DefaultOptions(MeasureERL)
	o.HistogramK = 0
	if _, err := Compute(cs, o); !core.IsOptionError(err) {
		t.Errorf("expected option error for zero truncation, got %v", err)
	}

	o = DefaultOptions(MeasureMax)
	o.Scaling = Scaling("mad")
	if _, err := Compute(cs, o); !errors.Is(err, core.ErrInvalidScaling) {
		t.Errorf("expected invalid-scaling error, got %v", err)
	}
}

// TestOrderSets_CombinedOrdering verifies the second-stage erl ordering over
// two identical curve sets reproduces the per-set ordering
func TestOrderSets_CombinedOrdering(t *testing.T) {
	sets := map[string]*curves.CurveSet{
		"L":  symmetricCurveSet(t),
		"L2": symmetricCurveSet(t),
	}
	ext, err := OrderSets(sets, DefaultOptions(MeasureERL))
	if err != nil {
		t.Fatalf("OrderSets failed: %v", err)
	}
	want := []float64{1.0, 0.3, 0.7, 0.7, 0.3}
	for j := range want {
		if math.Abs(ext[j]-want[j]) > eps {
			t.Errorf("combined extremity[%d] = %g, want %g", j, ext[j], want[j])
		}
	}
}

// TestOrderSets_MismatchedSets verifies sets of different function counts
// are rejected
func TestOrderSets_MismatchedSets(t *testing.T) {
	small := curves.MustNewCurveSet(
		[]float64{1, 2},
		[]float64{0, 0},
		[][]float64{{1, 2}, {1, 2}},
		nil,
	)
	sets := map[string]*curves.CurveSet{
		"a": symmetricCurveSet(t),
		"b": small,
	}
	if _, err := OrderSets(sets, DefaultOptions(MeasureERL)); !core.IsShapeError(err) {
		t.Fatalf("expected shape error, got %v", err)
	}
}
