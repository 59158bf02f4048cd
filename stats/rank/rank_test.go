package rank

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"goenvelope/domain/core"
)

const eps = 1e-12

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

// TestDiscrete_TieAveraging verifies standard average ranks over tie runs
func TestDiscrete_TieAveraging(t *testing.T) {
	ranks, err := Discrete([]float64{1, 2, 2, 3}, DirectionLess)
	if err != nil {
		t.Fatalf("Discrete failed: %v", err)
	}
	want := []float64{1, 2.5, 2.5, 4}
	for i := range want {
		if !almostEqual(ranks[i], want[i]) {
			t.Errorf("rank[%d] = %g, want %g", i, ranks[i], want[i])
		}
	}
}

// TestDiscrete_DirectionSymmetry verifies rank(x, greater) == rank(-x, less)
func TestDiscrete_DirectionSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, 25)
	neg := make([]float64, 25)
	for i := range x {
		x[i] = rng.NormFloat64()
		neg[i] = -x[i]
	}
	// Introduce a tie
	x[3] = x[17]
	neg[3] = -x[3]

	up, err := Discrete(x, DirectionGreater)
	if err != nil {
		t.Fatalf("Discrete(greater) failed: %v", err)
	}
	down, err := Discrete(neg, DirectionLess)
	if err != nil {
		t.Fatalf("Discrete(less) failed: %v", err)
	}
	for i := range up {
		if !almostEqual(up[i], down[i]) {
			t.Errorf("rank[%d]: greater %g != less-of-negated %g", i, up[i], down[i])
		}
	}
}

// TestDiscrete_TwoSidedIsMin verifies the two-sided rank is the elementwise
// minimum of the one-sided ranks
func TestDiscrete_TwoSidedIsMin(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	x := make([]float64, 30)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	x[5] = x[20]

	lo, _ := Discrete(x, DirectionLess)
	hi, _ := Discrete(x, DirectionGreater)
	two, err := Discrete(x, DirectionTwoSided)
	if err != nil {
		t.Fatalf("Discrete(two.sided) failed: %v", err)
	}
	for i := range two {
		if !almostEqual(two[i], math.Min(lo[i], hi[i])) {
			t.Errorf("two-sided rank[%d] = %g, want min(%g, %g)", i, two[i], lo[i], hi[i])
		}
	}
}

// TestDiscrete_PermutationEquivariance verifies permuting inputs permutes
// the ranks identically
func TestDiscrete_PermutationEquivariance(t *testing.T) {
	x := []float64{4, 1, 3, 3, 2}
	perm := []int{2, 0, 4, 1, 3}
	permuted := make([]float64, len(x))
	for i, p := range perm {
		permuted[i] = x[p]
	}
	orig, _ := Discrete(x, DirectionTwoSided)
	shuffled, _ := Discrete(permuted, DirectionTwoSided)
	for i, p := range perm {
		if !almostEqual(shuffled[i], orig[p]) {
			t.Errorf("permuted rank[%d] = %g, want %g", i, shuffled[i], orig[p])
		}
	}
}

// TestContinuous_DistinctValues checks the interpolation formulas on a
// hand-computed example
func TestContinuous_DistinctValues(t *testing.T) {
	ranks, err := Continuous([]float64{5, 3, 2, 1}, DirectionGreater)
	if err != nil {
		t.Fatalf("Continuous failed: %v", err)
	}
	want := []float64{
		math.Exp(-1), // exp(-(5-3)/(3-1))
		1 + 2.0/3.0,  // 1 + (5-3)/(5-2)
		2 + 0.5,      // 2 + (3-2)/(3-1)
		4,            // least extreme keeps its integer rank
	}
	for i := range want {
		if !almostEqual(ranks[i], want[i]) {
			t.Errorf("continuous rank[%d] = %g, want %g", i, ranks[i], want[i])
		}
	}
}

// TestContinuous_TieRun verifies tied values share the average of their
// individual ranks
func TestContinuous_TieRun(t *testing.T) {
	ranks, err := Continuous([]float64{3, 2, 2, 1}, DirectionGreater)
	if err != nil {
		t.Fatalf("Continuous failed: %v", err)
	}
	want := []float64{math.Exp(-1), 2, 2, 4}
	for i := range want {
		if !almostEqual(ranks[i], want[i]) {
			t.Errorf("continuous rank[%d] = %g, want %g", i, ranks[i], want[i])
		}
	}
}

// TestContinuous_AllEqual verifies a full tie resolves to the discrete
// average rank without dividing by zero
func TestContinuous_AllEqual(t *testing.T) {
	for _, dir := range []Direction{DirectionLess, DirectionGreater, DirectionTwoSided} {
		ranks, err := Continuous([]float64{2, 2, 2}, dir)
		if err != nil {
			t.Fatalf("Continuous(%s) failed: %v", dir, err)
		}
		for i, r := range ranks {
			if !almostEqual(r, 2) {
				t.Errorf("%s: rank[%d] = %g, want 2", dir, i, r)
			}
		}
	}
}

// TestContinuous_BoundaryDenominator exercises the degenerate case where all
// less extreme values coincide; the result must be finite
func TestContinuous_BoundaryDenominator(t *testing.T) {
	ranks, err := Continuous([]float64{5, 1, 1, 1}, DirectionGreater)
	if err != nil {
		t.Fatalf("Continuous failed: %v", err)
	}
	if ranks[0] != 0 {
		t.Errorf("most extreme rank = %g, want limiting value 0", ranks[0])
	}
	tied := (2.0 + 2.0 + 3.0) / 3.0
	for i := 1; i < 4; i++ {
		if math.IsNaN(ranks[i]) || math.IsInf(ranks[i], 0) {
			t.Fatalf("rank[%d] = %g, want finite", i, ranks[i])
		}
		if !almostEqual(ranks[i], tied) {
			t.Errorf("tied rank[%d] = %g, want %g", i, ranks[i], tied)
		}
	}
}

// TestContinuous_TwoSidedIsMin verifies the two-sided continuous rank is the
// elementwise minimum of the one-sided ones
func TestContinuous_TwoSidedIsMin(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := make([]float64, 20)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	up, _ := Continuous(x, DirectionGreater)
	down, _ := Continuous(x, DirectionLess)
	two, err := Continuous(x, DirectionTwoSided)
	if err != nil {
		t.Fatalf("Continuous(two.sided) failed: %v", err)
	}
	for i := range two {
		if !almostEqual(two[i], math.Min(up[i], down[i])) {
			t.Errorf("two-sided continuous rank[%d] = %g, want min(%g, %g)", i, two[i], up[i], down[i])
		}
	}
}

// TestRank_InvalidInputs verifies option and shape errors
func TestRank_InvalidInputs(t *testing.T) {
	if _, err := Discrete([]float64{1, 2}, Direction("sideways")); !errors.Is(err, core.ErrInvalidAlternative) {
		t.Errorf("expected invalid-alternative error for unknown direction, got %v", err)
	}
	if _, err := Discrete([]float64{1}, DirectionLess); err == nil {
		t.Error("expected error for a single value")
	}
	if _, err := Continuous([]float64{1}, DirectionLess); err == nil {
		t.Error("expected error for a single value")
	}
}
