// Package testkit generates deterministic synthetic curve sets for tests.
package testkit

import (
	"math"
	"math/rand"

	"goenvelope/domain/curves"
)

// GeneratorConfig configures the synthetic curve generator
type GeneratorConfig struct {
	Nr    int     `json:"nr"`    // argument positions
	Nsim  int     `json:"nsim"`  // simulated curves
	Noise float64 `json:"noise"` // pointwise noise standard deviation
	Seed  int64   `json:"seed"`
}

// DefaultGeneratorConfig returns sensible defaults for curve generation
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Nr:    50,
		Nsim:  99,
		Noise: 1.0,
		Seed:  42,
	}
}

// CurveGenerator generates reproducible synthetic curve sets
type CurveGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewCurveGenerator creates a new curve generator
func NewCurveGenerator(config GeneratorConfig) *CurveGenerator {
	return &CurveGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GaussianCurveSet generates an observed curve and simulations as independent
// Gaussian noise around a sine trend. Under this construction the observed
// curve is exchangeable with the simulations.
func (g *CurveGenerator) GaussianCurveSet() *curves.CurveSet {
	r := g.domain()
	obs := g.noisyCurve(r)
	sim := make([][]float64, g.config.Nr)
	cols := make([][]float64, g.config.Nsim)
	for j := range cols {
		cols[j] = g.noisyCurve(r)
	}
	for i := range sim {
		row := make([]float64, g.config.Nsim)
		for j := range row {
			row[j] = cols[j][i]
		}
		sim[i] = row
	}
	return curves.MustNewCurveSet(r, obs, sim, nil)
}

// ShiftedCurveSet generates a curve set whose observed curve sits shift noise
// units above the simulated trend, for power checks.
func (g *CurveGenerator) ShiftedCurveSet(shift float64) *curves.CurveSet {
	cs := g.GaussianCurveSet()
	for i := range cs.Obs {
		cs.Obs[i] += shift * g.config.Noise
	}
	return cs
}

// TiedCurveSet generates a curve set whose values are rounded to a coarse
// grid, producing deliberate ties at every position.
func (g *CurveGenerator) TiedCurveSet() *curves.CurveSet {
	cs := g.GaussianCurveSet()
	round := func(v float64) float64 { return math.Round(v*2) / 2 }
	for i := range cs.Obs {
		cs.Obs[i] = round(cs.Obs[i])
		for j := range cs.Sim[i] {
			cs.Sim[i][j] = round(cs.Sim[i][j])
		}
	}
	return cs
}

func (g *CurveGenerator) domain() []float64 {
	r := make([]float64, g.config.Nr)
	for i := range r {
		r[i] = float64(i + 1)
	}
	return r
}

func (g *CurveGenerator) noisyCurve(r []float64) []float64 {
	curve := make([]float64, len(r))
	for i, x := range r {
		curve[i] = math.Sin(x/8) + g.rng.NormFloat64()*g.config.Noise
	}
	return curve
}
