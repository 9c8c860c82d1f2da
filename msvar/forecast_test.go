// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// varPath iterates a single regime's equations from the last p rows of hist.
func varPath(rp RegimeParams, hist *mat.Dense, steps int) [][]float64 {
	T, V := hist.Dims()
	p := rp.Lags()
	rows := make([][]float64, 0, p+steps)
	for i := T - p; i < T; i++ {
		rows = append(rows, append([]float64(nil), hist.RawRowView(i)...))
	}
	for s := 0; s < steps; s++ {
		next := make([]float64, V)
		for eq := 0; eq < V; eq++ {
			next[eq] = rp.C.AtVec(eq)
			for lag := 1; lag <= p; lag++ {
				prev := rows[len(rows)-lag]
				for j := 0; j < V; j++ {
					next[eq] += rp.A[lag-1].At(eq, j) * prev[j]
				}
			}
		}
		rows = append(rows, next)
	}
	return rows[p:]
}

func TestForecastSingleRegime(t *testing.T) {
	rp := twoRegimeParams()[0]
	fit := &FitResult{
		Regimes:  []RegimeParams{rp},
		Chain:    PersistentChain(1, 1),
		Filtered: mat.NewDense(1, 1, []float64{1}),
	}
	hist := mat.NewDense(3, 2, []float64{0.5, 0.1, 1.2, -0.3, 0.9, 0.4})

	fc, err := Forecast(fit, hist, 5)
	require.NoError(t, err)
	want := varPath(rp, hist, 5)
	for s := 0; s < 5; s++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, want[s][j], fc.Mean.At(s, j), 1e-12, "step %d var %d", s, j)
		}
		assert.Equal(t, 1.0, fc.RegimeProbs.At(s, 0))
	}
}

func TestForecastAbsorbingRegime(t *testing.T) {
	regimes := twoRegimeParams()
	fit := &FitResult{
		Regimes:  regimes,
		Chain:    PersistentChain(2, 1),
		Filtered: mat.NewDense(2, 2, []float64{0.5, 0.5, 0, 1}),
	}
	hist := mat.NewDense(2, 2, []float64{0, 0, 0.3, 0.7})

	fc, err := Forecast(fit, hist, 4)
	require.NoError(t, err)
	want := varPath(regimes[1], hist, 4)
	for s := 0; s < 4; s++ {
		assert.InDelta(t, want[s][0], fc.Mean.At(s, 0), 1e-12)
		assert.InDelta(t, want[s][1], fc.Mean.At(s, 1), 1e-12)
		assert.Equal(t, []float64{0, 1}, fc.RegimeProbs.RawRowView(s))
	}
}

func TestForecastRegimeProbabilities(t *testing.T) {
	fit := &FitResult{
		Regimes: twoRegimeParams(),
		Chain: MarkovChain{
			P:       mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}),
			Initial: []float64{0.5, 0.5},
		},
		Filtered: mat.NewDense(1, 2, []float64{1, 0}),
	}
	hist := mat.NewDense(1, 2, []float64{0.2, 0.2})

	fc, err := Forecast(fit, hist, 200)
	require.NoError(t, err)

	// One step from regime 0 is row 0 of P
	assert.InDelta(t, 0.9, fc.RegimeProbs.At(0, 0), 1e-12)
	assert.InDelta(t, 0.1, fc.RegimeProbs.At(0, 1), 1e-12)
	for s := 0; s < 200; s++ {
		assert.InDelta(t, 1.0, mat.Sum(fc.RegimeProbs.RowView(s)), 1e-9)
	}
	// Long horizons approach the stationary distribution
	assert.InDelta(t, 2.0/3, fc.RegimeProbs.At(199, 0), 1e-9)

	// and the forecast approaches the mixture's fixed point, so it settles
	assert.InDelta(t, fc.Mean.At(198, 0), fc.Mean.At(199, 0), 1e-9)
}

func TestForecastErrors(t *testing.T) {
	regimes := twoRegimeParams()
	for k := range regimes {
		regimes[k].A = append(regimes[k].A, mat.NewDense(2, 2, nil))
	}
	fit := &FitResult{
		Regimes:  regimes,
		Chain:    PersistentChain(2, 0.9),
		Filtered: mat.NewDense(1, 2, []float64{0.5, 0.5}),
	}

	var ise *InvalidStateError
	_, err := Forecast(nil, nil, 3)
	require.ErrorAs(t, err, &ise)

	tests := []struct {
		name  string
		hist  *mat.Dense
		steps int
		field string
	}{
		{"zero steps", mat.NewDense(3, 2, nil), 0, "periods"},
		{"no history", nil, 3, "data"},
		{"wrong width", mat.NewDense(3, 3, nil), 3, "data"},
		{"short history", mat.NewDense(1, 2, nil), 3, "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(fit, tt.hist, tt.steps)
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}
