// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSmoothTwoPeriods(t *testing.T) {
	filtered := mat.NewDense(2, 2, []float64{
		0.5, 0.5,
		0.9, 0.1,
	})
	chain := MarkovChain{
		P:       mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}),
		Initial: []float64{0.5, 0.5},
	}

	res, err := Smooth(filtered, chain)
	require.NoError(t, err)

	// predicted[1] = P' filtered[0] = (0.55, 0.45)
	r0, r1 := 0.9/0.55, 0.1/0.45
	want := [][]float64{
		{0.5 * (0.9*r0 + 0.1*r1), 0.5 * (0.2*r0 + 0.8*r1)},
		{0.9, 0.1},
	}
	for s := range want {
		for k := range want[s] {
			if !almostEqual(res.Smoothed.At(s, k), want[s][k], 1e-12) {
				t.Errorf("smoothed[%d][%d] = %v, want %v", s, k, res.Smoothed.At(s, k), want[s][k])
			}
		}
	}

	wantCounts := [][]float64{
		{0.5 * 0.9 * r0, 0.5 * 0.1 * r1},
		{0.5 * 0.2 * r0, 0.5 * 0.8 * r1},
	}
	assert.InDeltaSlice(t, wantCounts[0], res.TransitionCounts.RawRowView(0), 1e-12)
	assert.InDeltaSlice(t, wantCounts[1], res.TransitionCounts.RawRowView(1), 1e-12)
}

func TestSmoothOnFilterOutput(t *testing.T) {
	ts := simulate(t, twoRegimeParams(), breakPath(80, 40), 29)
	chain := PersistentChain(2, 0.9)

	fr, err := HamiltonFilter(ts, twoRegimeParams(), chain, 1)
	require.NoError(t, err)
	sr, err := Smooth(fr.Filtered, chain)
	require.NoError(t, err)

	n, K := sr.Smoothed.Dims()
	for s := 0; s < n; s++ {
		assert.InDelta(t, 1.0, floats.Sum(sr.Smoothed.RawRowView(s)), 1e-9, "row %d", s)
	}
	assert.Equal(t, fr.Filtered.RawRowView(n-1), sr.Smoothed.RawRowView(n-1))

	// Expected transitions add up to the number of consecutive pairs
	total := 0.0
	for i := 0; i < K; i++ {
		total += floats.Sum(sr.TransitionCounts.RawRowView(i))
	}
	assert.InDelta(t, float64(n-1), total, 1e-6)
}

func TestSmoothAbsorbingRegime(t *testing.T) {
	// Regime 1 is unreachable, so its predicted probability is zero
	filtered := mat.NewDense(3, 2, []float64{
		1, 0,
		1, 0,
		1, 0,
	})
	chain := MarkovChain{
		P:       mat.NewDense(2, 2, []float64{1, 0, 0.5, 0.5}),
		Initial: []float64{1, 0},
	}

	res, err := Smooth(filtered, chain)
	require.NoError(t, err)
	for s := 0; s < 3; s++ {
		assert.Equal(t, []float64{1, 0}, res.Smoothed.RawRowView(s))
	}
}

func TestSmoothRejectsMismatch(t *testing.T) {
	_, err := Smooth(mat.NewDense(2, 3, nil), PersistentChain(2, 0.9))
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)

	_, err = Smooth(nil, PersistentChain(2, 0.9))
	require.ErrorAs(t, err, &ce)
}
