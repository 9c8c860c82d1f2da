// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// univariateFixture is a two-regime AR(1) small enough to filter by hand.
func univariateFixture() (*TimeSeries, []RegimeParams, MarkovChain) {
	y := []float64{0.2, 0.5, 0.1, 2.3, 2.9, 2.2, 0.4, 0.3, 0.6, 0.1}
	ts := &TimeSeries{
		Y:        mat.NewDense(len(y), 1, y),
		VarNames: []string{"price"},
	}
	regimes := []RegimeParams{
		{
			C:     mat.NewVecDense(1, []float64{0}),
			A:     []*mat.Dense{mat.NewDense(1, 1, []float64{0.5})},
			Sigma: mat.NewSymDense(1, []float64{1}),
		},
		{
			C:     mat.NewVecDense(1, []float64{2}),
			A:     []*mat.Dense{mat.NewDense(1, 1, []float64{0.1})},
			Sigma: mat.NewSymDense(1, []float64{4}),
		},
	}
	chain := MarkovChain{
		P:       mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}),
		Initial: []float64{0.5, 0.5},
	}
	return ts, regimes, chain
}

func TestHamiltonFilterByHand(t *testing.T) {
	ts, regimes, chain := univariateFixture()

	res, err := HamiltonFilter(ts, regimes, chain, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Floored)

	y := ts.Y.RawMatrix().Data
	pred := []float64{0.5, 0.5}
	ll := 0.0
	for s := 0; s+1 < len(y); s++ {
		joint := make([]float64, 2)
		for k, rp := range regimes {
			dist := distuv.Normal{
				Mu:    rp.C.AtVec(0) + rp.A[0].At(0, 0)*y[s],
				Sigma: math.Sqrt(rp.Sigma.At(0, 0)),
			}
			joint[k] = pred[k] * dist.Prob(y[s+1])
		}
		f := joint[0] + joint[1]
		ll += math.Log(f)
		filt := []float64{joint[0] / f, joint[1] / f}

		if !almostEqual(res.Filtered.At(s, 0), filt[0], 1e-12) {
			t.Errorf("filtered[%d] = %v, want %v", s, res.Filtered.At(s, 0), filt[0])
		}
		pred = []float64{
			filt[0]*0.9 + filt[1]*0.2,
			filt[0]*0.1 + filt[1]*0.8,
		}
	}
	assert.InDelta(t, ll, res.LogLikelihood, 1e-10)
}

func TestHamiltonFilterRowsAreDistributions(t *testing.T) {
	ts := simulate(t, twoRegimeParams(), breakPath(60, 30), 23)
	chain := PersistentChain(2, 0.95)

	for _, workers := range []int{1, 2, 0} {
		res, err := HamiltonFilter(ts, twoRegimeParams(), chain, workers)
		require.NoError(t, err)

		n, K := res.Filtered.Dims()
		require.Equal(t, 59, n)
		require.Equal(t, 2, K)
		for s := 0; s < n; s++ {
			assert.InDelta(t, 1.0, floats.Sum(res.Filtered.RawRowView(s)), 1e-12)
			assert.InDelta(t, 1.0, floats.Sum(res.Predicted.RawRowView(s)), 1e-12)
		}
		assert.Equal(t, chain.Initial, res.Predicted.RawRowView(0))
	}
}

func TestHamiltonFilterFloorsVanishingDensities(t *testing.T) {
	ts, regimes, chain := univariateFixture()
	ts.Y.Set(4, 0, 1e200)

	res, err := HamiltonFilter(ts, regimes, chain, 1)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Floored, 1)
	assert.False(t, math.IsNaN(res.LogLikelihood))
	assert.False(t, math.IsInf(res.LogLikelihood, 0))

	n, _ := res.Filtered.Dims()
	for s := 0; s < n; s++ {
		row := res.Filtered.RawRowView(s)
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-12, "row %d", s)
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestHamiltonFilterRejectsBadInput(t *testing.T) {
	ts, regimes, chain := univariateFixture()

	t.Run("no regimes", func(t *testing.T) {
		_, err := HamiltonFilter(ts, nil, chain, 1)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("chain size mismatch", func(t *testing.T) {
		_, err := HamiltonFilter(ts, regimes[:1], chain, 1)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "transition matrix", ce.Field)
	})

	t.Run("rows not stochastic", func(t *testing.T) {
		bad := MarkovChain{P: mat.NewDense(2, 2, []float64{0.9, 0.2, 0.2, 0.8}), Initial: []float64{0.5, 0.5}}
		_, err := HamiltonFilter(ts, regimes, bad, 1)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("singular covariance", func(t *testing.T) {
		broken := []RegimeParams{regimes[0].Clone(), regimes[1].Clone()}
		broken[1].Sigma = mat.NewSymDense(1, []float64{0})
		_, err := HamiltonFilter(ts, broken, chain, 1)
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "regime parameters", ce.Field)
	})
}
