// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/internal/monitoring"
)

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// quietOptions returns default options with logging muted.
func quietOptions() FitOptions {
	opts := DefaultFitOptions()
	opts.Logf = monitoring.Discard
	return opts
}

// twoRegimeParams are the data-generating parameters of the synthetic
// 2-variable, 2-regime, 1-lag model used across tests.
func twoRegimeParams() []RegimeParams {
	r0 := RegimeParams{
		C:     mat.NewVecDense(2, []float64{1.0, -0.5}),
		A:     []*mat.Dense{mat.NewDense(2, 2, []float64{0.3, 0.1, 0.0, 0.2})},
		Sigma: mat.NewSymDense(2, []float64{0.10, 0.02, 0.02, 0.10}),
	}
	r1 := RegimeParams{
		C:     mat.NewVecDense(2, []float64{-1.0, 1.0}),
		A:     []*mat.Dense{mat.NewDense(2, 2, []float64{0.2, 0.0, 0.1, 0.3})},
		Sigma: mat.NewSymDense(2, []float64{0.40, -0.05, -0.05, 0.30}),
	}
	return []RegimeParams{r0, r1}
}

// simulate draws a series of length len(path) from the regime parameters,
// using path[t] as the regime at row t. The first p rows are set to the
// starting regime's mean.
func simulate(t *testing.T, regimes []RegimeParams, path []int, seed uint64) *TimeSeries {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	V := regimes[0].Dim()
	p := regimes[0].Lags()
	T := len(path)

	chols := make([]*mat.TriDense, len(regimes))
	for k, rp := range regimes {
		var chol mat.Cholesky
		if !chol.Factorize(rp.Sigma) {
			t.Fatalf("regime %d covariance not positive definite", k)
		}
		L := mat.NewTriDense(V, mat.Lower, nil)
		chol.LTo(L)
		chols[k] = L
	}

	mu, err := regimes[path[0]].Mean()
	if err != nil {
		t.Fatalf("regime mean: %v", err)
	}

	Y := mat.NewDense(T, V, nil)
	for r := 0; r < p; r++ {
		Y.SetRow(r, mu.RawVector().Data)
	}

	z := mat.NewVecDense(V, nil)
	for r := p; r < T; r++ {
		rp := regimes[path[r]]
		for i := 0; i < V; i++ {
			z.SetVec(i, rng.NormFloat64())
		}
		var shock mat.VecDense
		shock.MulVec(chols[path[r]], z)

		for eq := 0; eq < V; eq++ {
			val := rp.C.AtVec(eq) + shock.AtVec(eq)
			for j := 1; j <= p; j++ {
				for k := 0; k < V; k++ {
					val += rp.A[j-1].At(eq, k) * Y.At(r-j, k)
				}
			}
			Y.Set(r, eq, val)
		}
	}

	times := make([]float64, T)
	for i := range times {
		times[i] = float64(i)
	}
	return &TimeSeries{Y: Y, Time: times, VarNames: []string{"production", "price"}}
}

// breakPath is regime 0 before brk and regime 1 from brk on.
func breakPath(T, brk int) []int {
	path := make([]int, T)
	for i := brk; i < T; i++ {
		path[i] = 1
	}
	return path
}

// flatten turns regime parameters into plain slices so they can be compared
// with cmp.
func flatten(regimes []RegimeParams) [][]float64 {
	out := make([][]float64, 0, len(regimes))
	for _, rp := range regimes {
		B := rp.coefficients()
		r, c := B.Dims()
		row := make([]float64, 0, r*c+c*c)
		for i := 0; i < r; i++ {
			row = append(row, B.RawRowView(i)...)
		}
		V := rp.Dim()
		for i := 0; i < V; i++ {
			for j := 0; j < V; j++ {
				row = append(row, rp.Sigma.At(i, j))
			}
		}
		out = append(out, row)
	}
	return out
}

func denseRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
