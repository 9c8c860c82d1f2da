// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Row sums of a transition matrix may deviate from one by at most this much.
const stochasticTol = 1e-9

// MarkovChain is the hidden regime process. P[i][j] is the probability of
// moving from regime i to regime j between consecutive periods; Initial is
// the distribution of the regime in the first usable period.
type MarkovChain struct {
	P       *mat.Dense
	Initial []float64
}

// NewMarkovChain validates P and the initial distribution. A nil initial
// distribution is replaced by the stationary distribution of P.
func NewMarkovChain(P *mat.Dense, initial []float64) (MarkovChain, error) {
	if P == nil {
		return MarkovChain{}, configErr("transition matrix", "not provided")
	}
	c := MarkovChain{P: mat.DenseCopyOf(P)}
	if initial == nil {
		c.Initial = c.Stationary()
	} else {
		c.Initial = append([]float64(nil), initial...)
	}
	if err := c.Validate(); err != nil {
		return MarkovChain{}, err
	}
	return c, nil
}

// PersistentChain returns a K-regime chain that stays put with probability
// stay and moves uniformly to the other regimes otherwise.
func PersistentChain(k int, stay float64) MarkovChain {
	P := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			switch {
			case k == 1:
				P.Set(i, j, 1)
			case i == j:
				P.Set(i, j, stay)
			default:
				P.Set(i, j, (1-stay)/float64(k-1))
			}
		}
	}
	initial := make([]float64, k)
	for i := range initial {
		initial[i] = 1 / float64(k)
	}
	return MarkovChain{P: P, Initial: initial}
}

// Returns the number of regimes K
func (c MarkovChain) NumRegimes() int {
	if c.P == nil {
		return 0
	}
	k, _ := c.P.Dims()
	return k
}

// Clone returns a deep copy.
func (c MarkovChain) Clone() MarkovChain {
	out := MarkovChain{Initial: append([]float64(nil), c.Initial...)}
	if c.P != nil {
		out.P = mat.DenseCopyOf(c.P)
	}
	return out
}

// Validate checks that P is square and row-stochastic and that Initial is a
// probability vector of matching length.
func (c MarkovChain) Validate() error {
	if c.P == nil {
		return configErr("transition matrix", "not provided")
	}
	r, k := c.P.Dims()
	if r != k {
		return configErr("transition matrix", "must be square, got %dx%d", r, k)
	}
	for i := 0; i < k; i++ {
		row := c.P.RawRowView(i)
		for j, v := range row {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return configErr("transition matrix", "entry (%d,%d) = %v outside [0,1]", i, j, v)
			}
		}
		if sum := floats.Sum(row); math.Abs(sum-1) > stochasticTol {
			return configErr("transition matrix", "row %d sums to %v", i, sum)
		}
	}
	if len(c.Initial) != k {
		return configErr("initial distribution", "length %d does not match %d regimes", len(c.Initial), k)
	}
	for i, v := range c.Initial {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return configErr("initial distribution", "entry %d = %v outside [0,1]", i, v)
		}
	}
	if sum := floats.Sum(c.Initial); math.Abs(sum-1) > stochasticTol {
		return configErr("initial distribution", "sums to %v", sum)
	}
	return nil
}

// predict writes P' prev into dst: the regime distribution one period ahead.
func (c MarkovChain) predict(prev, dst []float64) {
	k := len(prev)
	for j := 0; j < k; j++ {
		dst[j] = 0
	}
	for i := 0; i < k; i++ {
		if prev[i] == 0 {
			continue
		}
		row := c.P.RawRowView(i)
		for j := 0; j < k; j++ {
			dst[j] += prev[i] * row[j]
		}
	}
}

// Stationary returns the ergodic distribution pi solving pi' P = pi'. It falls
// back to the uniform distribution when the chain is reducible and the
// linear system has no unique solution.
func (c MarkovChain) Stationary() []float64 {
	k := c.NumRegimes()
	uniform := make([]float64, k)
	for i := range uniform {
		uniform[i] = 1 / float64(k)
	}
	if k <= 1 {
		return uniform
	}

	// (P' - I) pi = 0 with the last equation replaced by sum(pi) = 1
	M := mat.NewDense(k, k, nil)
	M.CloneFrom(c.P.T())
	for i := 0; i < k; i++ {
		M.Set(i, i, M.At(i, i)-1)
	}
	for j := 0; j < k; j++ {
		M.Set(k-1, j, 1)
	}
	b := mat.NewVecDense(k, nil)
	b.SetVec(k-1, 1)

	var pi mat.VecDense
	if err := pi.SolveVec(M, b); err != nil {
		return uniform
	}

	out := make([]float64, k)
	for i := 0; i < k; i++ {
		v := pi.AtVec(i)
		if math.IsNaN(v) {
			return uniform
		}
		out[i] = math.Max(v, 0)
	}
	if floats.Sum(out) <= 0 {
		return uniform
	}
	normalizeSum(out)
	return out
}

// ExpectedDurations returns 1/(1 - P_ii) for every regime, +Inf for an
// absorbing regime.
func (c MarkovChain) ExpectedDurations() []float64 {
	k := c.NumRegimes()
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		stay := c.P.At(i, i)
		if stay >= 1 {
			out[i] = math.Inf(1)
			continue
		}
		out[i] = 1 / (1 - stay)
	}
	return out
}

// String formats the transition matrix for logs.
func (c MarkovChain) String() string {
	if c.P == nil {
		return "MarkovChain{}"
	}
	return fmt.Sprintf("%v", mat.Formatted(c.P, mat.Prefix(" ")))
}

// normalizeSum scales x in place to sum to one and returns the original sum.
// A zero vector is left unchanged.
func normalizeSum(x []float64) float64 {
	sum := floats.Sum(x)
	if sum > 0 {
		floats.Scale(1/sum, x)
	}
	return sum
}
