// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Predicted probabilities below this are treated as zero in the smoother
const minPredicted = 1e-300

// SmoothResult is the output of the Kim smoother.
type SmoothResult struct {
	// P(S_s = k | whole sample), same row layout as the filter output
	Smoothed *mat.Dense
	// Sum over s of P(S_s = i, S_{s+1} = j | whole sample), K x K
	TransitionCounts *mat.Dense
}

// Smooth runs the Kim backward recursion on filtered probabilities:
//
//	smoothed[n-1] = filtered[n-1]
//	smoothed[s]_i = filtered[s]_i * sum_j P_ij smoothed[s+1]_j / predicted[s+1]_j
//
// where predicted[s+1] = P' filtered[s]. The joint two-period probabilities
// are accumulated on the way for the transition-matrix update.
func Smooth(filtered *mat.Dense, chain MarkovChain) (*SmoothResult, error) {
	if filtered == nil {
		return nil, configErr("filtered probabilities", "not provided")
	}
	n, K := filtered.Dims()
	if n == 0 {
		return nil, configErr("filtered probabilities", "empty")
	}
	if chain.NumRegimes() != K {
		return nil, configErr("transition matrix", "has %d regimes, filtered probabilities have %d",
			chain.NumRegimes(), K)
	}

	smoothed := mat.NewDense(n, K, nil)
	counts := mat.NewDense(K, K, nil)
	smoothed.SetRow(n-1, filtered.RawRowView(n-1))

	pred := make([]float64, K)
	ratio := make([]float64, K)
	row := make([]float64, K)

	for s := n - 2; s >= 0; s-- {
		filt := filtered.RawRowView(s)
		next := smoothed.RawRowView(s + 1)
		chain.predict(filt, pred)

		for j := 0; j < K; j++ {
			if pred[j] < minPredicted {
				ratio[j] = 0
				continue
			}
			ratio[j] = next[j] / pred[j]
		}

		for i := 0; i < K; i++ {
			row[i] = 0
			if filt[i] == 0 {
				continue
			}
			Prow := chain.P.RawRowView(i)
			for j := 0; j < K; j++ {
				joint := filt[i] * Prow[j] * ratio[j]
				row[i] += joint
				counts.Set(i, j, counts.At(i, j)+joint)
			}
		}

		if normalizeSum(row) <= 0 {
			return nil, fmt.Errorf("smoother: regime probabilities vanish at period %d", s)
		}
		smoothed.SetRow(s, row)
	}

	return &SmoothResult{Smoothed: smoothed, TransitionCounts: counts}, nil
}
