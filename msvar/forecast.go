// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"gonum.org/v1/gonum/mat"
)

// ForecastResult holds multi-step forecasts from a fitted model.
type ForecastResult struct {
	// Point forecasts, steps x V
	Mean *mat.Dense
	// Predicted regime probabilities, steps x K
	RegimeProbs *mat.Dense
}

// Forecast produces multi-step ahead forecasts given the historical data of
// yHist (rows: time, cols: variables). Only the last p rows are used as lags.
// The regime distribution starts from the last filtered probabilities and is
// propagated through P; each step's forecast is the probability-weighted
// average of the regime equations applied to the previous forecasts.
func Forecast(fit *FitResult, yHist *mat.Dense, steps int) (*ForecastResult, error) {
	if fit == nil || len(fit.Regimes) == 0 || fit.Filtered == nil {
		return nil, &InvalidStateError{Op: "forecast", Reason: "model not fitted"}
	}
	if steps <= 0 {
		return nil, configErr("periods", "must be > 0, got %d", steps)
	}
	if yHist == nil {
		return nil, configErr("data", "no history to forecast from")
	}

	K := len(fit.Regimes)
	p := fit.Regimes[0].Lags()
	V := fit.Regimes[0].Dim()
	T, cols := yHist.Dims()
	if cols != V {
		return nil, configErr("data", "history has %d variables, model has %d", cols, V)
	}
	if T < p {
		return nil, configErr("data", "need at least %d rows of history, got %d", p, T)
	}

	// Lags first, forecasts appended below them
	path := mat.NewDense(p+steps, V, nil)
	for i := 0; i < p; i++ {
		path.SetRow(i, yHist.RawRowView(T-p+i))
	}

	n, _ := fit.Filtered.Dims()
	prev := append([]float64(nil), fit.Filtered.RawRowView(n-1)...)
	probs := make([]float64, K)

	out := &ForecastResult{
		Mean:        mat.NewDense(steps, V, nil),
		RegimeProbs: mat.NewDense(steps, K, nil),
	}
	regimeVal := make([]float64, V)
	for step := 0; step < steps; step++ {
		fit.Chain.predict(prev, probs)
		normalizeSum(probs)

		row := p + step
		mean := make([]float64, V)
		for k, rp := range fit.Regimes {
			if probs[k] == 0 {
				continue
			}
			// C_k + sum_j A_kj y_{t-j}
			for eq := 0; eq < V; eq++ {
				val := rp.C.AtVec(eq)
				for lag := 1; lag <= p; lag++ {
					A := rp.A[lag-1]
					for j := 0; j < V; j++ {
						val += A.At(eq, j) * path.At(row-lag, j)
					}
				}
				regimeVal[eq] = val
			}
			for eq := 0; eq < V; eq++ {
				mean[eq] += probs[k] * regimeVal[eq]
			}
		}

		path.SetRow(row, mean)
		out.Mean.SetRow(step, mean)
		out.RegimeProbs.SetRow(step, probs)
		copy(prev, probs)
	}
	return out, nil
}
