// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// result freezes an EM state into a FitResult. Everything is copied so the
// result shares no storage with the estimator.
func (e *EMEstimator) result(ts *TimeSeries, d *Design, st *emState, history []float64, warnings Warnings, status FitStatus) *FitResult {
	regimes := make([]RegimeParams, len(st.regimes))
	for k, rp := range st.regimes {
		regimes[k] = rp.Clone()
	}

	n := d.Len()
	times := make([]float64, n)
	for s := 0; s < n; s++ {
		if len(ts.Time) == ts.Y.RawMatrix().Rows {
			times[s] = ts.Time[s+d.Lags]
		} else {
			times[s] = float64(s + d.Lags)
		}
	}

	K := len(regimes)
	V := d.Dim
	numParams := K*(d.NumRegressors()*V+V*(V+1)/2) + K*(K-1)

	return &FitResult{
		Regimes:       regimes,
		Chain:         st.chain.Clone(),
		Filtered:      mat.DenseCopyOf(st.filtered),
		Smoothed:      mat.DenseCopyOf(st.smoothed),
		LogLikelihood: st.logLik,
		LogLikHistory: append([]float64(nil), history...),
		Iterations:    len(history),
		Converged:     status == StatusConverged,
		Status:        status,
		Warnings:      warnings,
		Lags:          d.Lags,
		VarNames:      append([]string(nil), ts.VarNames...),
		Time:          times,
		NumParams:     numParams,
		AIC:           -2*st.logLik + 2*float64(numParams),
		BIC:           -2*st.logLik + float64(numParams)*math.Log(float64(n)),
	}
}

// Returns the number of regimes K
func (fr *FitResult) NumRegimes() int { return len(fr.Regimes) }

// TimeIndex returns the time index aligned with the rows of Smoothed.
func (fr *FitResult) TimeIndex() []float64 { return append([]float64(nil), fr.Time...) }

// MostLikelyRegimes returns, for every period, the regime with the largest
// smoothed probability.
func (fr *FitResult) MostLikelyRegimes() []int {
	n, K := fr.Smoothed.Dims()
	out := make([]int, n)
	for s := 0; s < n; s++ {
		row := fr.Smoothed.RawRowView(s)
		best := 0
		for k := 1; k < K; k++ {
			if row[k] > row[best] {
				best = k
			}
		}
		out[s] = best
	}
	return out
}

// Summary builds the per-regime analysis view of the fit.
func (fr *FitResult) Summary() *RegimeSummary {
	K := fr.NumRegimes()
	durations := fr.Chain.ExpectedDurations()
	stationary := fr.Chain.Stationary()
	n, _ := fr.Smoothed.Dims()

	out := &RegimeSummary{
		Regimes:       make([]RegimeReport, K),
		Transition:    mat.DenseCopyOf(fr.Chain.P),
		LogLikelihood: fr.LogLikelihood,
		AIC:           fr.AIC,
		BIC:           fr.BIC,
		Iterations:    fr.Iterations,
		Converged:     fr.Converged,
		Status:        fr.Status,
	}

	col := make([]float64, n)
	for k := 0; k < K; k++ {
		mat.Col(col, k, fr.Smoothed)
		share := 0.0
		for _, v := range col {
			share += v
		}

		rep := RegimeReport{
			Index:            k,
			Params:           fr.Regimes[k].Clone(),
			ExpectedDuration: durations[k],
			StationaryProb:   stationary[k],
			Share:            share / float64(n),
		}
		if mu, err := fr.Regimes[k].Mean(); err == nil {
			rep.Mean = mu.RawVector().Data
		}
		out.Regimes[k] = rep
	}
	return out
}
