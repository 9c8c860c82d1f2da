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
	"gonum.org/v1/gonum/stat/distmv"
)

// DensityFloor replaces regime densities that evaluate to zero (or NaN) in the
// filter. Every period where it is applied is counted in FilterResult.Floored.
const DensityFloor = 1e-300

var logDensityFloor = math.Log(DensityFloor)

// FilterResult is the output of the Hamilton filter. Row s of every matrix
// refers to observation row s+p of the input series.
type FilterResult struct {
	// P(S_s = k | y_1..y_s)
	Filtered *mat.Dense
	// P(S_s = k | y_1..y_{s-1})
	Predicted *mat.Dense
	// log f(y_s | S_s = k, y_{s-1}, ...)
	LogDensities *mat.Dense

	LogLikelihood float64
	// Number of periods where a density floor was applied
	Floored int
}

// HamiltonFilter runs the filter over a series for the given regime parameters
// and Markov chain. The first lags rows of ts are used only as lag context.
func HamiltonFilter(ts *TimeSeries, regimes []RegimeParams, chain MarkovChain, workers int) (*FilterResult, error) {
	if ts == nil || ts.Y == nil {
		return nil, configErr("data", "time series data not provided")
	}
	if len(regimes) == 0 {
		return nil, configErr("regimes", "no regime parameters given")
	}
	if err := checkFinite(ts.Y); err != nil {
		return nil, err
	}
	d, err := NewDesign(ts.Y, regimes[0].Lags())
	if err != nil {
		return nil, err
	}
	for k, rp := range regimes {
		if err := rp.validate(d.Dim, d.Lags); err != nil {
			return nil, configErr("regime parameters", "regime %d: %v", k, err)
		}
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if chain.NumRegimes() != len(regimes) {
		return nil, configErr("transition matrix", "has %d regimes, parameters have %d",
			chain.NumRegimes(), len(regimes))
	}
	return filter(d, regimes, chain, workers)
}

// logDensities evaluates log N(y_s; x_s'B_k, Sigma_k) for every period and
// regime. Each regime is one job; workers only write their own column.
func logDensities(d *Design, regimes []RegimeParams, workers int) (*mat.Dense, error) {
	n := d.Len()
	K := len(regimes)
	out := mat.NewDense(n, K, nil)
	zero := make([]float64, d.Dim)

	err := forEachRegime(K, workers, func(k int) error {
		rp := regimes[k]
		normal, ok := distmv.NewNormal(zero, rp.Sigma, nil)
		if !ok {
			return fmt.Errorf("regime %d covariance is not positive definite", k)
		}
		U := d.residuals(rp.coefficients())
		for s := 0; s < n; s++ {
			out.Set(s, k, normal.LogProb(U.RawRowView(s)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// filter is the Hamilton recursion on a prepared design.
func filter(d *Design, regimes []RegimeParams, chain MarkovChain, workers int) (*FilterResult, error) {
	logDens, err := logDensities(d, regimes, workers)
	if err != nil {
		return nil, err
	}

	n := d.Len()
	K := len(regimes)
	res := &FilterResult{
		Filtered:     mat.NewDense(n, K, nil),
		Predicted:    mat.NewDense(n, K, nil),
		LogDensities: logDens,
	}

	pred := append([]float64(nil), chain.Initial...)
	eta := make([]float64, K)
	joint := make([]float64, K)

	for s := 0; s < n; s++ {
		if s > 0 {
			chain.predict(res.Filtered.RawRowView(s-1), pred)
		}
		res.Predicted.SetRow(s, pred)

		ld := logDens.RawRowView(s)
		floored := false
		for k := 0; k < K; k++ {
			if math.IsNaN(ld[k]) || math.IsInf(ld[k], -1) {
				ld[k] = logDensityFloor
				floored = true
			}
		}

		// This shift does not change the result due to scale invariance
		mx := floats.Max(ld)
		for k := 0; k < K; k++ {
			eta[k] = math.Exp(ld[k] - mx)
			joint[k] = pred[k] * eta[k]
		}
		f := floats.Sum(joint)

		// Every regime with prior mass has a vanishing density
		if !(f > 0) || math.IsInf(f, 0) {
			for k := 0; k < K; k++ {
				joint[k] = pred[k] * math.Max(eta[k], DensityFloor)
			}
			f = floats.Sum(joint)
			floored = true
		}
		if !(f > 0) {
			return nil, fmt.Errorf("filter: predicted regime probabilities vanish at period %d", s+d.Lags)
		}
		if floored {
			res.Floored++
		}

		floats.Scale(1/f, joint)
		res.Filtered.SetRow(s, joint)
		res.LogLikelihood += mx + math.Log(f)
	}

	return res, nil
}
