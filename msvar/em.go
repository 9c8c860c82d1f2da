// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/internal/monitoring"
)

// Consecutive settled iterations required to declare convergence
const settledIterations = 2

// withDefaults fills zero-valued options.
func (o FitOptions) withDefaults() FitOptions {
	def := DefaultFitOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = def.Tol
	}
	if o.Init == nil {
		o.Init = KMeansInit{}
	}
	if o.MinEffectiveObs <= 0 {
		o.MinEffectiveObs = def.MinEffectiveObs
	}
	if o.Logf == nil {
		o.Logf = monitoring.Logf
	}
	return o
}

// emState is everything one E-step produced for one parameter set.
type emState struct {
	regimes   []RegimeParams
	chain     MarkovChain
	filtered  *mat.Dense
	smoothed  *mat.Dense
	logLik    float64
	iteration int
}

// Fit estimates the MS-VAR by EM. Each iteration runs the Hamilton filter and
// Kim smoother on the current parameters (E-step), then re-estimates every
// regime by weighted least squares and the chain from the expected
// transition counts (M-step).
//
// When MaxIter runs out the best result seen is returned together with a
// *ConvergenceError. When ctx is cancelled the best result so far is returned,
// tagged StatusCancelled, together with an error wrapping ctx.Err().
func (e *EMEstimator) Fit(ctx context.Context, ts *TimeSeries, opts FitOptions) (*FitResult, error) {
	if e.Regimes < 1 {
		return nil, configErr("regimes", "must be >= 1, got %d", e.Regimes)
	}
	if e.Lags < 1 {
		return nil, configErr("lags", "must be >= 1, got %d", e.Lags)
	}
	if ts == nil || ts.Y == nil {
		return nil, configErr("data", "time series data not provided")
	}
	if err := checkFinite(ts.Y); err != nil {
		return nil, err
	}
	d, err := NewDesign(ts.Y, e.Lags)
	if err != nil {
		return nil, err
	}
	if d.Len() < e.Regimes {
		return nil, configErr("regimes", "%d regimes for %d usable observations", e.Regimes, d.Len())
	}

	opts = opts.withDefaults()
	logf := opts.Logf

	regimes, chain, err := opts.Init.Initialize(d, e.Regimes, newRand(opts.Seed))
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if len(regimes) != e.Regimes {
		return nil, fmt.Errorf("initialize: %s returned %d regimes, want %d", opts.Init.Name(), len(regimes), e.Regimes)
	}
	for k, rp := range regimes {
		if err := rp.validate(d.Dim, d.Lags); err != nil {
			return nil, fmt.Errorf("initialize: regime %d: %w", k, err)
		}
	}
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	logf("msvar: fitting %d regimes, %d lags, %d variables, %d observations (init %s, seed %d)",
		e.Regimes, e.Lags, d.Dim, d.Len(), opts.Init.Name(), opts.Seed)

	var (
		best        *emState
		history     []float64
		warnings    Warnings
		prevLL      = math.Inf(-1)
		lastDelta   = math.Inf(1)
		settled     int
		regularized bool
	)

	for iter := 1; iter <= opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			if best == nil {
				return nil, fmt.Errorf("msvar: fit cancelled before the first iteration: %w", err)
			}
			logf("msvar: fit cancelled after %d iterations, returning best log-likelihood %.6f", best.iteration, best.logLik)
			return e.result(ts, d, best, history, warnings, StatusCancelled), fmt.Errorf("msvar: fit cancelled: %w", err)
		}

		// E-step
		fr, err := filter(d, regimes, chain, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
		sr, err := Smooth(fr.Filtered, chain)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
		if fr.Floored > 0 {
			warnings.DensityFloors += fr.Floored
			logf("msvar: iteration %d floored regime densities in %d periods", iter, fr.Floored)
		}
		if fr.Floored == d.Len() {
			// No period carries information about the regimes
			k := mostFloored(fr.LogDensities)
			return nil, degenerate(d, sr.Smoothed, k, floats.Sum(mat.Col(nil, k, sr.Smoothed)), iter)
		}

		ll := fr.LogLikelihood
		history = append(history, ll)
		if opts.Progress != nil {
			opts.Progress(iter, ll)
		}

		if iter > 1 {
			lastDelta = ll - prevLL
			relaxed, err := checkProgress(iter, prevLL, ll, opts.Tol, regularized)
			if err != nil {
				return nil, err
			}
			if relaxed {
				logf("msvar: iteration %d log-likelihood fell by %.3g after covariance regularization", iter, -lastDelta)
			}
			if math.Abs(lastDelta) < opts.Tol {
				settled++
			} else {
				settled = 0
			}
		}

		if best == nil || ll >= best.logLik {
			best = &emState{
				regimes:   regimes,
				chain:     chain,
				filtered:  fr.Filtered,
				smoothed:  sr.Smoothed,
				logLik:    ll,
				iteration: iter,
			}
		}
		logf("msvar: iteration %d log-likelihood %.6f", iter, ll)

		if settled >= settledIterations {
			logf("msvar: converged after %d iterations, log-likelihood %.6f", iter, ll)
			return e.result(ts, d, best, history, warnings, StatusConverged), nil
		}
		prevLL = ll

		// M-step
		var nreg int
		regimes, chain, nreg, err = e.maximize(d, chain, sr, opts, iter)
		if err != nil {
			return nil, err
		}
		regularized = nreg > 0
		if regularized {
			warnings.CovarianceRegularizations += nreg
			logf("msvar: iteration %d regularized %d regime covariances", iter, nreg)
		}
	}

	logf("msvar: no convergence after %d iterations (last change %.3g)", opts.MaxIter, lastDelta)
	res := e.result(ts, d, best, history, warnings, StatusMaxIterations)
	return res, &ConvergenceError{Iterations: opts.MaxIter, LastDelta: lastDelta, Tol: opts.Tol}
}

// checkProgress enforces the EM ascent property. A log-likelihood drop larger
// than max(tol, 1e-9|ll|) is an *InconsistencyError, unless the previous
// M-step regularized a covariance, in which case relaxed reports the drop.
func checkProgress(iter int, prevLL, ll, tol float64, regularized bool) (relaxed bool, err error) {
	slack := math.Max(tol, 1e-9*math.Abs(ll))
	if ll-prevLL >= -slack {
		return false, nil
	}
	if !regularized {
		return false, &InconsistencyError{Iteration: iter, Previous: prevLL, Current: ll}
	}
	return true, nil
}

// mostFloored is the regime whose log-density hit the floor in the most
// periods, the lowest index on ties.
func mostFloored(logDens *mat.Dense) int {
	n, K := logDens.Dims()
	counts := make([]float64, K)
	for s := 0; s < n; s++ {
		for k, v := range logDens.RawRowView(s) {
			if v == logDensityFloor {
				counts[k]++
			}
		}
	}
	return floats.MaxIdx(counts)
}

// maximize is the M-step. Regimes are re-estimated in parallel from the same
// smoothed probabilities and merged once all of them finished. It returns the
// new parameters, the new chain and the number of regularized covariances.
func (e *EMEstimator) maximize(d *Design, chain MarkovChain, sr *SmoothResult, opts FitOptions, iter int) ([]RegimeParams, MarkovChain, int, error) {
	n := d.Len()
	K := e.Regimes
	next := make([]RegimeParams, K)
	ridge := make([]int, K)

	err := forEachRegime(K, opts.Workers, func(k int) error {
		w := make([]float64, n)
		mat.Col(w, k, sr.Smoothed)

		if eff := floats.Sum(w); eff < opts.MinEffectiveObs {
			return degenerate(d, sr.Smoothed, k, eff, iter)
		}

		B, U, err := weightedLeastSquares(d, w)
		if err != nil {
			return fmt.Errorf("iteration %d, regime %d: %w", iter, k, err)
		}
		sigma, eff := weightedCovariance(U, w)
		sigma, attempts, ok := ensurePositiveDefinite(sigma)
		if !ok {
			return degenerate(d, sr.Smoothed, k, eff, iter)
		}
		ridge[k] = attempts
		next[k] = regimeFromCoefficients(B, sigma, d.Lags)
		return nil
	})
	if err != nil {
		return nil, MarkovChain{}, 0, err
	}

	nreg := 0
	for _, a := range ridge {
		if a > 0 {
			nreg++
		}
	}

	// Transition rows from the expected transition counts
	P := mat.DenseCopyOf(sr.TransitionCounts)
	for i := 0; i < K; i++ {
		row := P.RawRowView(i)
		if normalizeSum(row) <= 0 {
			// Regime never left in expectation, keep the previous row
			copy(row, chain.P.RawRowView(i))
		}
	}

	initial := make([]float64, K)
	copy(initial, sr.Smoothed.RawRowView(0))
	normalizeSum(initial)

	return next, MarkovChain{P: P, Initial: initial}, nreg, nil
}

// degenerate builds the error for regime k, naming the stretch of the sample
// where k holds the largest smoothed probability.
func degenerate(d *Design, smoothed *mat.Dense, k int, eff float64, iter int) error {
	n, _ := smoothed.Dims()
	start, end := -1, -1
	for s := 0; s < n; s++ {
		if floats.MaxIdx(smoothed.RawRowView(s)) == k {
			if start < 0 {
				start = s
			}
			end = s
		}
	}
	if start < 0 {
		start, end = 0, n-1
	}
	return &DegenerateRegimeError{
		Regime:       k,
		StartPeriod:  start + d.Lags,
		EndPeriod:    end + d.Lags,
		EffectiveObs: eff,
		Iteration:    iter,
	}
}
