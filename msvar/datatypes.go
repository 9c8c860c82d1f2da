// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"context"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Simple struct for time series data
type TimeSeries struct {
	// Matrix for data, rows are time points and columns are variables
	Y *mat.Dense
	// Strictly increasing time index, one entry per row
	Time []float64
	// Calendar dates for each row, nil when the source had no date column
	Dates []time.Time
	// List of variable Names
	VarNames []string
}

// RegimeParams holds the VAR dynamics of a single regime:
// y_t = C + A_1 y_{t-1} + ... + A_p y_{t-p} + u_t,  u_t ~ N(0, Sigma).
type RegimeParams struct {
	// Intercept (V)
	C *mat.VecDense
	// Coefficient matrices for each lag A_1, A_2, etc (each VxV matrix)
	A []*mat.Dense
	// Covariance of residuals (VxV), always positive definite
	Sigma *mat.SymDense
}

// FitStatus tells how an EM run ended.
type FitStatus int

const (
	StatusConverged FitStatus = iota
	StatusMaxIterations
	StatusCancelled
)

func (s FitStatus) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIterations:
		return "max-iterations"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Warnings counts the numerical safeguards that fired during a fit.
type Warnings struct {
	// Regime densities floored to DensityFloor in the filter
	DensityFloors int
	// Covariance updates that needed a ridge on the diagonal
	CovarianceRegularizations int
}

// Initializer produces starting parameters for EM. Implementations must be
// deterministic for a given rng state.
type Initializer interface {
	Initialize(d *Design, regimes int, rng *rand.Rand) ([]RegimeParams, MarkovChain, error)
	Name() string
}

// FitOptions controls a single EM run.
type FitOptions struct {
	// Maximum number of EM iterations
	MaxIter int
	// Log-likelihood change below which an iteration counts as settled
	Tol float64
	// RNG seed for the initializer
	Seed int64
	// Starting-value policy, KMeansInit when nil
	Init Initializer
	// Goroutines used for per-regime work, 0 means runtime.NumCPU()
	Workers int
	// Regimes whose total posterior mass falls below this are degenerate
	MinEffectiveObs float64
	// Diagnostic logger, monitoring.Logf when nil
	Logf func(format string, v ...interface{})
	// Called after every E-step, may be nil
	Progress func(iteration int, logLik float64)
}

// DefaultFitOptions returns the options used when the caller has no preference.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIter:         200,
		Tol:             1e-6,
		Seed:            1,
		MinEffectiveObs: 1e-3,
	}
}

// EMEstimator fits an MS-VAR with a fixed number of regimes and lags.
type EMEstimator struct {
	Regimes int
	Lags    int
}

// Estimator is the interface for an MS-VAR estimator.
type Estimator interface {
	Fit(ctx context.Context, ts *TimeSeries, opts FitOptions) (*FitResult, error)
}

// FitResult bundles everything an EM run produced. It is never modified after
// the estimator returns it.
type FitResult struct {
	// Per-regime parameters
	Regimes []RegimeParams
	// Transition matrix and initial regime distribution
	Chain MarkovChain
	// Filtered and smoothed regime probabilities, (T-p) x K
	Filtered *mat.Dense
	Smoothed *mat.Dense

	LogLikelihood float64
	// Log-likelihood after every E-step, oldest first
	LogLikHistory []float64
	Iterations    int
	Converged     bool
	Status        FitStatus
	Warnings      Warnings

	Lags     int
	VarNames []string
	// Time index of the observations the probabilities refer to
	Time []float64

	NumParams int
	AIC       float64
	BIC       float64
}

// RegimeReport describes one regime in a RegimeSummary.
type RegimeReport struct {
	Index  int
	Params RegimeParams
	// Unconditional mean (I - sum A_j)^-1 C, nil when the regime is not stationary
	Mean []float64
	// Expected number of periods spent in the regime once entered
	ExpectedDuration float64
	// Ergodic probability of the regime
	StationaryProb float64
	// Average smoothed probability over the sample
	Share float64
}

// RegimeSummary is the analysis view of a fitted model.
type RegimeSummary struct {
	Regimes       []RegimeReport
	Transition    *mat.Dense
	LogLikelihood float64
	AIC           float64
	BIC           float64
	Iterations    int
	Converged     bool
	Status        FitStatus
}
