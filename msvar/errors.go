// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import "fmt"

// ConfigurationError reports an invalid regime count, lag order, variable
// list or input series. It is raised before any numeric work starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("msvar: invalid %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConvergenceError is returned alongside a best-effort FitResult when EM ran
// out of iterations before the log-likelihood settled.
type ConvergenceError struct {
	Iterations int
	LastDelta  float64
	Tol        float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("msvar: EM did not converge after %d iterations (last log-likelihood change %.3g, tol %.3g)",
		e.Iterations, e.LastDelta, e.Tol)
}

// DegenerateRegimeError reports a regime whose weighted data collapsed so far
// that its covariance could not be made positive definite. StartPeriod and
// EndPeriod are row indices of the input series.
type DegenerateRegimeError struct {
	Regime       int
	StartPeriod  int
	EndPeriod    int
	EffectiveObs float64
	Iteration    int
}

func (e *DegenerateRegimeError) Error() string {
	return fmt.Sprintf("msvar: regime %d degenerate at iteration %d (periods %d-%d, %.3g effective observations)",
		e.Regime, e.Iteration, e.StartPeriod, e.EndPeriod, e.EffectiveObs)
}

// InvalidStateError reports a facade operation called out of order.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("msvar: cannot %s: %s", e.Op, e.Reason)
}

// InconsistencyError signals that the log-likelihood fell between two EM
// iterations by more than the tolerance, which exact EM never does.
type InconsistencyError struct {
	Iteration int
	Previous  float64
	Current   float64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("msvar: log-likelihood decreased at iteration %d (%.10g -> %.10g)",
		e.Iteration, e.Previous, e.Current)
}
