// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"context"
	"errors"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Model is the entry point for callers: Build it with data and a
// configuration, Fit it, then ask for the regime summary and impulse
// responses. Only one fit may be in flight per Model.
type Model struct {
	mu sync.Mutex

	data      *TimeSeries
	variables []string
	regimes   int
	lags      int

	built   bool
	fitting bool
	result  *FitResult
}

// NewModel returns an empty model. Call Build before anything else.
func NewModel() *Model {
	return &Model{}
}

// Build validates the configuration and copies the selected variables out of
// ts, in the order given. Any previous fit is discarded. All checks happen
// before numeric work; failures are *ConfigurationError.
func (m *Model) Build(ts *TimeSeries, variables []string, regimes, lags int) error {
	if regimes < 1 {
		return configErr("regimes", "must be >= 1, got %d", regimes)
	}
	if lags < 1 {
		return configErr("lags", "must be >= 1, got %d", lags)
	}
	if len(variables) == 0 {
		return configErr("variables", "variable list is empty")
	}
	if ts == nil || ts.Y == nil {
		return configErr("data", "time series data not provided")
	}

	T, cols := ts.Y.Dims()
	if len(ts.VarNames) != cols {
		return configErr("data", "%d variable names for %d columns", len(ts.VarNames), cols)
	}

	index := make(map[string]int, cols)
	for j, name := range ts.VarNames {
		index[name] = j
	}
	seen := make(map[string]bool, len(variables))
	colIdx := make([]int, len(variables))
	for i, name := range variables {
		if seen[name] {
			return configErr("variables", "duplicate variable %q", name)
		}
		seen[name] = true
		j, ok := index[name]
		if !ok {
			return configErr("variables", "unknown variable %q", name)
		}
		colIdx[i] = j
	}

	if ts.Time != nil {
		if len(ts.Time) != T {
			return configErr("time index", "%d entries for %d rows", len(ts.Time), T)
		}
		for t := 1; t < T; t++ {
			if !(ts.Time[t] > ts.Time[t-1]) {
				return configErr("time index", "not strictly increasing at row %d", t)
			}
		}
	}

	V := len(variables)
	if m := 1 + lags*V; T-lags <= m {
		return configErr("data", "need more than %d observations for %d lags of %d variables, got %d",
			lags+m, lags, V, T)
	}
	if T-lags < regimes {
		return configErr("regimes", "%d regimes for %d usable observations", regimes, T-lags)
	}

	Y := mat.NewDense(T, V, nil)
	for i, j := range colIdx {
		for t := 0; t < T; t++ {
			Y.Set(t, i, ts.Y.At(t, j))
		}
	}
	if err := checkFinite(Y); err != nil {
		return err
	}

	times := make([]float64, T)
	if ts.Time != nil {
		copy(times, ts.Time)
	} else {
		for t := range times {
			times[t] = float64(t)
		}
	}

	data := &TimeSeries{
		Y:        Y,
		Time:     times,
		VarNames: append([]string(nil), variables...),
	}
	if len(ts.Dates) == T {
		data.Dates = append(data.Dates, ts.Dates...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fitting {
		return &InvalidStateError{Op: "build", Reason: "a fit is in progress"}
	}
	m.data = data
	m.variables = data.VarNames
	m.regimes = regimes
	m.lags = lags
	m.built = true
	m.result = nil
	return nil
}

// Fit estimates the model. A result is stored and returned whenever one
// exists, including alongside a *ConvergenceError or a cancellation error.
// A fit that returns no result discards the previous one.
func (m *Model) Fit(ctx context.Context, opts FitOptions) (*FitResult, error) {
	m.mu.Lock()
	if !m.built {
		m.mu.Unlock()
		return nil, &InvalidStateError{Op: "fit", Reason: "model not built, call Build first"}
	}
	if m.fitting {
		m.mu.Unlock()
		return nil, &InvalidStateError{Op: "fit", Reason: "a fit is already in progress"}
	}
	m.fitting = true
	data := m.data
	est := &EMEstimator{Regimes: m.regimes, Lags: m.lags}
	m.mu.Unlock()

	res, err := est.Fit(ctx, data, opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fitting = false
	m.result = res
	return res, err
}

// Result returns the stored fit.
func (m *Model) Result() (*FitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil, m.notFitted("read the fit result")
	}
	return m.result, nil
}

// Variables returns the configured variable names in model order.
func (m *Model) Variables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.variables...)
}

// RegimeSummary returns per-regime parameters, covariances, means and
// durations together with the transition matrix.
func (m *Model) RegimeSummary() (*RegimeSummary, error) {
	res, err := m.Result()
	if err != nil {
		return nil, m.relabel(err, "summarize regimes")
	}
	return res.Summary(), nil
}

// SmoothedProbabilities returns the smoothed regime probabilities and the
// time index of their rows.
func (m *Model) SmoothedProbabilities() (*mat.Dense, []float64, error) {
	res, err := m.Result()
	if err != nil {
		return nil, nil, m.relabel(err, "read smoothed probabilities")
	}
	return mat.DenseCopyOf(res.Smoothed), res.TimeIndex(), nil
}

// ImpulseResponse returns the response of responseVar to a shock in
// impulseVar over periods horizons, holding the given regime fixed.
func (m *Model) ImpulseResponse(impulseVar, responseVar string, periods, regime int, policy ShockPolicy) ([]float64, error) {
	res, err := m.Result()
	if err != nil {
		return nil, m.relabel(err, "compute impulse responses")
	}
	imp, resp, err := m.variablePair(impulseVar, responseVar)
	if err != nil {
		return nil, err
	}
	return ImpulseResponse(res, imp, resp, periods, regime, policy)
}

// ImpulseResponses returns one impulse response series per regime.
func (m *Model) ImpulseResponses(impulseVar, responseVar string, periods int, policy ShockPolicy) ([][]float64, error) {
	res, err := m.Result()
	if err != nil {
		return nil, m.relabel(err, "compute impulse responses")
	}
	imp, resp, err := m.variablePair(impulseVar, responseVar)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, res.NumRegimes())
	for k := range out {
		series, err := ImpulseResponse(res, imp, resp, periods, k, policy)
		if err != nil {
			return nil, err
		}
		out[k] = series
	}
	return out, nil
}

// Forecast predicts steps periods past the end of the fitted data.
func (m *Model) Forecast(steps int) (*ForecastResult, error) {
	res, err := m.Result()
	if err != nil {
		return nil, m.relabel(err, "forecast")
	}
	m.mu.Lock()
	Y := m.data.Y
	m.mu.Unlock()
	return Forecast(res, Y, steps)
}

func (m *Model) variablePair(impulseVar, responseVar string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	imp, resp := -1, -1
	for i, name := range m.variables {
		if name == impulseVar {
			imp = i
		}
		if name == responseVar {
			resp = i
		}
	}
	if imp < 0 {
		return 0, 0, configErr("impulse variable", "unknown variable %q", impulseVar)
	}
	if resp < 0 {
		return 0, 0, configErr("response variable", "unknown variable %q", responseVar)
	}
	return imp, resp, nil
}

// notFitted picks the reason for a missing result. Callers hold m.mu.
func (m *Model) notFitted(op string) error {
	switch {
	case !m.built:
		return &InvalidStateError{Op: op, Reason: "model not built, call Build first"}
	case m.fitting:
		return &InvalidStateError{Op: op, Reason: "a fit is in progress"}
	default:
		return &InvalidStateError{Op: op, Reason: "model not fitted, call Fit first"}
	}
}

// relabel rewrites the operation name of an InvalidStateError.
func (m *Model) relabel(err error, op string) error {
	var ise *InvalidStateError
	if errors.As(err, &ise) {
		return &InvalidStateError{Op: op, Reason: ise.Reason}
	}
	return err
}
