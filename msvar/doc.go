// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

// Package msvar estimates Markov-switching vector autoregressions.
//
// Every regime k carries its own VAR(p):
//
//	y_t = C_k + A_k1 y_{t-1} + ... + A_kp y_{t-p} + u_t,  u_t ~ N(0, Sigma_k)
//
// and the active regime follows a first-order Markov chain with transition
// matrix P. Parameters are fitted by expectation maximization: the Hamilton
// filter and Kim smoother give regime probabilities, weighted least squares
// and the expected transition counts update the parameters.
//
// # Fitting
//
// The Model type validates the configuration before any numeric work and
// keeps one fit per instance:
//
//	m := msvar.NewModel()
//	if err := m.Build(ts, []string{"production", "consumption", "price"}, 2, 1); err != nil {
//	    return err
//	}
//	res, err := m.Fit(ctx, msvar.DefaultFitOptions())
//
// A *ConvergenceError or a cancelled context still returns the best result
// seen so far. EMEstimator, HamiltonFilter and Smooth can be used directly
// when the facade is not wanted.
//
// # Analysis
//
//	summary, _ := m.RegimeSummary()
//	irfs, _ := m.ImpulseResponses("price", "production", 20, msvar.ShockUnit)
//	fc, _ := m.Forecast(12)
//
// Impulse responses hold the regime fixed over the whole horizon.
package msvar
