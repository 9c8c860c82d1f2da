// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

// Package report prints, exports and plots fitted MS-VAR models.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// IRFSeries is one impulse response path under a fixed regime.
type IRFSeries struct {
	Impulse  string
	Response string
	Regime   int
	Values   []float64
}

// PrintSummary writes a regime analysis table: fit statistics, the
// transition matrix, and per regime the intercepts, lag matrices, residual
// covariance, unconditional mean and expected duration.
func PrintSummary(w io.Writer, s *msvar.RegimeSummary, varNames []string) error {
	if s == nil {
		_, err := fmt.Fprintln(w, "MS-VAR model is not fitted")
		return err
	}

	ew := &errWriter{w: w}
	K := len(s.Regimes)
	p, V := 0, 0
	if K > 0 {
		p = s.Regimes[0].Params.Lags()
		V = s.Regimes[0].Params.Dim()
	}

	ew.println("         Markov-Switching VAR Summary      ")
	ew.printf("Number of regimes (K):   %d\n", K)
	ew.printf("Number of variables (V): %d\n", V)
	ew.printf("Lag order (p):           %d\n", p)
	if len(varNames) > 0 {
		ew.printf("Variables:               %s\n", strings.Join(varNames, ", "))
	}
	ew.printf("Log-likelihood:          %.4f\n", s.LogLikelihood)
	ew.printf("AIC / BIC:               %.4f / %.4f\n", s.AIC, s.BIC)
	ew.printf("EM iterations:           %d (%s)\n", s.Iterations, s.Status)
	ew.println()

	ew.println("Transition matrix P (row = from, column = to):")
	ew.printf("%v\n", mat.Formatted(s.Transition, mat.Prefix("  ")))
	ew.println()

	for _, r := range s.Regimes {
		ew.printf("=== Regime %d ===\n", r.Index)
		ew.printf("Expected duration:   %s periods\n", formatDuration(r.ExpectedDuration))
		ew.printf("Stationary prob.:    %.4f\n", r.StationaryProb)
		ew.printf("Share of sample:     %.4f\n", r.Share)

		if r.Params.C != nil {
			ew.println("Intercept C:")
			ew.printf("%v\n", mat.Formatted(r.Params.C.T(), mat.Prefix("  ")))
		}
		for j, Aj := range r.Params.A {
			ew.printf("\nA_%d =\n", j+1)
			ew.printf("%v\n", mat.Formatted(Aj, mat.Prefix("  ")))
		}
		if r.Params.Sigma != nil {
			ew.println("\nResidual covariance matrix Σ:")
			ew.printf("%v\n", mat.Formatted(r.Params.Sigma, mat.Prefix("  ")))
		}

		if r.Mean != nil {
			ew.println("\nUnconditional mean:")
			for i, mu := range r.Mean {
				ew.printf("  %-20s %12.6f\n", varName(varNames, i), mu)
			}
		} else {
			ew.println("\nUnconditional mean: undefined (unit root)")
		}
		ew.println()
	}

	ew.println("=======================================")
	return ew.err
}

// PrintIRF writes one impulse response matrix as a horizon-by-variable table.
func PrintIRF(w io.Writer, irf *mat.Dense, varNames []string, impulse, regime int) error {
	ew := &errWriter{w: w}
	rows, cols := irf.Dims()

	ew.printf("\n=== Impulse Response Function (regime %d) ===\n", regime)
	ew.printf("Shock to variable %d (%s)\n\n", impulse, varName(varNames, impulse))

	// Print header
	ew.printf("h\t")
	for j := 0; j < cols; j++ {
		ew.printf("%12s", varName(varNames, j))
	}
	ew.println()

	// Print rows
	for h := 0; h < rows; h++ {
		ew.printf("%d\t", h)
		for j := 0; j < cols; j++ {
			ew.printf("%12.6f", irf.At(h, j))
		}
		ew.println()
	}
	return ew.err
}

func formatDuration(d float64) string {
	if math.IsInf(d, 1) {
		return "inf (absorbing)"
	}
	return fmt.Sprintf("%.2f", d)
}

func varName(names []string, j int) string {
	if j >= 0 && j < len(names) {
		return names[j]
	}
	return fmt.Sprintf("Var%d", j+1)
}

// errWriter keeps the first write error so the table code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, args...)
}
