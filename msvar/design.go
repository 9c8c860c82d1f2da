// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Design is the regression form of a series: row s of Y is y_{s+p} and row s
// of X is [1, y_{s+p-1}, ..., y_s]. It is built once per fit and only read
// afterwards, so workers may share it.
type Design struct {
	X    *mat.Dense // n x (1 + p*V)
	Y    *mat.Dense // n x V
	Lags int
	Dim  int
}

// Len returns the number of usable observations n = T - p.
func (d *Design) Len() int {
	n, _ := d.Y.Dims()
	return n
}

// NumRegressors returns m = 1 + p*V.
func (d *Design) NumRegressors() int {
	_, m := d.X.Dims()
	return m
}

// NewDesign builds the lagged regressor and response matrices for y (T x V).
func NewDesign(y *mat.Dense, lags int) (*Design, error) {
	if y == nil {
		return nil, configErr("data", "time series data not provided")
	}
	if lags < 1 {
		return nil, configErr("lags", "lag order must be >= 1, got %d", lags)
	}

	T, V := y.Dims()
	m := 1 + lags*V
	if T-lags <= m {
		return nil, configErr("data", "need more than %d observations for %d lags of %d variables, got %d",
			lags+m, lags, V, T)
	}

	// Usable rows
	Treg := T - lags

	// Response matrix Yreg: rows are y_p, y_{p+1}, ..., y_{T-1}
	Yreg := mat.NewDense(Treg, V, nil)
	X := mat.NewDense(Treg, m, nil)

	for t := 0; t < Treg; t++ {
		for k := 0; k < V; k++ {
			Yreg.Set(t, k, y.At(t+lags, k))
		}

		X.Set(t, 0, 1.0)
		col := 1
		// Lagged Y's: [ y_{t+p-1}, y_{t+p-2}, ..., y_{t+p-p}]
		for j := 1; j <= lags; j++ {
			srcRow := t + lags - j
			for k := 0; k < V; k++ {
				X.Set(t, col, y.At(srcRow, k))
				col++
			}
		}
	}

	return &Design{X: X, Y: Yreg, Lags: lags, Dim: V}, nil
}

// residuals returns U = Y - X B.
func (d *Design) residuals(B *mat.Dense) *mat.Dense {
	var U mat.Dense
	U.Mul(d.X, B)
	U.Sub(d.Y, &U)
	return &U
}

// checkFinite reports the first NaN or Inf in y.
func checkFinite(y *mat.Dense) error {
	T, V := y.Dims()
	for t := 0; t < T; t++ {
		for k := 0; k < V; k++ {
			v := y.At(t, k)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return configErr("data", "non-finite value %v at row %d col %d", v, t, k)
			}
		}
	}
	return nil
}
