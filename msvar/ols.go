// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// Relative singular value cut-off for the SVD fallback
	svdRankTol = 1e-12
	// Ridge attempts before a covariance is declared degenerate
	maxRegularizations = 6
	// Covariances with a larger condition number get a ridge
	maxCondition = 1e12
)

// OLSEstimator implements the OLS estimator for single-regime VAR models.
// It is the K=1 reference for the EM estimator and the starting point of
// PerturbedOLSInit.
type OLSEstimator struct{}

// VARFit holds a single-regime VAR estimated by OLS.
type VARFit struct {
	// Params.Sigma is the maximum-likelihood covariance U'U/n
	Params RegimeParams
	// Degrees-of-freedom corrected covariance U'U/(n-m)
	SigmaU *mat.SymDense
	// Residuals (n x V)
	Residuals *mat.Dense
	// Standard errors in the m x V coefficient layout, nil when X'X is singular
	StdErrors *mat.Dense
}

// Estimate computes the VAR model parameters using OLS
// ts: TimeSeries struct containing the data
// lags: lag order p
// Returns: VARFit containing the estimated model
func (e *OLSEstimator) Estimate(ts *TimeSeries, lags int) (*VARFit, error) {
	if ts == nil || ts.Y == nil {
		return nil, configErr("data", "time series data not provided")
	}
	if err := checkFinite(ts.Y); err != nil {
		return nil, err
	}
	d, err := NewDesign(ts.Y, lags)
	if err != nil {
		return nil, err
	}
	return e.estimateDesign(d)
}

func (e *OLSEstimator) estimateDesign(d *Design) (*VARFit, error) {
	B, xtxInv, err := leastSquares(d.X, d.Y)
	if err != nil {
		return nil, err
	}

	U := d.residuals(B)
	n, m := d.X.Dims()

	sigmaML, _ := weightedCovariance(U, nil)
	sigmaML, _, ok := ensurePositiveDefinite(sigmaML)
	if !ok {
		return nil, fmt.Errorf("OLS residual covariance is singular")
	}

	df := float64(n - m)
	if df <= 0 {
		df = float64(n) // fallback
	}
	sigmaU := mat.NewSymDense(d.Dim, nil)
	sigmaU.ScaleSym(float64(n)/df, sigmaML)

	var se *mat.Dense
	if xtxInv != nil {
		se = mat.NewDense(m, d.Dim, nil)
		for r := 0; r < m; r++ {
			for v := 0; v < d.Dim; v++ {
				se.Set(r, v, math.Sqrt(math.Max(xtxInv.At(r, r)*sigmaU.At(v, v), 0)))
			}
		}
	}

	return &VARFit{
		Params:    regimeFromCoefficients(B, sigmaML, d.Lags),
		SigmaU:    sigmaU,
		Residuals: U,
		StdErrors: se,
	}, nil
}

// leastSquares solves X B ~= Y. It uses the normal equations when X'X is
// invertible and falls back to a minimum-norm SVD solution otherwise, in
// which case the returned inverse is nil.
func leastSquares(X, Y *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	_, m := X.Dims()
	_, V := Y.Dims()

	// First try: normal equations B = (X'X)^(-1) X'Y
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	xtxError := xtxInv.Inverse(&xtx)

	if xtxError == nil {
		var xty mat.Dense
		xty.Mul(X.T(), Y)
		var B mat.Dense
		B.Mul(&xtxInv, &xty)
		if finiteDense(&B) {
			return &B, &xtxInv, nil
		}
	}

	// Fallback: X'X is singular or badly conditioned.
	// Minimize ||Y - X B||_F with the minimum-norm B.
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("least squares failed: X'X singular and SVD factorization failed: %v", xtxError)
	}

	rank := svd.Rank(svdRankTol)
	if rank == 0 {
		// X is (numerically) all-zero, the minimum-norm solution is B = 0
		return mat.NewDense(m, V, nil), nil, nil
	}

	var B mat.Dense
	svd.SolveTo(&B, Y, rank)
	return &B, nil, nil
}

// weightedLeastSquares solves the regression with observation weights w by
// rescaling each row with sqrt(w_s). It returns the coefficients and the
// unweighted residuals Y - X B.
func weightedLeastSquares(d *Design, w []float64) (*mat.Dense, *mat.Dense, error) {
	n, m := d.X.Dims()
	if len(w) != n {
		return nil, nil, fmt.Errorf("weights length %d does not match %d observations", len(w), n)
	}

	Xw := mat.NewDense(n, m, nil)
	Yw := mat.NewDense(n, d.Dim, nil)
	for s := 0; s < n; s++ {
		sw := math.Sqrt(math.Max(w[s], 0))
		for c := 0; c < m; c++ {
			Xw.Set(s, c, sw*d.X.At(s, c))
		}
		for v := 0; v < d.Dim; v++ {
			Yw.Set(s, v, sw*d.Y.At(s, v))
		}
	}

	B, _, err := leastSquares(Xw, Yw)
	if err != nil {
		return nil, nil, err
	}
	return B, d.residuals(B), nil
}

// weightedCovariance returns sum_s w_s u_s u_s' / sum_s w_s and the total
// weight. A nil w weights every row by one.
func weightedCovariance(U *mat.Dense, w []float64) (*mat.SymDense, float64) {
	n, V := U.Dims()
	S := mat.NewSymDense(V, nil)

	total := 0.0
	for s := 0; s < n; s++ {
		ws := 1.0
		if w != nil {
			ws = math.Max(w[s], 0)
		}
		if ws == 0 {
			continue
		}
		total += ws
		row := U.RawRowView(s)
		for i := 0; i < V; i++ {
			for j := i; j < V; j++ {
				S.SetSym(i, j, S.At(i, j)+ws*row[i]*row[j])
			}
		}
	}

	if total > 0 {
		S.ScaleSym(1/total, S)
	}
	return S, total
}

// ensurePositiveDefinite returns sigma unchanged when it factorizes with a
// condition number of at most maxCondition, otherwise a copy with a growing
// ridge on the diagonal. The int is the number of ridge attempts used; ok is
// false when none of them produced a well-conditioned SPD matrix.
func ensurePositiveDefinite(sigma *mat.SymDense) (*mat.SymDense, int, bool) {
	V := sigma.SymmetricDim()
	for i := 0; i < V; i++ {
		for j := i; j < V; j++ {
			v := sigma.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, false
			}
		}
	}

	var chol mat.Cholesky
	if wellConditioned(&chol, sigma) {
		return sigma, 0, true
	}

	scale := mat.Trace(sigma)/float64(V) + 1e-8
	if scale < 1e-8 {
		scale = 1e-8
	}
	eps := 1e-8
	for attempt := 1; attempt <= maxRegularizations; attempt++ {
		reg := mat.NewSymDense(V, nil)
		reg.CopySym(sigma)
		for i := 0; i < V; i++ {
			reg.SetSym(i, i, reg.At(i, i)+eps*scale)
		}
		if wellConditioned(&chol, reg) {
			return reg, attempt, true
		}
		eps *= 100
	}
	return nil, maxRegularizations, false
}

func wellConditioned(chol *mat.Cholesky, sigma *mat.SymDense) bool {
	return chol.Factorize(sigma) && chol.Cond() <= maxCondition
}

func finiteDense(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
