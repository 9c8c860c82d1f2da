// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Returns the lag order p
func (rp RegimeParams) Lags() int { return len(rp.A) }

// Returns the number of variables V
func (rp RegimeParams) Dim() int {
	if rp.C == nil {
		return 0
	}
	return rp.C.Len()
}

// Clone returns a deep copy so snapshots never share storage with the
// estimator's working set.
func (rp RegimeParams) Clone() RegimeParams {
	out := RegimeParams{A: make([]*mat.Dense, len(rp.A))}
	if rp.C != nil {
		out.C = mat.VecDenseCopyOf(rp.C)
	}
	for j, Aj := range rp.A {
		out.A[j] = mat.DenseCopyOf(Aj)
	}
	if rp.Sigma != nil {
		out.Sigma = mat.NewSymDense(rp.Sigma.SymmetricDim(), nil)
		out.Sigma.CopySym(rp.Sigma)
	}
	return out
}

// coefficients stacks the parameters into the m x V layout used by the
// regressions: row 0 is the intercept, then one V-row block per lag.
func (rp RegimeParams) coefficients() *mat.Dense {
	V := rp.Dim()
	p := rp.Lags()
	B := mat.NewDense(1+p*V, V, nil)
	for eq := 0; eq < V; eq++ {
		B.Set(0, eq, rp.C.AtVec(eq))
	}
	for j := 0; j < p; j++ {
		rowOffset := 1 + j*V
		for eq := 0; eq < V; eq++ {
			for colVar := 0; colVar < V; colVar++ {
				B.Set(rowOffset+colVar, eq, rp.A[j].At(eq, colVar))
			}
		}
	}
	return B
}

// regimeFromCoefficients splits B back into C and the A_j's.
func regimeFromCoefficients(B *mat.Dense, sigma *mat.SymDense, lags int) RegimeParams {
	_, V := B.Dims()

	C := mat.NewVecDense(V, nil)
	for eq := 0; eq < V; eq++ {
		C.SetVec(eq, B.At(0, eq))
	}

	A := make([]*mat.Dense, lags)
	for j := 0; j < lags; j++ {
		Aj := mat.NewDense(V, V, nil)
		rowOffset := 1 + j*V // start row of this lag block in B

		for eq := 0; eq < V; eq++ {
			for colVar := 0; colVar < V; colVar++ {
				Aj.Set(eq, colVar, B.At(rowOffset+colVar, eq))
			}
		}
		A[j] = Aj
	}

	return RegimeParams{C: C, A: A, Sigma: sigma}
}

// Mean returns the unconditional mean of the regime's VAR, mu = (I - sum A_j)^-1 C.
// It fails when I - sum A_j is singular (a unit root in the regime).
func (rp RegimeParams) Mean() (*mat.VecDense, error) {
	V := rp.Dim()
	if V == 0 {
		return nil, fmt.Errorf("regime parameters not set")
	}

	M := mat.NewDense(V, V, nil)
	for i := 0; i < V; i++ {
		M.Set(i, i, 1)
	}
	for _, Aj := range rp.A {
		M.Sub(M, Aj)
	}

	var mu mat.VecDense
	if err := mu.SolveVec(M, rp.C); err != nil {
		return nil, fmt.Errorf("regime has no finite mean: %w", err)
	}
	return &mu, nil
}

// validate checks dimensions against V and p.
func (rp RegimeParams) validate(V, lags int) error {
	if rp.C == nil || rp.C.Len() != V {
		return fmt.Errorf("intercept must have length %d", V)
	}
	if len(rp.A) != lags {
		return fmt.Errorf("expected %d lag matrices, got %d", lags, len(rp.A))
	}
	for j, Aj := range rp.A {
		if Aj == nil {
			return fmt.Errorf("lag matrix %d is nil", j+1)
		}
		if r, c := Aj.Dims(); r != V || c != V {
			return fmt.Errorf("lag matrix %d is %dx%d, want %dx%d", j+1, r, c, V, V)
		}
	}
	if rp.Sigma == nil || rp.Sigma.SymmetricDim() != V {
		return fmt.Errorf("covariance must be %dx%d", V, V)
	}
	var chol mat.Cholesky
	if !chol.Factorize(rp.Sigma) {
		return fmt.Errorf("covariance is not positive definite")
	}
	return nil
}
