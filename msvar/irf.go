// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ShockPolicy selects the size and shape of the impulse.
type ShockPolicy int

const (
	// One unit in the impulse variable only
	ShockUnit ShockPolicy = iota
	// One standard deviation of the impulse variable's regime residual, in that variable only
	ShockStdDev
	// Column of the Cholesky factor of the regime covariance (recursive ordering
	// given by the variable order), so variables ordered after the impulse move
	// on impact as well
	ShockOrthogonal
)

func (p ShockPolicy) String() string {
	switch p {
	case ShockUnit:
		return "unit"
	case ShockStdDev:
		return "stddev"
	case ShockOrthogonal:
		return "orthogonal"
	default:
		return "unknown"
	}
}

// ParseShockPolicy maps a policy name to a ShockPolicy.
func ParseShockPolicy(name string) (ShockPolicy, error) {
	switch name {
	case "", "unit":
		return ShockUnit, nil
	case "stddev", "sd":
		return ShockStdDev, nil
	case "orthogonal", "cholesky":
		return ShockOrthogonal, nil
	default:
		return ShockUnit, configErr("shock policy", "unknown policy %q (options: unit, stddev, orthogonal)", name)
	}
}

// maCoefficients returns the moving-average matrices Psi_0..Psi_{horizon-1}:
// Psi_0 = I, Psi_h = sum_{j=1}^{min(h,p)} A_j Psi_{h-j}.
func maCoefficients(A []*mat.Dense, horizon int) []*mat.Dense {
	V, _ := A[0].Dims()
	p := len(A)

	Psi := make([]*mat.Dense, horizon)

	// Psi_0 = I_V
	Idata := make([]float64, V*V)
	for i := 0; i < V; i++ {
		Idata[i*V+i] = 1.0
	}
	Psi[0] = mat.NewDense(V, V, Idata)

	// Recursively computes Psi_h
	for h := 1; h < horizon; h++ {
		M := mat.NewDense(V, V, nil)
		maxLag := p
		if h < p {
			maxLag = h
		}
		for j := 1; j <= maxLag; j++ {
			var tmp mat.Dense
			tmp.Mul(A[j-1], Psi[h-j]) // A_j * Psi_{h-j}
			M.Add(M, &tmp)
		}
		Psi[h] = M
	}
	return Psi
}

// shockVector builds the impact vector for the impulse variable.
func shockVector(rp RegimeParams, impulse int, policy ShockPolicy) []float64 {
	V := rp.Dim()
	shock := make([]float64, V)

	switch policy {
	case ShockStdDev:
		shock[impulse] = math.Sqrt(rp.Sigma.At(impulse, impulse))
	case ShockOrthogonal:
		var chol mat.Cholesky
		// Cholesky decomposition applied to Sigma, calculates LL'
		if chol.Factorize(rp.Sigma) {
			L := mat.NewTriDense(V, mat.Lower, nil)
			chol.LTo(L)
			for i := 0; i < V; i++ {
				shock[i] = L.At(i, impulse)
			}
		} else {
			// fallback if Sigma is not positive definite
			shock[impulse] = 1.0
		}
	default:
		shock[impulse] = 1.0
	}
	return shock
}

// Responses computes the responses of every variable to a shock in impulse,
// conditional on the process staying in regime for all periods.
// Returns: periods x V matrix, row h is the response at horizon h.
func Responses(fit *FitResult, regime, periods, impulse int, policy ShockPolicy) (*mat.Dense, error) {
	if fit == nil || len(fit.Regimes) == 0 {
		return nil, &InvalidStateError{Op: "compute impulse responses", Reason: "model not fitted"}
	}
	if regime < 0 || regime >= len(fit.Regimes) {
		return nil, configErr("regime", "must be between 0 and %d, got %d", len(fit.Regimes)-1, regime)
	}
	if periods <= 0 {
		return nil, configErr("periods", "must be > 0, got %d", periods)
	}

	rp := fit.Regimes[regime]
	V := rp.Dim()
	if impulse < 0 || impulse >= V {
		return nil, configErr("impulse variable", "index must be between 0 and %d, got %d", V-1, impulse)
	}

	Psi := maCoefficients(rp.A, periods)
	shockVec := mat.NewVecDense(V, shockVector(rp, impulse, policy))

	// IRF[h] = Psi_h * shock
	irf := mat.NewDense(periods, V, nil)
	for h := 0; h < periods; h++ {
		var resp mat.VecDense
		resp.MulVec(Psi[h], shockVec)
		for i := 0; i < V; i++ {
			irf.Set(h, i, resp.AtVec(i))
		}
	}
	return irf, nil
}

// ImpulseResponse returns the response of variable response to a shock in
// variable impulse at horizons 0..periods-1, holding the regime fixed. With
// ShockUnit or ShockStdDev the horizon-0 value is the shock size when
// response == impulse and exactly zero otherwise.
func ImpulseResponse(fit *FitResult, impulse, response, periods, regime int, policy ShockPolicy) ([]float64, error) {
	irf, err := Responses(fit, regime, periods, impulse, policy)
	if err != nil {
		return nil, err
	}
	_, V := irf.Dims()
	if response < 0 || response >= V {
		return nil, configErr("response variable", "index must be between 0 and %d, got %d", V-1, response)
	}

	series := make([]float64, periods)
	mat.Col(series, response, irf)
	return series, nil
}
