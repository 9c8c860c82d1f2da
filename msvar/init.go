// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package msvar

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// newRand returns the generator used for initialization. The same seed always
// yields the same stream.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// ParseInitializer maps a policy name to an Initializer.
func ParseInitializer(name string) (Initializer, error) {
	switch name {
	case "", "kmeans":
		return KMeansInit{}, nil
	case "perturbed-ols", "ols":
		return PerturbedOLSInit{}, nil
	default:
		return nil, configErr("init policy", "unknown policy %q (options: kmeans, perturbed-ols)", name)
	}
}

// KMeansInit clusters the observation vectors with k-means++ seeded Lloyd
// iterations and estimates each regime by weighted least squares, giving
// cluster members weight Membership and everything else the remainder.
type KMeansInit struct {
	// Lloyd iterations, 100 when zero
	MaxIter int
	// Weight of a cluster's own observations in its regression, 0.9 when zero
	Membership float64
}

func (KMeansInit) Name() string { return "kmeans" }

func (ki KMeansInit) Initialize(d *Design, regimes int, rng *rand.Rand) ([]RegimeParams, MarkovChain, error) {
	if regimes < 1 {
		return nil, MarkovChain{}, configErr("regimes", "must be >= 1, got %d", regimes)
	}
	maxIter := ki.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	member := ki.Membership
	if member <= 0 || member >= 1 {
		member = 0.9
	}

	n := d.Len()
	if regimes == 1 {
		w := make([]float64, n)
		for s := range w {
			w[s] = 1
		}
		rp, err := regimeFromWeights(d, w)
		if err != nil {
			return nil, MarkovChain{}, err
		}
		return []RegimeParams{rp}, PersistentChain(1, 1), nil
	}
	if n < regimes {
		return nil, MarkovChain{}, configErr("regimes", "%d regimes for %d observations", regimes, n)
	}

	labels := kmeans(standardize(d.Y), regimes, maxIter, rng)

	out := make([]RegimeParams, regimes)
	w := make([]float64, n)
	other := (1 - member) / float64(regimes-1)
	for k := 0; k < regimes; k++ {
		for s := 0; s < n; s++ {
			if labels[s] == k {
				w[s] = member
			} else {
				w[s] = other
			}
		}
		rp, err := regimeFromWeights(d, w)
		if err != nil {
			return nil, MarkovChain{}, fmt.Errorf("kmeans init, regime %d: %w", k, err)
		}
		out[k] = rp
	}

	// Transition counts between consecutive labels with add-one smoothing
	P := mat.NewDense(regimes, regimes, nil)
	for i := 0; i < regimes; i++ {
		for j := 0; j < regimes; j++ {
			P.Set(i, j, 1)
		}
	}
	for s := 0; s+1 < n; s++ {
		P.Set(labels[s], labels[s+1], P.At(labels[s], labels[s+1])+1)
	}
	for i := 0; i < regimes; i++ {
		normalizeSum(P.RawRowView(i))
	}
	chain := MarkovChain{P: P}
	chain.Initial = chain.Stationary()

	return out, chain, nil
}

// regimeFromWeights fits one regime by weighted least squares and makes its
// covariance positive definite.
func regimeFromWeights(d *Design, w []float64) (RegimeParams, error) {
	B, U, err := weightedLeastSquares(d, w)
	if err != nil {
		return RegimeParams{}, err
	}
	sigma, _ := weightedCovariance(U, w)
	sigma, _, ok := ensurePositiveDefinite(sigma)
	if !ok {
		return RegimeParams{}, fmt.Errorf("covariance is not positive definite")
	}
	return regimeFromCoefficients(B, sigma, d.Lags), nil
}

// standardize returns a copy of Y with every column scaled to zero mean and
// unit variance, so no variable dominates the clustering distance.
func standardize(Y *mat.Dense) *mat.Dense {
	n, V := Y.Dims()
	Z := mat.NewDense(n, V, nil)
	col := make([]float64, n)
	for v := 0; v < V; v++ {
		mat.Col(col, v, Y)
		mean, std := stat.MeanStdDev(col, nil)
		if !(std > 0) {
			std = 1
		}
		for s := 0; s < n; s++ {
			Z.Set(s, v, (col[s]-mean)/std)
		}
	}
	return Z
}

// kmeans assigns each row of Z to one of k clusters. Clusters are relabelled
// in order of first appearance in time so regime 0 is the one the sample
// starts in.
func kmeans(Z *mat.Dense, k, maxIter int, rng *rand.Rand) []int {
	n, _ := Z.Dims()
	centers := kmeansPlusPlus(Z, k, rng)
	labels := make([]int, n)
	for s := range labels {
		labels[s] = -1
	}

	counts := make([]float64, k)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for s := 0; s < n; s++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				if dist := sqDist(Z.RawRowView(s), centers[c]); dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if labels[s] != best {
				labels[s] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		updateCenters(Z, labels, centers, counts)
	}

	// Relabel by first appearance
	remap := make([]int, k)
	for c := range remap {
		remap[c] = -1
	}
	next := 0
	for s := 0; s < n; s++ {
		if remap[labels[s]] == -1 {
			remap[labels[s]] = next
			next++
		}
	}
	for c := range remap {
		if remap[c] == -1 {
			remap[c] = next
			next++
		}
	}
	for s := range labels {
		labels[s] = remap[labels[s]]
	}
	return labels
}

// updateCenters moves every center to the mean of its cluster. An empty
// cluster takes over the point farthest from its own cluster mean, once all
// the other means are in place.
func updateCenters(Z *mat.Dense, labels []int, centers [][]float64, counts []float64) {
	n, _ := Z.Dims()
	for c := range centers {
		counts[c] = 0
		for v := range centers[c] {
			centers[c][v] = 0
		}
	}
	for s := 0; s < n; s++ {
		counts[labels[s]]++
		floats.Add(centers[labels[s]], Z.RawRowView(s))
	}
	for c := range centers {
		if counts[c] > 0 {
			floats.Scale(1/counts[c], centers[c])
		}
	}
	for c := range centers {
		if counts[c] == 0 {
			far := farthestPoint(Z, labels, centers)
			copy(centers[c], Z.RawRowView(far))
			labels[far] = c
		}
	}
}

// kmeansPlusPlus picks k initial centers, each new one drawn with probability
// proportional to its squared distance from the nearest chosen center.
func kmeansPlusPlus(Z *mat.Dense, k int, rng *rand.Rand) [][]float64 {
	n, V := Z.Dims()
	centers := make([][]float64, 0, k)
	first := make([]float64, V)
	copy(first, Z.RawRowView(rng.IntN(n)))
	centers = append(centers, first)

	dist := make([]float64, n)
	for len(centers) < k {
		for s := 0; s < n; s++ {
			dist[s] = math.Inf(1)
			for _, c := range centers {
				dist[s] = math.Min(dist[s], sqDist(Z.RawRowView(s), c))
			}
		}
		total := floats.Sum(dist)
		pick := 0
		if total > 0 {
			u := rng.Float64() * total
			acc := 0.0
			for s := 0; s < n; s++ {
				acc += dist[s]
				if acc >= u {
					pick = s
					break
				}
			}
		} else {
			pick = rng.IntN(n)
		}
		center := make([]float64, V)
		copy(center, Z.RawRowView(pick))
		centers = append(centers, center)
	}
	return centers
}

func farthestPoint(Z *mat.Dense, labels []int, centers [][]float64) int {
	n, _ := Z.Dims()
	far, farDist := 0, -1.0
	for s := 0; s < n; s++ {
		if dist := sqDist(Z.RawRowView(s), centers[labels[s]]); dist > farDist {
			far, farDist = s, dist
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// PerturbedOLSInit starts every regime from the single-regime OLS estimate,
// perturbing the coefficients with Gaussian noise scaled by their standard
// errors, spreading the intercepts and scaling the covariances so the regimes
// start apart.
type PerturbedOLSInit struct {
	// Noise scale in standard errors, 0.5 when zero
	Scale float64
	// Diagonal of the starting transition matrix, 0.9 when zero
	Persistence float64
}

func (PerturbedOLSInit) Name() string { return "perturbed-ols" }

func (pi PerturbedOLSInit) Initialize(d *Design, regimes int, rng *rand.Rand) ([]RegimeParams, MarkovChain, error) {
	if regimes < 1 {
		return nil, MarkovChain{}, configErr("regimes", "must be >= 1, got %d", regimes)
	}
	scale := pi.Scale
	if scale <= 0 {
		scale = 0.5
	}
	stay := pi.Persistence
	if stay <= 0 || stay >= 1 {
		stay = 0.9
	}

	ols, err := (&OLSEstimator{}).estimateDesign(d)
	if err != nil {
		return nil, MarkovChain{}, fmt.Errorf("perturbed OLS init: %w", err)
	}
	if regimes == 1 {
		return []RegimeParams{ols.Params.Clone()}, PersistentChain(1, 1), nil
	}

	base := ols.Params.coefficients()
	m, V := base.Dims()
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	out := make([]RegimeParams, regimes)
	for k := 0; k < regimes; k++ {
		B := mat.DenseCopyOf(base)
		for r := 0; r < m; r++ {
			for v := 0; v < V; v++ {
				se := 0.1 * math.Max(math.Abs(base.At(r, v)), 1e-3)
				if ols.StdErrors != nil {
					se = ols.StdErrors.At(r, v)
				}
				B.Set(r, v, B.At(r, v)+scale*se*noise.Rand())
			}
		}

		// Spread the intercepts symmetrically around the OLS value
		offset := float64(k) - float64(regimes-1)/2
		for v := 0; v < V; v++ {
			B.Set(0, v, B.At(0, v)+scale*offset*math.Sqrt(ols.Params.Sigma.At(v, v)))
		}

		factor := 0.5 + float64(k)/float64(regimes-1)
		sigma := mat.NewSymDense(V, nil)
		sigma.ScaleSym(factor, ols.Params.Sigma)

		out[k] = regimeFromCoefficients(B, sigma, d.Lags)
	}

	chain := PersistentChain(regimes, stay)
	return out, chain, nil
}
