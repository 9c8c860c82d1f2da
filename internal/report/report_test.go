// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// fixtureFit is a hand-built two-regime, one-lag, two-variable fit.
func fixtureFit() *msvar.FitResult {
	regimes := []msvar.RegimeParams{
		{
			C:     mat.NewVecDense(2, []float64{1, -0.5}),
			A:     []*mat.Dense{mat.NewDense(2, 2, []float64{0.3, 0.1, 0, 0.2})},
			Sigma: mat.NewSymDense(2, []float64{0.1, 0.02, 0.02, 0.1}),
		},
		{
			C:     mat.NewVecDense(2, []float64{-1, 1}),
			A:     []*mat.Dense{mat.NewDense(2, 2, []float64{0.2, 0, 0.1, 0.3})},
			Sigma: mat.NewSymDense(2, []float64{0.4, -0.05, -0.05, 0.3}),
		},
	}
	smoothed := mat.NewDense(4, 2, []float64{
		0.9, 0.1,
		0.8, 0.2,
		0.3, 0.7,
		0.05, 0.95,
	})
	return &msvar.FitResult{
		Regimes: regimes,
		Chain: msvar.MarkovChain{
			P:       mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}),
			Initial: []float64{0.5, 0.5},
		},
		Filtered:      mat.DenseCopyOf(smoothed),
		Smoothed:      smoothed,
		LogLikelihood: -123.5,
		LogLikHistory: []float64{-130, -125, -123.5},
		Iterations:    3,
		Converged:     true,
		Status:        msvar.StatusConverged,
		Lags:          1,
		VarNames:      []string{"production", "price"},
		Time:          []float64{1, 2, 3, 4},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPrintSummary(t *testing.T) {
	fit := fixtureFit()
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, fit.Summary(), fit.VarNames))

	out := buf.String()
	assert.Contains(t, out, "Number of regimes (K):   2")
	assert.Contains(t, out, "=== Regime 1 ===")
	assert.Contains(t, out, "Expected duration:   10.00 periods")
	assert.Contains(t, out, "Expected duration:   5.00 periods")
	assert.Contains(t, out, "production, price")
	assert.Contains(t, out, "A_1 =")
	assert.Contains(t, out, "Unconditional mean:")

	buf.Reset()
	require.NoError(t, PrintSummary(&buf, nil, nil))
	assert.Contains(t, buf.String(), "not fitted")
}

func TestPrintIRF(t *testing.T) {
	irf := mat.NewDense(2, 2, []float64{1, 0, 0.3, 0.1})
	var buf bytes.Buffer
	require.NoError(t, PrintIRF(&buf, irf, []string{"production", "price"}, 0, 1))
	assert.Contains(t, buf.String(), "Shock to variable 0 (production)")
	assert.Contains(t, buf.String(), "0.300000")
}

func TestWriteSmoothedCSV(t *testing.T) {
	fit := fixtureFit()
	dir := t.TempDir()

	path := filepath.Join(dir, "smoothed.csv")
	require.NoError(t, WriteSmoothedCSV(path, fit, nil))
	records := readCSV(t, path)
	require.Len(t, records, 5)
	want := []string{"Time", "Regime_0_Smoothed", "Regime_1_Smoothed", "Regime_0_Filtered", "Regime_1_Filtered", "MostLikely"}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"1", "0.900000", "0.100000", "0.900000", "0.100000", "0"}, records[1])
	assert.Equal(t, "1", records[4][5])

	dates := []time.Time{
		time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	dated := filepath.Join(dir, "dated.csv")
	require.NoError(t, WriteSmoothedCSV(dated, fit, dates))
	records = readCSV(t, dated)
	assert.Equal(t, "Date", records[0][0])
	assert.Equal(t, "2020-03-01", records[2][0])
}

func TestWriteTransitionCSV(t *testing.T) {
	fit := fixtureFit()
	path := filepath.Join(t.TempDir(), "transition.csv")
	require.NoError(t, WriteTransitionCSV(path, fit.Chain))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"From", "To_0", "To_1", "ExpectedDuration", "Stationary"}, records[0])
	assert.Equal(t, []string{"0", "0.900000", "0.100000", "10.000000", "0.666667"}, records[1])

	assert.Error(t, WriteTransitionCSV(path, msvar.MarkovChain{}))
}

func TestWriteIRFAndLogLikCSV(t *testing.T) {
	dir := t.TempDir()

	irfPath := filepath.Join(dir, "irf.csv")
	irfs := []IRFSeries{
		{Impulse: "price", Response: "production", Regime: 0, Values: []float64{0, 0.1, 0.05}},
		{Impulse: "price", Response: "production", Regime: 1, Values: []float64{0, -0.2, 0.01}},
	}
	require.NoError(t, WriteIRFCSV(irfPath, irfs))
	records := readCSV(t, irfPath)
	require.Len(t, records, 7)
	assert.Equal(t, []string{"price", "production", "1", "1", "-0.200000"}, records[5])

	llPath := filepath.Join(dir, "loglik.csv")
	require.NoError(t, WriteLogLikCSV(llPath, []float64{-130, -125.25}))
	records = readCSV(t, llPath)
	assert.Equal(t, [][]string{{"Iteration", "LogLikelihood"}, {"1", "-130.000000"}, {"2", "-125.250000"}}, records)

	assert.Error(t, WriteLogLikCSV(filepath.Join(dir, "missing", "x.csv"), nil))
}

func TestWriteForecastCSV(t *testing.T) {
	fc := &msvar.ForecastResult{
		Mean:        mat.NewDense(2, 2, []float64{0.1, 0.2, 0.15, 0.25}),
		RegimeProbs: mat.NewDense(2, 2, []float64{0.9, 0.1, 0.83, 0.17}),
	}
	path := filepath.Join(t.TempDir(), "forecast.csv")
	require.NoError(t, WriteForecastCSV(path, fc, []string{"production"}))

	records := readCSV(t, path)
	assert.Equal(t, []string{"Step", "production", "Var2", "Regime_0_Prob", "Regime_1_Prob"}, records[0])
	assert.Equal(t, []string{"2", "0.150000", "0.250000", "0.830000", "0.170000"}, records[2])

	assert.Error(t, WriteForecastCSV(path, nil, nil))
}

func TestPlots(t *testing.T) {
	fit := fixtureFit()
	dir := t.TempDir()

	probPath := filepath.Join(dir, "probabilities.png")
	require.NoError(t, PlotRegimeProbabilities(probPath, fit))
	info, err := os.Stat(probPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	irfPath := filepath.Join(dir, "irf.png")
	require.NoError(t, PlotImpulseResponses(irfPath, [][]float64{{1, 0.3, 0.1}, {1, 0.5, 0.2}}, "price", "price"))
	_, err = os.Stat(irfPath)
	require.NoError(t, err)

	assert.Error(t, PlotRegimeProbabilities(probPath, nil))
	assert.Error(t, PlotImpulseResponses(irfPath, nil, "price", "price"))
}

func TestRenderDashboard(t *testing.T) {
	fit := fixtureFit()
	irfs := []IRFSeries{
		{Impulse: "price", Response: "production", Regime: 1, Values: []float64{0, -0.2}},
		{Impulse: "price", Response: "production", Regime: 0, Values: []float64{0, 0.1}},
		{Impulse: "production", Response: "price", Regime: 0, Values: []float64{0, math.Pi}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, fit, irfs, nil))
	html := buf.String()
	assert.Contains(t, html, "Smoothed Regime Probabilities")
	assert.Contains(t, html, "EM Log-likelihood")
	assert.Contains(t, html, "Response of production to price")
	assert.Contains(t, html, "Response of price to production")

	assert.Len(t, irfCharts(irfs), 2)
	assert.Error(t, RenderDashboard(&buf, nil, nil, nil))
}
