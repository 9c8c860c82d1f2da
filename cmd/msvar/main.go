// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

// Command msvar fits a Markov-switching VAR to a CSV of monthly natural gas
// series and writes the regime analysis, impulse responses and charts into a
// fresh run directory.
//
// Usage:
//
//	msvar [-config run.yaml] [-data file.csv] [-vars a,b,c] [-regimes K] [-lags p] ...
//
// Flags override values from the config file; values set in neither place
// fall back to the defaults of internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/d-setiawan/msvar-analysis-go/internal/config"
	"github.com/d-setiawan/msvar-analysis-go/internal/dataset"
	"github.com/d-setiawan/msvar-analysis-go/internal/monitoring"
	"github.com/d-setiawan/msvar-analysis-go/internal/report"
	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// Exit codes
const (
	exitOK       = 0
	exitRuntime  = 1
	exitUsage    = 2
	exitConfig   = 3
	exitNumerics = 4
)

func main() {
	os.Exit(exitCode(run(os.Args[1:], os.Stdout)))
}

// exitCode maps a run error to the process exit status and logs it.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	monitoring.Logf("msvar: %v", err)

	var cfgErr *msvar.ConfigurationError
	var degErr *msvar.DegenerateRegimeError
	var incErr *msvar.InconsistencyError
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &degErr), errors.As(err, &incErr):
		return exitNumerics
	default:
		return exitRuntime
	}
}

var errUsage = errors.New("bad usage")

// options are the command-line flags. Pointers left nil were not given.
type options struct {
	configPath string
	overrides  *config.RunConfig
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("msvar", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a .json, .yaml or .yml run configuration")
	dataPath := fs.String("data", "", "CSV file with a header row and an optional date column")
	vars := fs.String("vars", "", "Comma-separated variables to model, in order")
	regimes := fs.Int("regimes", 0, "Number of regimes K")
	lags := fs.Int("lags", 0, "VAR lag order p")
	maxIter := fs.Int("max-iter", 0, "Maximum EM iterations")
	tol := fs.Float64("tol", 0, "Log-likelihood convergence tolerance")
	seed := fs.Int64("seed", 0, "Seed for the initializer")
	periods := fs.Int("periods", 0, "Impulse response horizon")
	out := fs.String("out", "", "Output directory; each run writes to <out>/<run-id>")
	timeout := fs.Duration("timeout", 0, "Abort the fit after this long (0 disables)")
	initPolicy := fs.String("init", "", "Starting values: kmeans or perturbed-ols")
	shock := fs.String("shock", "", "Impulse shock: unit, stddev or orthogonal")
	forecast := fs.Int("forecast", 0, "Forecast horizon (0 skips forecasting)")
	workers := fs.Int("workers", -1, "Goroutines for per-regime work (0 uses every CPU)")
	plots := fs.Bool("plots", true, "Write PNG charts")
	html := fs.Bool("html", false, "Write an HTML dashboard")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	o := &options{configPath: *configPath, overrides: config.EmptyRunConfig()}
	ov := o.overrides
	// Only flags given on the command line override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			ov.DataPath = dataPath
		case "vars":
			ov.Variables = splitList(*vars)
		case "regimes":
			ov.Regimes = regimes
		case "lags":
			ov.Lags = lags
		case "max-iter":
			ov.MaxIter = maxIter
		case "tol":
			ov.Tolerance = tol
		case "seed":
			ov.Seed = seed
		case "periods":
			ov.IRFPeriods = periods
		case "out":
			ov.OutputDir = out
		case "timeout":
			s := timeout.String()
			ov.Timeout = &s
		case "init":
			ov.InitPolicy = initPolicy
		case "shock":
			ov.ShockPolicy = shock
		case "forecast":
			ov.ForecastSteps = forecast
		case "workers":
			ov.Workers = workers
		case "plots":
			ov.Plots = plots
		case "html":
			ov.HTML = html
		}
	})
	return o, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// merge copies every field set in src over dst.
func merge(dst, src *config.RunConfig) {
	if src.DataPath != nil {
		dst.DataPath = src.DataPath
	}
	if src.Variables != nil {
		dst.Variables = src.Variables
	}
	if src.LogDiff != nil {
		dst.LogDiff = src.LogDiff
	}
	if src.LogScale != nil {
		dst.LogScale = src.LogScale
	}
	if src.Regimes != nil {
		dst.Regimes = src.Regimes
	}
	if src.Lags != nil {
		dst.Lags = src.Lags
	}
	if src.MaxIter != nil {
		dst.MaxIter = src.MaxIter
	}
	if src.Tolerance != nil {
		dst.Tolerance = src.Tolerance
	}
	if src.Seed != nil {
		dst.Seed = src.Seed
	}
	if src.InitPolicy != nil {
		dst.InitPolicy = src.InitPolicy
	}
	if src.Workers != nil {
		dst.Workers = src.Workers
	}
	if src.Timeout != nil {
		dst.Timeout = src.Timeout
	}
	if src.IRFPeriods != nil {
		dst.IRFPeriods = src.IRFPeriods
	}
	if src.ShockPolicy != nil {
		dst.ShockPolicy = src.ShockPolicy
	}
	if src.ForecastSteps != nil {
		dst.ForecastSteps = src.ForecastSteps
	}
	if src.OutputDir != nil {
		dst.OutputDir = src.OutputDir
	}
	if src.Plots != nil {
		dst.Plots = src.Plots
	}
	if src.HTML != nil {
		dst.HTML = src.HTML
	}
}

// loadConfig reads the config file, if any, and applies the flag overrides.
func loadConfig(o *options) (*config.RunConfig, error) {
	cfg := config.EmptyRunConfig()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	merge(cfg, o.overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run performs the full analysis. The steps mirror the batch scripts this
// command replaced: load, preprocess, fit, summarize, export, analyze shocks.
func run(args []string, stdout io.Writer) error {
	o, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	// 1. Load CSV into TimeSeries
	raw, err := dataset.LoadCSV(cfg.GetDataPath())
	if err != nil {
		return err
	}
	rows, cols := raw.Y.Dims()
	monitoring.Logf("loaded %s: %d rows, %d columns %v", cfg.GetDataPath(), rows, cols, raw.VarNames)

	// 2. Select variables, drop missing rows, log-difference
	variables := cfg.GetVariables()
	ts, err := dataset.Preprocess(raw, variables, cfg.GetLogDiff(), cfg.GetLogScale())
	if err != nil {
		return err
	}

	// 3. Build the model
	model := msvar.NewModel()
	if err := model.Build(ts, variables, cfg.GetRegimes(), cfg.GetLags()); err != nil {
		return err
	}

	// 4. Estimate by EM
	fitOpts, err := cfg.FitOptions()
	if err != nil {
		return err
	}
	fitOpts.Progress = func(iteration int, logLik float64) {
		if iteration%10 == 0 {
			monitoring.Logf("EM iteration %d: log-likelihood %.6f", iteration, logLik)
		}
	}

	ctx := context.Background()
	if d := cfg.GetTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	fit, err := model.Fit(ctx, fitOpts)
	var convErr *msvar.ConvergenceError
	switch {
	case err == nil:
	case errors.As(err, &convErr) && fit != nil:
		monitoring.Logf("warning: %v; reporting the best iterate", err)
	case errors.Is(err, context.DeadlineExceeded) && fit != nil:
		monitoring.Logf("warning: fit stopped after %s; reporting the best iterate", cfg.GetTimeout())
	default:
		return err
	}
	monitoring.Logf("fit finished in %s: %d iterations, %s, log-likelihood %.4f",
		time.Since(start).Round(time.Millisecond), fit.Iterations, fit.Status, fit.LogLikelihood)

	// 5. Create the run directory
	runID := uuid.New().String()
	runDir := filepath.Join(cfg.GetOutputDir(), runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	fmt.Fprintf(stdout, "Run %s\n", runID)

	// 6. Print summary
	summary, err := model.RegimeSummary()
	if err != nil {
		return err
	}
	if err := report.PrintSummary(stdout, summary, model.Variables()); err != nil {
		return err
	}

	// 7. Output regime probabilities, transition matrix and EM path to CSV
	dates := fitDates(ts, fit)
	if err := report.WriteSmoothedCSV(filepath.Join(runDir, "smoothed_probabilities.csv"), fit, dates); err != nil {
		return fmt.Errorf("write smoothed probabilities: %w", err)
	}
	if err := report.WriteTransitionCSV(filepath.Join(runDir, "transition_matrix.csv"), fit.Chain); err != nil {
		return fmt.Errorf("write transition matrix: %w", err)
	}
	if err := report.WriteLogLikCSV(filepath.Join(runDir, "loglik_history.csv"), fit.LogLikHistory); err != nil {
		return fmt.Errorf("write log-likelihood history: %w", err)
	}

	// 8. Impulse responses for every ordered pair of distinct variables
	policy, err := msvar.ParseShockPolicy(cfg.GetShockPolicy())
	if err != nil {
		return err
	}
	periods := cfg.GetIRFPeriods()
	var irfs []report.IRFSeries
	for _, impulse := range model.Variables() {
		for _, response := range model.Variables() {
			if impulse == response {
				continue
			}
			perRegime, err := model.ImpulseResponses(impulse, response, periods, policy)
			if err != nil {
				return err
			}
			for k, values := range perRegime {
				irfs = append(irfs, report.IRFSeries{Impulse: impulse, Response: response, Regime: k, Values: values})
			}

			// 9. Plot the pair
			if cfg.GetPlots() {
				name := fmt.Sprintf("irf_%s_to_%s.png", impulse, response)
				if err := report.PlotImpulseResponses(filepath.Join(runDir, name), perRegime, impulse, response); err != nil {
					return fmt.Errorf("plot impulse responses: %w", err)
				}
			}
		}
	}
	if err := report.WriteIRFCSV(filepath.Join(runDir, "irf_results.csv"), irfs); err != nil {
		return fmt.Errorf("write impulse responses: %w", err)
	}

	// 10. Forecast past the end of the sample
	if steps := cfg.GetForecastSteps(); steps > 0 {
		fc, err := model.Forecast(steps)
		if err != nil {
			return err
		}
		if err := report.WriteForecastCSV(filepath.Join(runDir, "forecast_results.csv"), fc, model.Variables()); err != nil {
			return fmt.Errorf("write forecasts: %w", err)
		}
	}

	// 11. Regime probability chart and optional dashboard
	if cfg.GetPlots() {
		if err := report.PlotRegimeProbabilities(filepath.Join(runDir, "regime_probabilities.png"), fit); err != nil {
			return fmt.Errorf("plot regime probabilities: %w", err)
		}
	}
	if cfg.GetHTML() {
		if err := writeDashboard(filepath.Join(runDir, "dashboard.html"), fit, irfs, dates); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Results written to %s\n", runDir)
	return nil
}

// fitDates returns the calendar dates of the probability rows, or nil when
// the data had no date column.
func fitDates(ts *msvar.TimeSeries, fit *msvar.FitResult) []time.Time {
	n, _ := fit.Smoothed.Dims()
	if len(ts.Dates) != n+fit.Lags {
		return nil
	}
	return ts.Dates[fit.Lags:]
}

func writeDashboard(path string, fit *msvar.FitResult, irfs []report.IRFSeries, dates []time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer f.Close()
	if err := report.RenderDashboard(f, fit, irfs, dates); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return f.Close()
}
