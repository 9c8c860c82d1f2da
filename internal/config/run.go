// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

// Package config holds the run configuration of the msvar command.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

// Max size of a config file
const maxFileSize = 1 * 1024 * 1024 // 1MB

// RunConfig describes one estimation run. Every field is optional; the Get*
// methods supply defaults for the ones left out, so partial files are safe.
type RunConfig struct {
	// Input
	DataPath  *string  `json:"data_path,omitempty" yaml:"data_path,omitempty"`
	Variables []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	LogDiff   *bool    `json:"log_diff,omitempty" yaml:"log_diff,omitempty"`
	LogScale  *float64 `json:"log_scale,omitempty" yaml:"log_scale,omitempty"`

	// Model
	Regimes *int `json:"regimes,omitempty" yaml:"regimes,omitempty"`
	Lags    *int `json:"lags,omitempty" yaml:"lags,omitempty"`

	// Estimation
	MaxIter    *int     `json:"max_iter,omitempty" yaml:"max_iter,omitempty"`
	Tolerance  *float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Seed       *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	InitPolicy *string  `json:"init_policy,omitempty" yaml:"init_policy,omitempty"`
	Workers    *int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	Timeout    *string  `json:"timeout,omitempty" yaml:"timeout,omitempty"` // duration string like "5m"

	// Analysis
	IRFPeriods  *int    `json:"irf_periods,omitempty" yaml:"irf_periods,omitempty"`
	ShockPolicy *string `json:"shock_policy,omitempty" yaml:"shock_policy,omitempty"`

	// Forecast horizon, 0 skips forecasting
	ForecastSteps *int `json:"forecast_steps,omitempty" yaml:"forecast_steps,omitempty"`

	// Output
	OutputDir *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Plots     *bool   `json:"plots,omitempty" yaml:"plots,omitempty"`
	HTML      *bool   `json:"html,omitempty" yaml:"html,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyRunConfig returns a RunConfig with all fields unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field set to its default.
func DefaultRunConfig() *RunConfig {
	c := EmptyRunConfig()
	c.DataPath = ptrString(c.GetDataPath())
	c.Variables = c.GetVariables()
	c.LogDiff = ptrBool(c.GetLogDiff())
	c.LogScale = ptrFloat64(c.GetLogScale())
	c.Regimes = ptrInt(c.GetRegimes())
	c.Lags = ptrInt(c.GetLags())
	c.MaxIter = ptrInt(c.GetMaxIter())
	c.Tolerance = ptrFloat64(c.GetTolerance())
	c.Seed = ptrInt64(c.GetSeed())
	c.InitPolicy = ptrString(c.GetInitPolicy())
	c.Workers = ptrInt(c.GetWorkers())
	c.Timeout = ptrString(c.GetTimeout().String())
	c.IRFPeriods = ptrInt(c.GetIRFPeriods())
	c.ShockPolicy = ptrString(c.GetShockPolicy())
	c.ForecastSteps = ptrInt(c.GetForecastSteps())
	c.OutputDir = ptrString(c.GetOutputDir())
	c.Plots = ptrBool(c.GetPlots())
	c.HTML = ptrBool(c.GetHTML())
	return c
}

// Load reads a RunConfig from a .json, .yaml or .yml file and validates it.
func Load(path string) (*RunConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set. Model settings that the engine
// would reject are reported as *msvar.ConfigurationError.
func (c *RunConfig) Validate() error {
	if c.Regimes != nil && *c.Regimes < 1 {
		return &msvar.ConfigurationError{Field: "regimes", Reason: fmt.Sprintf("must be >= 1, got %d", *c.Regimes)}
	}
	if c.Lags != nil && *c.Lags < 1 {
		return &msvar.ConfigurationError{Field: "lags", Reason: fmt.Sprintf("must be >= 1, got %d", *c.Lags)}
	}
	if c.Variables != nil && len(c.Variables) == 0 {
		return &msvar.ConfigurationError{Field: "variables", Reason: "variable list is empty"}
	}
	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if strings.TrimSpace(v) == "" {
			return &msvar.ConfigurationError{Field: "variables", Reason: "blank variable name"}
		}
		if seen[v] {
			return &msvar.ConfigurationError{Field: "variables", Reason: fmt.Sprintf("duplicate variable %q", v)}
		}
		seen[v] = true
	}

	if c.MaxIter != nil && *c.MaxIter < 1 {
		return fmt.Errorf("max_iter must be positive, got %d", *c.MaxIter)
	}
	if c.Tolerance != nil && !(*c.Tolerance > 0) {
		return fmt.Errorf("tolerance must be positive, got %g", *c.Tolerance)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.IRFPeriods != nil && *c.IRFPeriods < 1 {
		return fmt.Errorf("irf_periods must be positive, got %d", *c.IRFPeriods)
	}
	if c.ForecastSteps != nil && *c.ForecastSteps < 0 {
		return fmt.Errorf("forecast_steps must be non-negative, got %d", *c.ForecastSteps)
	}
	if c.LogScale != nil && *c.LogScale == 0 {
		return fmt.Errorf("log_scale must be non-zero")
	}

	// Validate Timeout can be parsed if set
	if c.Timeout != nil && *c.Timeout != "" {
		if _, err := time.ParseDuration(*c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", *c.Timeout, err)
		}
	}
	if c.InitPolicy != nil {
		if _, err := msvar.ParseInitializer(*c.InitPolicy); err != nil {
			return err
		}
	}
	if c.ShockPolicy != nil {
		if _, err := msvar.ParseShockPolicy(*c.ShockPolicy); err != nil {
			return err
		}
	}
	return nil
}

// FitOptions converts the estimation settings into engine options.
func (c *RunConfig) FitOptions() (msvar.FitOptions, error) {
	init, err := msvar.ParseInitializer(c.GetInitPolicy())
	if err != nil {
		return msvar.FitOptions{}, err
	}
	opts := msvar.DefaultFitOptions()
	opts.MaxIter = c.GetMaxIter()
	opts.Tol = c.GetTolerance()
	opts.Seed = c.GetSeed()
	opts.Init = init
	opts.Workers = c.GetWorkers()
	return opts, nil
}

// GetDataPath returns the data_path value or the default.
func (c *RunConfig) GetDataPath() string {
	if c.DataPath == nil {
		return "data/natural_gas_data.csv"
	}
	return *c.DataPath
}

// GetVariables returns the variables value or the default.
func (c *RunConfig) GetVariables() []string {
	if len(c.Variables) == 0 {
		return []string{"production", "consumption", "price"}
	}
	return append([]string(nil), c.Variables...)
}

// GetLogDiff returns the log_diff value or the default.
func (c *RunConfig) GetLogDiff() bool {
	if c.LogDiff == nil {
		return true // default: model growth rates
	}
	return *c.LogDiff
}

// GetLogScale returns the log_scale value or the default.
func (c *RunConfig) GetLogScale() float64 {
	if c.LogScale == nil {
		return 100 // percent
	}
	return *c.LogScale
}

// GetRegimes returns the regimes value or the default.
func (c *RunConfig) GetRegimes() int {
	if c.Regimes == nil {
		return 2
	}
	return *c.Regimes
}

// GetLags returns the lags value or the default.
func (c *RunConfig) GetLags() int {
	if c.Lags == nil {
		return 1
	}
	return *c.Lags
}

// GetMaxIter returns the max_iter value or the default.
func (c *RunConfig) GetMaxIter() int {
	if c.MaxIter == nil {
		return msvar.DefaultFitOptions().MaxIter
	}
	return *c.MaxIter
}

// GetTolerance returns the tolerance value or the default.
func (c *RunConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return msvar.DefaultFitOptions().Tol
	}
	return *c.Tolerance
}

// GetSeed returns the seed value or the default.
func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return msvar.DefaultFitOptions().Seed
	}
	return *c.Seed
}

// GetInitPolicy returns the init_policy value or the default.
func (c *RunConfig) GetInitPolicy() string {
	if c.InitPolicy == nil || *c.InitPolicy == "" {
		return "kmeans"
	}
	return *c.InitPolicy
}

// GetWorkers returns the workers value or the default.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0 // one per CPU
	}
	return *c.Workers
}

// GetTimeout parses and returns the Timeout as a time.Duration. Zero means
// no limit.
func (c *RunConfig) GetTimeout() time.Duration {
	if c.Timeout == nil || *c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.Timeout)
	if err != nil {
		return 0 // default on parse error
	}
	return d
}

// GetIRFPeriods returns the irf_periods value or the default.
func (c *RunConfig) GetIRFPeriods() int {
	if c.IRFPeriods == nil {
		return 20
	}
	return *c.IRFPeriods
}

// GetShockPolicy returns the shock_policy value or the default.
func (c *RunConfig) GetShockPolicy() string {
	if c.ShockPolicy == nil || *c.ShockPolicy == "" {
		return msvar.ShockUnit.String()
	}
	return *c.ShockPolicy
}

// GetForecastSteps returns the forecast_steps value or the default.
func (c *RunConfig) GetForecastSteps() int {
	if c.ForecastSteps == nil {
		return 12
	}
	return *c.ForecastSteps
}

// GetOutputDir returns the output_dir value or the default.
func (c *RunConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "output"
	}
	return *c.OutputDir
}

// GetPlots returns the plots value or the default.
func (c *RunConfig) GetPlots() bool {
	if c.Plots == nil {
		return true
	}
	return *c.Plots
}

// GetHTML returns the html value or the default.
func (c *RunConfig) GetHTML() bool {
	if c.HTML == nil {
		return false
	}
	return *c.HTML
}
