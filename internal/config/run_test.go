// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: A Markov-Switching VAR Analysis of Natural Gas Market Regimes
// Class: 02-613 at Caregie Mellon University

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-setiawan/msvar-analysis-go/msvar"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.Regimes)
	assert.Equal(t, 2, *cfg.Regimes)
	assert.Equal(t, 1, cfg.GetLags())
	assert.Equal(t, []string{"production", "consumption", "price"}, cfg.Variables)
	assert.Equal(t, 100.0, cfg.GetLogScale())
	assert.True(t, cfg.GetLogDiff())
	assert.Equal(t, "kmeans", cfg.GetInitPolicy())
	assert.Equal(t, "unit", cfg.GetShockPolicy())
	assert.Equal(t, time.Duration(0), cfg.GetTimeout())
	assert.Equal(t, 20, cfg.GetIRFPeriods())
	assert.Equal(t, 12, cfg.GetForecastSteps())
	assert.Equal(t, "output", cfg.GetOutputDir())
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{
  "data_path": "gas.csv",
  "variables": ["price", "storage"],
  "regimes": 3,
  "lags": 2,
  "tolerance": 1e-8,
  "seed": 99,
  "init_policy": "perturbed-ols",
  "timeout": "90s",
  "html": true
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gas.csv", cfg.GetDataPath())
	assert.Equal(t, []string{"price", "storage"}, cfg.GetVariables())
	assert.Equal(t, 3, cfg.GetRegimes())
	assert.Equal(t, 2, cfg.GetLags())
	assert.Equal(t, 90*time.Second, cfg.GetTimeout())
	assert.True(t, cfg.GetHTML())
	// Omitted fields keep their defaults
	assert.Equal(t, 200, cfg.GetMaxIter())
	assert.True(t, cfg.GetPlots())

	opts, err := cfg.FitOptions()
	require.NoError(t, err)
	assert.Equal(t, 1e-8, opts.Tol)
	assert.Equal(t, int64(99), opts.Seed)
	assert.Equal(t, "perturbed-ols", opts.Init.Name())
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
data_path: gas.csv
variables:
  - production
  - price
regimes: 2
lags: 3
log_diff: false
shock_policy: orthogonal
workers: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"production", "price"}, cfg.GetVariables())
	assert.Equal(t, 3, cfg.GetLags())
	assert.False(t, cfg.GetLogDiff())
	assert.Equal(t, "orthogonal", cfg.GetShockPolicy())
	assert.Equal(t, 4, cfg.GetWorkers())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		body   string
		errMsg string
		field  string
	}{
		{"wrong extension", "run.toml", "regimes = 2", "extension", ""},
		{"bad json", "run.json", "{", "parse config JSON", ""},
		{"bad yaml", "run.yml", "regimes: [", "parse config YAML", ""},
		{"zero regimes", "run.json", `{"regimes": 0}`, "regimes", "regimes"},
		{"zero lags", "run.yaml", "lags: 0", "lags", "lags"},
		{"empty variables", "run.json", `{"variables": []}`, "variable list is empty", "variables"},
		{"duplicate variable", "run.yaml", "variables: [price, price]", "duplicate", "variables"},
		{"bad timeout", "run.json", `{"timeout": "soon"}`, "invalid timeout", ""},
		{"bad init", "run.json", `{"init_policy": "random"}`, "init policy", ""},
		{"bad shock", "run.yaml", "shock_policy: girf", "shock policy", ""},
		{"bad tolerance", "run.json", `{"tolerance": -1}`, "tolerance", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.field != "" {
				var ce *msvar.ConfigurationError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.field, ce.Field)
			}
		})
	}

	t.Run("too large", func(t *testing.T) {
		body := `{"data_path": "` + strings.Repeat("x", maxFileSize) + `"}`
		_, err := Load(writeConfig(t, "big.json", body))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.json"))
		assert.Error(t, err)
	})
}
