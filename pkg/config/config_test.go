package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
community:
  epsilon: 0.0001
centrality:
  sample_fraction: 0.5
  seed: 42
vulnerability:
  removal_budget: 3
  policy: degree
workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0001, cfg.Community.Epsilon)
	assert.Equal(t, 100, cfg.Community.MaxPasses, "unset fields keep defaults")
	assert.Equal(t, 2000, cfg.Centrality.ExactThreshold)
	assert.Equal(t, 0.5, cfg.Centrality.SampleFraction)
	assert.Equal(t, int64(42), cfg.Centrality.Seed)
	assert.Equal(t, "degree", cfg.Vulnerability.Policy)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 0.4, cfg.Equity.SeverityThresholds.Floors["accessibility_index"])
}

func TestLoad_NegativeSampleFraction(t *testing.T) {
	path := writeConfig(t, `
centrality:
  sample_fraction: -0.2
`)

	cfg, err := Load(path)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "sample_fraction")
}

func TestLoad_UnknownPolicy(t *testing.T) {
	path := writeConfig(t, `
vulnerability:
  policy: pagerank
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pagerank")
}

func TestLoad_ClosenessPolicy(t *testing.T) {
	path := writeConfig(t, `
vulnerability:
  policy: closeness
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "closeness", cfg.Vulnerability.Policy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Equity.SeverityThresholds.HighStdDev = 0.5
	cfg.Equity.SeverityThresholds.MediumStdDev = 1.0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "high_std_dev")
}

func TestValidate_NegativeFloor(t *testing.T) {
	cfg := Default()
	cfg.Equity.SeverityThresholds.Floors["accessibility_index"] = -0.1

	assert.Error(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "community: [not a mapping")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
