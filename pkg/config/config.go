// Package config loads and validates analysis configuration from YAML.
// Validation happens eagerly: a bad value is rejected before any
// computation starts.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-transit/pkg/validation"
)

// ErrInvalidConfig is the sentinel wrapped by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports an out-of-range or malformed configuration
// value, raised before any computation runs.
type ConfigurationError struct {
	Path  string // config file path, empty for in-memory configs
	Cause error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("config: %v", e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig || errors.Is(e.Cause, target)
}

// Community configures the detection stop condition.
type Community struct {
	Epsilon   float64 `yaml:"epsilon"`
	MaxPasses int     `yaml:"max_passes"`
}

// Centrality configures betweenness computation and sampling.
type Centrality struct {
	ExactThreshold int     `yaml:"exact_threshold"`
	SampleFraction float64 `yaml:"sample_fraction"`
	Seed           int64   `yaml:"seed"`
}

// Vulnerability configures the removal simulation.
type Vulnerability struct {
	RemovalBudget int    `yaml:"removal_budget"`
	Policy        string `yaml:"policy"` // centrality, degree, closeness or random
}

// SeverityThresholds configures equity gap classification.
type SeverityThresholds struct {
	HighStdDev   float64            `yaml:"high_std_dev"`
	MediumStdDev float64            `yaml:"medium_std_dev"`
	Floors       map[string]float64 `yaml:"floors"`
}

// Equity configures equity gap detection.
type Equity struct {
	SeverityThresholds SeverityThresholds `yaml:"severity_thresholds"`
}

// Config is the full analysis configuration surface.
type Config struct {
	Community     Community     `yaml:"community"`
	Centrality    Centrality    `yaml:"centrality"`
	Vulnerability Vulnerability `yaml:"vulnerability"`
	Equity        Equity        `yaml:"equity"`

	// Workers bounds parallel fan-out; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Community: Community{
			Epsilon:   1e-6,
			MaxPasses: 100,
		},
		Centrality: Centrality{
			ExactThreshold: 2000,
			SampleFraction: 0.25,
		},
		Vulnerability: Vulnerability{
			RemovalBudget: 10,
			Policy:        "centrality",
		},
		Equity: Equity{
			SeverityThresholds: SeverityThresholds{
				HighStdDev:   2.0,
				MediumStdDev: 1.0,
				Floors:       map[string]float64{"accessibility_index": 0.4},
			},
		},
	}
}

// Load reads a YAML config file, fills unset fields with defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}

	cfg.applyDefaults()
	if err := validation.ValidateConfig(cfg); err != nil {
		return nil, &ConfigurationError{Path: path, Cause: err}
	}
	return cfg, nil
}

// applyDefaults backfills zeroed numeric fields, so a partial YAML file
// overrides only what it names.
func (c *Config) applyDefaults() {
	d := Default()
	c.Community.Epsilon = validation.DefaultOr(c.Community.Epsilon, d.Community.Epsilon)
	c.Community.MaxPasses = validation.DefaultOr(c.Community.MaxPasses, d.Community.MaxPasses)
	c.Centrality.ExactThreshold = validation.DefaultOr(c.Centrality.ExactThreshold, d.Centrality.ExactThreshold)
	c.Centrality.SampleFraction = validation.DefaultOr(c.Centrality.SampleFraction, d.Centrality.SampleFraction)
	c.Vulnerability.Policy = validation.DefaultOr(c.Vulnerability.Policy, d.Vulnerability.Policy)
	c.Equity.SeverityThresholds.HighStdDev = validation.DefaultOr(
		c.Equity.SeverityThresholds.HighStdDev, d.Equity.SeverityThresholds.HighStdDev)
	c.Equity.SeverityThresholds.MediumStdDev = validation.DefaultOr(
		c.Equity.SeverityThresholds.MediumStdDev, d.Equity.SeverityThresholds.MediumStdDev)
	if c.Equity.SeverityThresholds.Floors == nil {
		c.Equity.SeverityThresholds.Floors = d.Equity.SeverityThresholds.Floors
	}
}

// Validate checks every recognized option, collecting all violations.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config").
		PositiveFloat("community.epsilon", c.Community.Epsilon).
		Positive("community.max_passes", c.Community.MaxPasses).
		Positive("centrality.exact_threshold", c.Centrality.ExactThreshold).
		Fraction("centrality.sample_fraction", c.Centrality.SampleFraction).
		NonNegative("vulnerability.removal_budget", c.Vulnerability.RemovalBudget).
		Required("vulnerability.policy", c.Vulnerability.Policy).
		OneOf("vulnerability.policy", c.Vulnerability.Policy,
			[]string{"centrality", "degree", "closeness", "random"}).
		PositiveFloat("equity.severity_thresholds.high_std_dev", c.Equity.SeverityThresholds.HighStdDev).
		PositiveFloat("equity.severity_thresholds.medium_std_dev", c.Equity.SeverityThresholds.MediumStdDev).
		When(c.Equity.SeverityThresholds.HighStdDev > 0 && c.Equity.SeverityThresholds.MediumStdDev > 0,
			func(v *validation.ConfigValidator) {
				v.Custom("equity.severity_thresholds", func() error {
					if c.Equity.SeverityThresholds.HighStdDev < c.Equity.SeverityThresholds.MediumStdDev {
						return fmt.Errorf("high_std_dev %f must be >= medium_std_dev %f",
							c.Equity.SeverityThresholds.HighStdDev, c.Equity.SeverityThresholds.MediumStdDev)
					}
					return nil
				})
			}).
		NonNegative("workers", c.Workers)

	for name, floor := range c.Equity.SeverityThresholds.Floors {
		cv.NonNegativeFloat("equity.severity_thresholds.floors."+name, floor)
	}

	if err := cv.Validate(); err != nil {
		return &ConfigurationError{Cause: err}
	}
	return nil
}
