// Package config handles spectrafit run configuration loading.
package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/prior"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "fit.yaml"

// Config is the root configuration structure.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Model   ModelConfig   `yaml:"model"`
	Sampler SamplerConfig `yaml:"sampler"`
	Priors  []PriorConfig `yaml:"priors"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the observed spectrum.
type DataConfig struct {
	Path string `yaml:"path"`

	// CL overrides the upper-limit confidence level from the table.
	CL *float64 `yaml:"cl,omitempty"`
}

// ModelConfig selects a registered model and its starting point.
type ModelConfig struct {
	Name   string    `yaml:"name"`
	P0     []float64 `yaml:"p0,omitempty"`
	Labels []string  `yaml:"labels,omitempty"`

	// E0 is the pivot energy in TeV; 0 uses the geometric mean of the data.
	E0 float64 `yaml:"e0,omitempty"`
}

// SamplerConfig holds ensemble settings.
type SamplerConfig struct {
	Walkers   int  `yaml:"walkers"`
	BurnSteps int  `yaml:"burn_steps"`
	Steps     int  `yaml:"steps"`
	Threads   int  `yaml:"threads"`
	Guess     bool `yaml:"guess"`

	// Seed 0 draws a fresh seed for every run.
	Seed         uint64  `yaml:"seed"`
	StretchScale float64 `yaml:"stretch_scale,omitempty"`
}

// PriorConfig is one term of the log-prior, applied to the parameter with
// the given label. Kind is "uniform" (Min, Max) or "normal" (Mean, Sigma).
// A missing uniform bound is unbounded.
type PriorConfig struct {
	Param string   `yaml:"param"`
	Kind  string   `yaml:"kind"`
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
	Mean  float64  `yaml:"mean,omitempty"`
	Sigma float64  `yaml:"sigma,omitempty"`
}

// OutputConfig controls what a run writes.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Chain    bool   `yaml:"chain"`
	Progress bool   `yaml:"progress"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path: "spectrum.csv",
		},
		Model: ModelConfig{
			Name:   "ecpl",
			P0:     []float64{1.5e-12, 2.4, 1.176},
			Labels: []string{"norm", "index", "log10(cutoff)"},
		},
		Sampler: SamplerConfig{
			Walkers:   64,
			BurnSteps: 100,
			Steps:     100,
			Threads:   4,
			Guess:     true,
		},
		Priors: []PriorConfig{
			{Param: "norm", Kind: "uniform", Min: float64Ptr(0)},
			{Param: "index", Kind: "uniform", Min: float64Ptr(-1), Max: float64Ptr(5)},
		},
		Output: OutputConfig{
			Dir:      "./results",
			Chain:    true,
			Progress: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapConfig(err, ferrors.ErrConfigNotFound, "configuration file not found").
				WithContext("path", path)
		}
		return nil, ferrors.WrapIO(err, ferrors.ErrIOReadFailed, "failed to read config").
			WithContext("path", path)
	}

	cfg := Default()
	// Lists replace the defaults rather than merging into them.
	cfg.Model.P0, cfg.Model.Labels, cfg.Priors = nil, nil, nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ferrors.WrapConfig(err, ferrors.ErrConfigParseFailed, "failed to parse config").
			WithContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		if fe, ok := ferrors.AsFitError(err); ok {
			return nil, fe.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ferrors.WrapConfig(err, ferrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext("path", dir)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return ferrors.WrapConfig(err, ferrors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return ferrors.WrapConfig(err, ferrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// InitConfig creates a default config file if it doesn't exist. It reports
// whether a file was written.
func InitConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	return true, Default().Save(path)
}

// Validate checks the configuration for values the run cannot use.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return ferrors.Config(ferrors.ErrConfigMissingDataset, "data.path is empty")
	}
	if cl := c.Data.CL; cl != nil && !(*cl > 0 && *cl < 1) {
		return ferrors.Configf(ferrors.ErrConfigInvalid, "data.cl %g is outside (0, 1)", *cl).
			WithContext("field", "data.cl")
	}
	if c.Model.Name == "" {
		return ferrors.Config(ferrors.ErrConfigMissingModel, "model.name is empty")
	}
	if len(c.Model.P0) > 0 && len(c.Model.Labels) > len(c.Model.P0) {
		return ferrors.Configf(ferrors.ErrConfigInvalidLabels,
			"model.labels has %d entries for %d parameters", len(c.Model.Labels), len(c.Model.P0))
	}
	if c.Model.E0 < 0 {
		return ferrors.Configf(ferrors.ErrConfigInvalid, "model.e0 must not be negative, got %g", c.Model.E0).
			WithContext("field", "model.e0")
	}

	s := c.Sampler
	switch {
	case s.Walkers < 0 || s.Walkers%2 != 0:
		return invalid("sampler.walkers", "must be a non-negative even number")
	case s.BurnSteps < 0:
		return invalid("sampler.burn_steps", "must not be negative")
	case s.Steps <= 0:
		return invalid("sampler.steps", "must be positive")
	case s.Threads < 0:
		return invalid("sampler.threads", "must not be negative")
	case s.StretchScale != 0 && s.StretchScale <= 1:
		return invalid("sampler.stretch_scale", "must be greater than 1")
	}

	for _, p := range c.Priors {
		if _, err := p.term(0); err != nil {
			return err
		}
	}

	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return ferrors.WrapConfig(err, ferrors.ErrConfigInvalid, "logging.level is not a log level").
				WithContext("field", "logging.level")
		}
	}
	if e := c.Logging.Encoding; e != "" && e != "json" && e != "console" {
		return invalid("logging.encoding", `must be "json" or "console"`)
	}
	return nil
}

// Prior builds the log-prior over parameters named by labels. It returns
// nil, a flat prior, when no priors are configured.
func (c *Config) Prior(labels []string) (prior.Func, error) {
	if len(c.Priors) == 0 {
		return nil, nil
	}
	terms := make([]prior.Func, 0, len(c.Priors))
	for _, p := range c.Priors {
		idx := slices.Index(labels, p.Param)
		if idx < 0 {
			return nil, ferrors.Configf(ferrors.ErrConfigInvalid, "prior on unknown parameter %q", p.Param).
				WithContext("field", "priors")
		}
		f, err := p.term(idx)
		if err != nil {
			return nil, err
		}
		terms = append(terms, f)
	}
	return prior.Sum(terms...), nil
}

// String renders the term canonically, e.g. "index:uniform[-1,5]" or
// "norm:normal(1e-12,1e-13)". Missing uniform bounds print as -Inf/+Inf.
func (p PriorConfig) String() string {
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	switch p.Kind {
	case "uniform":
		lo, hi := "-Inf", "+Inf"
		if p.Min != nil {
			lo = g(*p.Min)
		}
		if p.Max != nil {
			hi = g(*p.Max)
		}
		return p.Param + ":uniform[" + lo + "," + hi + "]"
	case "normal":
		return p.Param + ":normal(" + g(p.Mean) + "," + g(p.Sigma) + ")"
	}
	return p.Param + ":" + p.Kind
}

// PriorString joins the configured prior terms in order with ";". It is
// empty when no priors are configured.
func (c *Config) PriorString() string {
	terms := make([]string, len(c.Priors))
	for i, p := range c.Priors {
		terms[i] = p.String()
	}
	return strings.Join(terms, ";")
}

func (p PriorConfig) term(index int) (prior.Func, error) {
	switch p.Kind {
	case "uniform":
		lo, hi := math.Inf(-1), math.Inf(1)
		if p.Min != nil {
			lo = *p.Min
		}
		if p.Max != nil {
			hi = *p.Max
		}
		if lo > hi {
			return nil, invalid("priors", "uniform prior on "+p.Param+" has min > max")
		}
		return prior.UniformOn(index, lo, hi), nil
	case "normal":
		if !(p.Sigma > 0) {
			return nil, invalid("priors", "normal prior on "+p.Param+" needs a positive sigma")
		}
		return prior.NormalOn(index, p.Mean, p.Sigma), nil
	}
	return nil, invalid("priors", "unknown prior kind "+strconv.Quote(p.Kind)+" on "+p.Param)
}

func invalid(field, msg string) error {
	return ferrors.Config(ferrors.ErrConfigInvalid, field+" "+msg).WithContext("field", field)
}

func float64Ptr(v float64) *float64 { return &v }
