package corpusio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TrevorS/agglo"
	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML configuration of one agglotrain run. Relative paths
// are resolved against the directory of the configuration file.
type RunConfig struct {
	// Definition is the YAML feature definition file.
	Definition string `yaml:"definition" validate:"required"`

	// Vectors is the feature vector file, optionally ending in .zst.
	Vectors string `yaml:"vectors" validate:"required"`

	// Distance selects the distance measure.
	Distance string `yaml:"distance" validate:"omitempty,oneof=hamming weighted payload"`

	// Weights are the per-feature weights of the weighted distance.
	Weights []float64 `yaml:"weights" validate:"required_if=Distance weighted,dive,gte=0"`

	// Payload is the per-vector payload file of the payload distance.
	Payload string `yaml:"payload" validate:"required_if=Distance payload"`

	// Features restricts feature selection; empty means every byte feature.
	Features []string `yaml:"features"`

	HoldoutSkip   int     `yaml:"holdout_skip" validate:"ne=1"`
	MinLeafGrowth float64 `yaml:"min_leaf_growth" validate:"gte=0"`
	Workers       int     `yaml:"workers" validate:"gte=0"`

	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=text json"`

	// MetricsTextfile, when set, receives Prometheus metrics at the end of
	// the run.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// DefaultRunConfig returns the defaults applied before a file is decoded.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Distance:      "hamming",
		HoldoutSkip:   agglo.DefaultHoldoutSkip,
		MinLeafGrowth: agglo.DefaultMinLeafGrowth,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadConfig reads and validates a run configuration.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("corpusio: decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	return &cfg, nil
}

// Validate checks the field constraints of c.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("corpusio: invalid config: %w", err)
	}
	return nil
}

func (c *RunConfig) resolve(dir string) {
	for _, p := range []*string{&c.Definition, &c.Vectors, &c.Payload, &c.MetricsTextfile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Level returns the configured log level.
func (c *RunConfig) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DistanceMeasure builds the configured distance for a corpus of
// numVectors vectors over def. The payload distance loads its payload file,
// which needs one row per vector.
func (c *RunConfig) DistanceMeasure(def *agglo.FeatureDefinition, numVectors int) (agglo.DistanceMeasure, error) {
	switch c.Distance {
	case "weighted":
		if len(c.Weights) != def.NumFeatures() {
			return nil, fmt.Errorf("corpusio: %d weights for %d features", len(c.Weights), def.NumFeatures())
		}
		return agglo.WeightedHamming{Weights: c.Weights}, nil
	case "payload":
		payload, err := LoadPayload(c.Payload)
		if err != nil {
			return nil, err
		}
		if len(payload) < numVectors {
			return nil, fmt.Errorf("corpusio: payload has %d rows for %d vectors", len(payload), numVectors)
		}
		return agglo.NewPayloadDistance(payload)
	default:
		return agglo.HammingDistance{}, nil
	}
}

// TrainConfig maps c onto an agglo.Config. Distance, Logger and Observer
// are left for the caller.
func (c *RunConfig) TrainConfig() agglo.Config {
	cfg := agglo.DefaultConfig()
	cfg.HoldoutSkip = c.HoldoutSkip
	cfg.Features = c.Features
	cfg.MinLeafGrowth = c.MinLeafGrowth
	cfg.Workers = c.Workers
	return cfg
}
