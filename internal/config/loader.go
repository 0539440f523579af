package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TRAJECTORY_"
	envConfig  = envPrefix + "CONFIG"
	formatJSON = "json"
	formatText = "text"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TRAJECTORY_CONFIG is set
//  3. env (prefix TRAJECTORY_)
func Load() (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TRAJECTORY_DB_PATH -> db_path. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.FileGlob) == "":
		return fmt.Errorf("%w: file_glob must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputPath) == "":
		return fmt.Errorf("%w: output_path must not be empty", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	case c.MinSampleSize < 1:
		return fmt.Errorf("%w: min_sample_size must be at least 1", ErrInvalidConfig)
	case c.LogFormat != formatJSON && c.LogFormat != formatText:
		return fmt.Errorf("%w: log_format must be %q or %q", ErrInvalidConfig, formatJSON, formatText)
	case c.ExpectedPersons < 0:
		return fmt.Errorf("%w: expected_persons must not be negative", ErrInvalidConfig)
	}
	for i := 1; i < len(c.PhaseDurationBuckets); i++ {
		if c.PhaseDurationBuckets[i] <= c.PhaseDurationBuckets[i-1] {
			return fmt.Errorf("%w: phase_duration_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	for name, v := range map[string]int{
		"velocity_keys":               c.VelocityKeys,
		"role_transition_keys":        c.RoleTransitionKeys,
		"role_transition_targets":     c.RoleTransitionTargets,
		"industry_transition_keys":    c.IndustryTransitionKeys,
		"industry_transition_targets": c.IndustryTransitionTargets,
		"major_keys":                  c.MajorKeys,
		"major_targets":               c.MajorTargets,
		"path_keys":                   c.PathKeys,
		"path_targets":                c.PathTargets,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
