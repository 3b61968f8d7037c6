// Package config loads crisiswatch settings from defaults, a YAML file,
// a .env file and CRISISWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Variants of the labeling pipeline.
const (
	// VariantValidated exposes a tunable contamination and the crisis table.
	VariantValidated = "validated"
	// VariantMinimal pins contamination to FixedContamination.
	VariantMinimal = "minimal"
)

// Contamination bounds for the validated variant, and the fixed value of
// the minimal one.
const (
	MinContamination   = 0.01
	MaxContamination   = 0.20
	FixedContamination = 0.05
)

// EnvPrefix prefixes every environment override, e.g. CRISISWATCH_SEED.
const EnvPrefix = "CRISISWATCH"

// Config is the complete tool configuration.
type Config struct {
	Variant       string       `mapstructure:"variant" yaml:"variant"`
	Contamination float64      `mapstructure:"contamination" yaml:"contamination"`
	Seed          int64        `mapstructure:"seed" yaml:"seed"`
	Forest        ForestConfig `mapstructure:"forest" yaml:"forest"`
	Log           LogConfig    `mapstructure:"log" yaml:"log"`
}

// ForestConfig sizes the Isolation Forest.
type ForestConfig struct {
	Trees      int `mapstructure:"trees" yaml:"trees"`
	SampleSize int `mapstructure:"sample_size" yaml:"sample_size"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Variant:       VariantValidated,
		Contamination: FixedContamination,
		Seed:          42,
		Forest: ForestConfig{
			Trees:      100,
			SampleSize: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration. Precedence: env > .env > config file > defaults.
// An empty cfgFile looks for crisiswatch.yaml in the working directory and
// tolerates its absence; an explicit cfgFile must exist.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("variant", d.Variant)
	v.SetDefault("contamination", d.Contamination)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("forest.trees", d.Forest.Trees)
	v.SetDefault("forest.sample_size", d.Forest.SampleSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("crisiswatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantValidated:
		if err := ValidateContamination(c.Contamination); err != nil {
			return err
		}
	case VariantMinimal:
	default:
		return fmt.Errorf("invalid variant: %q, must be %q or %q", c.Variant, VariantValidated, VariantMinimal)
	}

	if c.Forest.Trees <= 0 {
		return fmt.Errorf("forest.trees must be positive, got %d", c.Forest.Trees)
	}
	if c.Forest.SampleSize <= 0 {
		return fmt.Errorf("forest.sample_size must be positive, got %d", c.Forest.SampleSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'console'", c.Log.Format)
	}
	return nil
}

// ValidateContamination checks the operator-tunable range.
func ValidateContamination(c float64) error {
	if c < MinContamination || c > MaxContamination {
		return fmt.Errorf("contamination %v out of range [%v, %v]", c, MinContamination, MaxContamination)
	}
	return nil
}

// EffectiveContamination is the value handed to the labeler.
func (c *Config) EffectiveContamination() float64 {
	if c.Variant == VariantMinimal {
		return FixedContamination
	}
	return c.Contamination
}

// CrisisTable reports whether the crisis table output is enabled.
func (c *Config) CrisisTable() bool {
	return c.Variant == VariantValidated
}

// Save writes c as YAML to path, creating parent directories.
func Save(c *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
