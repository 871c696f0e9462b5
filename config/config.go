// Package config loads the YAML run configuration used by the command line
// tool. Values from the file override the defaults, command line flags
// override both.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config represents the parsed contents of a configuration file
type Config struct {
	Limits Limits `yaml:"limits"`
	Log    Log    `yaml:"log"`
	Output Output `yaml:"output"`
}

// Limits bound the resources a single program run may use
type Limits struct {
	MaxSteps     int `yaml:"max_steps"`
	MaxCallDepth int `yaml:"max_call_depth"`
}

// Log selects the verbosity of diagnostic logging
type Log struct {
	Level string `yaml:"level"`
}

// Output controls how results and diagnostics are rendered
type Output struct {
	Color bool `yaml:"color"`
}

// ValidationError collects every problem found in a configuration
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config: " + strings.Join(e.Issues, "; ")
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Limits: Limits{
			MaxSteps:     0,
			MaxCallDepth: 1024,
		},
		Log: Log{
			Level: "warn",
		},
		Output: Output{
			Color: true,
		},
	}
}

// Load reads a configuration file. Fields missing from the file keep their
// default values and unknown fields are rejected
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	return Decode(file, path)
}

// Decode parses a configuration from r. The name is only used in error
// messages
func Decode(r io.Reader, name string) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every out of range or unknown value
func (c *Config) Validate() error {
	var errs ValidationError

	if c.Limits.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, "limits.max_steps must not be negative")
	}

	if c.Limits.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "limits.max_call_depth must not be negative")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}

	if len(errs.Issues) > 0 {
		return &errs
	}

	return nil
}

// LogLevel converts the configured level name to a zerolog level. Invalid
// names fall back to warn
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.WarnLevel
	}

	return level
}
