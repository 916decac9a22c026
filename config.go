package ascii2nc

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of a conversion run.
type Config struct {
	NLat int `yaml:"n_lat"`
	NLon int `yaml:"n_lon"`

	// Scalar field metadata
	Variable Variable `yaml:"variable"`

	Synthetic SyntheticConfig `yaml:"synthetic"`

	// Write a cell_area variable next to the scalar field.
	CellArea bool `yaml:"cell_area"`

	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
}

// SyntheticConfig enables the stripe test field for coordinate-only tables.
type SyntheticConfig struct {
	Enabled     bool `yaml:"enabled"`
	StripeWidth int  `yaml:"stripe_width"`
}

// FetchConfig configures remote inputs.
type FetchConfig struct {
	Timeout  string `yaml:"timeout"`   // Go duration, e.g. "120s"
	MaxBytes int64  `yaml:"max_bytes"` // cap on the response body
}

// LoggingConfig configures the command's logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the command-line defaults: a 512x256
// grid of bedrock topography.
func DefaultConfig() *Config {
	return &Config{
		NLat:     256,
		NLon:     512,
		Variable: DefaultVariable(),
		Synthetic: SyntheticConfig{
			StripeWidth: DefaultStripeWidth,
		},
		Fetch: FetchConfig{
			Timeout:  "120s",
			MaxBytes: DefaultMaxBytes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrConfig, Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Kind: ErrConfig, Path: path, Err: fmt.Errorf("failed to parse config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, withPath(err, path)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise only fail deep inside a
// run.
func (c *Config) Validate() error {
	configErr := func(format string, args ...any) error {
		return &Error{Kind: ErrConfig, Err: fmt.Errorf(format, args...)}
	}
	if c.NLat <= 0 || c.NLon <= 0 {
		return configErr("n_lat and n_lon must be positive, got n_lat=%d n_lon=%d", c.NLat, c.NLon)
	}
	if c.Variable.Name == "" {
		return configErr("variable.name must not be empty")
	}
	if c.Synthetic.StripeWidth < 0 {
		return configErr("synthetic.stripe_width must not be negative, got %d", c.Synthetic.StripeWidth)
	}
	if c.Fetch.MaxBytes < 0 {
		return configErr("fetch.max_bytes must not be negative, got %d", c.Fetch.MaxBytes)
	}
	if _, err := c.FetchTimeout(); err != nil {
		return configErr("fetch.timeout: %v", err)
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return configErr("logging.level: %v", err)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return configErr("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// FetchTimeout parses Fetch.Timeout; empty means no timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	if c.Fetch.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}
