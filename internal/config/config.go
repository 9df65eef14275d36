// Package config loads exlogic settings from .exlogic/config.yaml, a .env
// file and EXLOGIC_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/history"
)

// DefaultPath is the project-local config file
const DefaultPath = ".exlogic/config.yaml"

// Estimator kinds
const (
	EstimatorSidecar = "sidecar"
	EstimatorHTTP    = "http"
)

// Config is the full settings tree
type Config struct {
	Estimator EstimatorConfig `yaml:"estimator"`
	Capture   CaptureConfig   `yaml:"capture"`
	Schema    SchemaConfig    `yaml:"schema"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type EstimatorConfig struct {
	Kind      string        `yaml:"kind"` // "sidecar" or "http"
	Endpoint  string        `yaml:"endpoint,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the cache
}

// MarshalYAML writes the timeout as a duration string
func (e EstimatorConfig) MarshalYAML() (any, error) {
	return struct {
		Kind      string `yaml:"kind"`
		Endpoint  string `yaml:"endpoint,omitempty"`
		Timeout   string `yaml:"timeout,omitempty"`
		CacheSize int    `yaml:"cache_size"`
	}{e.Kind, e.Endpoint, e.Timeout.String(), e.CacheSize}, nil
}

type CaptureConfig struct {
	Workers           int     `yaml:"workers"`
	IncludeCOCO       bool    `yaml:"include_coco"`
	Figure            bool    `yaml:"figure"`
	RepLogic          string  `yaml:"rep_logic,omitempty"`
	ToleranceAngleDeg float64 `yaml:"tolerance_angle_deg"`
	ToleranceRatioPct float64 `yaml:"tolerance_ratio_pct"`
}

type SchemaConfig struct {
	Path     string `yaml:"path,omitempty"` // empty uses the embedded schema
	Disabled bool   `yaml:"disabled,omitempty"`
}

type HistoryConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Estimator: EstimatorConfig{
			Kind:      EstimatorSidecar,
			Timeout:   30 * time.Second,
			CacheSize: 256,
		},
		Capture: CaptureConfig{
			Workers:           1,
			Figure:            true,
			RepLogic:          "start -> end",
			ToleranceAngleDeg: 15,
			ToleranceRatioPct: 0.15,
		},
		History: HistoryConfig{Path: history.DefaultPath},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads settings. An empty path tries DefaultPath and falls back to the
// defaults when it is absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, errors.NewFileNotFoundError(path)
	default:
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read config", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("EXLOGIC_ESTIMATOR", &c.Estimator.Kind)
	str("EXLOGIC_ENDPOINT", &c.Estimator.Endpoint)
	str("EXLOGIC_SCHEMA", &c.Schema.Path)
	str("EXLOGIC_HISTORY", &c.History.Path)
	str("EXLOGIC_LOG_LEVEL", &c.Logging.Level)
	str("EXLOGIC_LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("EXLOGIC_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("EXLOGIC_TIMEOUT", v, err)
		}
		c.Estimator.Timeout = d
	}
	for key, dst := range map[string]*int{
		"EXLOGIC_WORKERS":    &c.Capture.Workers,
		"EXLOGIC_CACHE_SIZE": &c.Estimator.CacheSize,
	} {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return envError(key, v, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup("EXLOGIC_INCLUDE_COCO"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("EXLOGIC_INCLUDE_COCO", v, err)
		}
		c.Capture.IncludeCOCO = b
	}
	return nil
}

func envError(key, value string, cause error) error {
	return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid %s=%q", key, value), cause)
}

// Save writes c as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to encode config", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// Validate reports the first inconsistent setting
func (c *Config) Validate() error {
	switch strings.ToLower(c.Estimator.Kind) {
	case EstimatorSidecar:
	case EstimatorHTTP:
		if c.Estimator.Endpoint == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "http estimator requires an endpoint").
				WithSuggestion("Set estimator.endpoint or EXLOGIC_ENDPOINT")
		}
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown estimator kind %q", c.Estimator.Kind)).
			WithSuggestion("Use 'sidecar' or 'http'")
	}
	c.Estimator.Kind = strings.ToLower(c.Estimator.Kind)

	if c.Capture.Workers < 1 {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("workers must be at least 1, got %d", c.Capture.Workers))
	}
	if c.Estimator.CacheSize < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "cache_size must not be negative")
	}
	if c.Capture.ToleranceAngleDeg < 0 || c.Capture.ToleranceRatioPct < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "tolerances must not be negative")
	}
	return nil
}
