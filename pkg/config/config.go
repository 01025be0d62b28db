// Package config loads cuttlecase runtime settings from an optional YAML
// file and CUTTLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chazu/cuttlecase/pkg/assets"
	"github.com/chazu/cuttlecase/pkg/logging"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "CUTTLE"

// Config is the root configuration.
type Config struct {
	Log    logging.Config `mapstructure:"log"`
	Server ServerConfig   `mapstructure:"server"`
	Assets assets.Config  `mapstructure:"assets"`
	Eval   EvalConfig     `mapstructure:"eval"`
	Mesh   MeshConfig     `mapstructure:"mesh"`
}

// ServerConfig configures the HTTP preview server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EvalConfig bounds layout evaluation.
type EvalConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MeshConfig controls preview tessellation and keycap prefetching.
type MeshConfig struct {
	Cells       int `mapstructure:"cells"`       // marching cubes resolution
	Concurrency int `mapstructure:"concurrency"` // parallel keycap fetches when warming
}

// defaults lists every key with its default so that environment overrides
// reach Unmarshal even without a config file.
var defaults = map[string]interface{}{
	"log.level":               "info",
	"log.format":              "console",
	"log.output_paths":        []string{"stderr"},
	"server.addr":             ":8080",
	"server.shutdown_timeout": "10s",
	"assets.source":           assets.SourceBundle,
	"assets.path":             "keys-simple.json",
	"assets.endpoint":         "",
	"assets.bucket":           "",
	"assets.prefix":           "",
	"assets.access_key":       "",
	"assets.secret_key":       "",
	"assets.secure":           false,
	"eval.timeout":            "5s",
	"mesh.cells":              200,
	"mesh.concurrency":        8,
}

// newViper builds a Viper with YAML files, the CUTTLE_ env prefix and "."
// mapped to "_" so that "assets.bucket" reads CUTTLE_ASSETS_BUCKET.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// Load reads the YAML file at path, when path is not empty, merges CUTTLE_*
// environment overrides, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Assets.Source == "" {
		cfg.Assets.Source = assets.SourceBundle
	}
	if cfg.Assets.Source == assets.SourceBundle && cfg.Assets.Path == "" {
		cfg.Assets.Path = "keys-simple.json"
	}
	if cfg.Eval.Timeout <= 0 {
		cfg.Eval.Timeout = 5 * time.Second
	}
	if cfg.Mesh.Cells <= 0 {
		cfg.Mesh.Cells = 200
	}
	if cfg.Mesh.Concurrency <= 0 {
		cfg.Mesh.Concurrency = 8
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch c.Assets.Source {
	case assets.SourceBundle, assets.SourceDir:
		if c.Assets.Path == "" {
			errs = append(errs, fmt.Errorf("assets.path: required for source %q", c.Assets.Source))
		}
	case assets.SourceMinio:
		if c.Assets.Endpoint == "" {
			errs = append(errs, errors.New("assets.endpoint: required for source \"minio\""))
		}
		if c.Assets.Bucket == "" {
			errs = append(errs, errors.New("assets.bucket: required for source \"minio\""))
		}
	default:
		errs = append(errs, fmt.Errorf("assets.source: unknown source %q", c.Assets.Source))
	}
	if c.Mesh.Cells < 8 {
		errs = append(errs, fmt.Errorf("mesh.cells: %d is too coarse, need at least 8", c.Mesh.Cells))
	}
	return errors.Join(errs...)
}
