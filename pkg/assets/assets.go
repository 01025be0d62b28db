// Package assets fetches pre-generated keycap meshes by asset name
// ("dsa-1.25", "mt3-3-1.5", ...) from a JSON bundle, a directory of STL
// files or a MinIO bucket. Every source decodes binary STL into
// kernel.Mesh and leaves caching to the keycaps package.
package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/logging"
)

// ErrNotFound is returned when a source has no mesh under the asked name.
var ErrNotFound = errors.New("assets: mesh not found")

// Fetcher loads a keycap mesh by asset name.
type Fetcher interface {
	FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error)
}

// Source kinds accepted by Open.
const (
	SourceBundle = "bundle"
	SourceDir    = "dir"
	SourceMinio  = "minio"
)

// Config selects and configures a mesh source.
type Config struct {
	Source string `mapstructure:"source"` // bundle, dir or minio
	Path   string `mapstructure:"path"`   // bundle file or directory

	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
}

// Open builds the Fetcher described by cfg.
func Open(cfg Config, log logging.Logger) (Fetcher, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	switch cfg.Source {
	case SourceBundle, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("assets: bundle source needs a path")
		}
		return NewBundleFile(cfg.Path), nil
	case SourceDir:
		if cfg.Path == "" {
			return nil, fmt.Errorf("assets: dir source needs a path")
		}
		return NewDir(cfg.Path), nil
	case SourceMinio:
		m, err := NewMinio(MinioConfig{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Secure:    cfg.Secure,
		}, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("assets: unknown source %q", cfg.Source)
	}
}
