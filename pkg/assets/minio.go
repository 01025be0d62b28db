package assets

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/logging"
)

// MinioConfig locates keycap meshes in an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Secure    bool
}

type objectGetter func(ctx context.Context, bucket, key string) (io.ReadCloser, error)

// Minio serves meshes stored as <prefix><name>.stl in a bucket.
type Minio struct {
	bucket string
	prefix string
	get    objectGetter
	log    logging.Logger
}

// NewMinio connects a MinIO client. No request is made until the first fetch.
func NewMinio(cfg MinioConfig, log logging.Logger) (*Minio, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("assets: minio source needs an endpoint and a bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("assets: minio client: %w", err)
	}
	get := func(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
		obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		return obj, nil
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	log.Info("keycap assets from minio",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.Secure))
	return newMinio(cfg.Bucket, cfg.Prefix, get, log), nil
}

func newMinio(bucket, prefix string, get objectGetter, log logging.Logger) *Minio {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Minio{bucket: bucket, prefix: prefix, get: get, log: log.Named("minio")}
}

// ObjectKey returns the bucket key of an asset.
func (m *Minio) ObjectKey(name string) string {
	return m.prefix + name + ".stl"
}

// FetchMesh implements Fetcher.
func (m *Minio) FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error) {
	key := m.ObjectKey(name)
	obj, err := m.get(ctx, m.bucket, key)
	if err != nil {
		return nil, m.fail(name, key, err)
	}
	defer obj.Close()

	// A missing object surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.fail(name, key, err)
	}
	mesh, err := DecodeSTL(data)
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", name, err)
	}
	m.log.Debug("fetched keycap mesh", logging.String("key", key), logging.Int("bytes", len(data)))
	return mesh, nil
}

func (m *Minio) fail(name, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.log.Warn("minio fetch failed", logging.String("key", key), logging.Err(err))
	return fmt.Errorf("assets: %s: %w", name, err)
}
