// Package minio serves chemistry databases from an S3-compatible bucket so
// that curated databases can be shared without shipping files to every
// host.
package minio

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// Config locates the bucket holding databases.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	// Prefix is prepended to every object key, e.g. "databases/".
	Prefix string `mapstructure:"prefix"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "phreeqprep-databases"
	}
}

// ObjectInfo is the part of an object listing callers need.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectAPI is the subset of the S3 API the package uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// NewClient connects to cfg.Endpoint and checks that the bucket exists.
func NewClient(ctx context.Context, cfg Config, logger logging.Logger) (*ObjectSource, error) {
	cfg.applyDefaults()
	if cfg.Endpoint == "" {
		return nil, errors.InvalidParam("minio endpoint is required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create minio client")
	}

	api := &minioAPI{c: mc}
	ok, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to reach minio")
	}
	if !ok {
		return nil, errors.NotFound("bucket " + cfg.Bucket)
	}
	logging.OrDefault(logger).Info("minio database source ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return NewObjectSource(api, cfg.Bucket, cfg.Prefix, logger), nil
}

// minioAPI adapts *minio.Client to ObjectAPI.
type minioAPI struct {
	c *minio.Client
}

func (a *minioAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.c.BucketExists(ctx, bucket)
}

// Get stats the object first so that a missing key fails here rather than
// on the first Read.
func (a *minioAPI) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if _, err := a.c.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, translate(err, key)
	}
	obj, err := a.c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err, key)
	}
	return obj, nil
}

func (a *minioAPI) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := a.c.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return translate(err, key)
	}
	return nil
}

func (a *minioAPI) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range a.c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: false}) {
		if obj.Err != nil {
			return nil, translate(obj.Err, prefix)
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return out, nil
}

func translate(err error, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.NotFound("object " + key)
	}
	if strings.Contains(err.Error(), "connection refused") {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unavailable")
	}
	return errors.Wrap(err, errors.ErrCodeStorage, "object storage request failed").WithDetail(key)
}

//Personal.AI order the ending
