package minio

import (
	"context"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// ObjectSource is a phreeqc.Source over "<prefix><name>.dat" objects.
type ObjectSource struct {
	api    ObjectAPI
	bucket string
	prefix string
	logger logging.Logger
}

// NewObjectSource returns a source over bucket.
func NewObjectSource(api ObjectAPI, bucket, prefix string, logger logging.Logger) *ObjectSource {
	return &ObjectSource{
		api:    api,
		bucket: bucket,
		prefix: prefix,
		logger: logging.OrDefault(logger).Named("minio_source"),
	}
}

func (s *ObjectSource) key(name string) string {
	return s.prefix + name + phreeqc.DatabaseExt
}

// Open implements phreeqc.Source.
func (s *ObjectSource) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	key := s.key(name)
	r, err := s.api.Get(ctx, s.bucket, key)
	if err != nil {
		return nil, "", err
	}
	return r, "s3://" + s.bucket + "/" + key, nil
}

// Ping checks that the bucket is reachable.
func (s *ObjectSource) Ping(ctx context.Context) error {
	ok, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "object store unreachable")
	}
	if !ok {
		return errors.NotFound("bucket " + s.bucket + " does not exist")
	}
	return nil
}

// List implements phreeqc.Source.  Only direct children of the prefix with
// the database extension are reported.
func (s *ObjectSource) List(ctx context.Context) ([]string, error) {
	objs, err := s.api.List(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, o := range objs {
		rest := strings.TrimPrefix(o.Key, s.prefix)
		if strings.Contains(rest, "/") || path.Ext(rest) != phreeqc.DatabaseExt {
			continue
		}
		names = append(names, strings.TrimSuffix(rest, phreeqc.DatabaseExt))
	}
	sort.Strings(names)
	return names, nil
}

// Upload stores the local database file at localPath under its database
// name and returns that name.
func (s *ObjectSource) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if os.IsNotExist(err) {
		return "", errors.DatabaseNotFound(localPath)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to open database file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to stat database file")
	}
	name := phreeqc.DatabaseName(localPath)
	if err := s.api.Put(ctx, s.bucket, s.key(name), f, info.Size()); err != nil {
		return "", err
	}
	s.logger.Info("database uploaded", logging.Database(name), logging.String("bucket", s.bucket), logging.Int64("bytes", info.Size()))
	return name, nil
}

//Personal.AI order the ending
