package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// DefaultPrefix namespaces every key written by OutputCache.
const DefaultPrefix = "phreeqprep:"

// OutputCache stores SELECTED_OUTPUT blocks in Redis.  It satisfies
// speciation.OutputCache.
type OutputCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
}

// CacheOption configures an OutputCache.
type CacheOption func(*OutputCache)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *OutputCache) { c.prefix = prefix }
}

// WithTTL sets the expiry of stored blocks.  Zero keeps them until
// invalidated.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *OutputCache) { c.ttl = ttl }
}

// NewOutputCache returns a cache over client.
func NewOutputCache(client *Client, logger logging.Logger, opts ...CacheOption) *OutputCache {
	c := &OutputCache{
		client: client,
		logger: logging.OrDefault(logger).Named("output_cache"),
		prefix: DefaultPrefix,
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OutputCache) key(k string) string { return c.prefix + k }

// Get returns the block under key.  A missing key is not an error.
func (c *OutputCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.client.isClosed() {
		return "", false, ErrClientClosed
	}
	v, err := c.client.rdb.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read output cache")
	}
	return v, true, nil
}

// Set stores block under key.
func (c *OutputCache) Set(ctx context.Context, key, block string) error {
	if c.client.isClosed() {
		return ErrClientClosed
	}
	if err := c.client.rdb.Set(ctx, c.key(key), block, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write output cache")
	}
	return nil
}

// InvalidateDatabase deletes every block rendered against database and
// returns how many were removed.
func (c *OutputCache) InvalidateDatabase(ctx context.Context, database string) (int64, error) {
	if c.client.isClosed() {
		return 0, ErrClientClosed
	}
	pattern := c.key("selected_output:" + database + ":*")

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan output cache")
		}
		if len(keys) > 0 {
			n, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to purge output cache")
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.logger.Info("output cache invalidated", logging.Database(database), logging.Int64("keys", removed))
	return removed, nil
}

//Personal.AI order the ending
