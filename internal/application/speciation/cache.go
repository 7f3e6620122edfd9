package speciation

import (
	"context"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/turtacn/phreeqprep/internal/domain/chemistry"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// OutputCache stores rendered SELECTED_OUTPUT blocks.  A miss is reported
// as ok == false with a nil error.
type OutputCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, block string) error
}

// CacheKey identifies a SELECTED_OUTPUT block by database, sorted targets
// and every option that changes the rendering.
func CacheKey(database string, targets chemistry.ElementSet, opts SelectedOutputOptions) string {
	flags := []bool{opts.Totals, opts.Molalities, opts.Activities, opts.Phases, opts.AllowHCO, opts.StrictSpecies}
	var sb strings.Builder
	sb.WriteString("selected_output:")
	sb.WriteString(database)
	sb.WriteByte(':')
	sb.WriteString(strings.Join(targets.Sorted(), ","))
	sb.WriteByte(':')
	for _, f := range flags {
		sb.WriteString(strconv.FormatBool(f)[:1])
	}
	if len(opts.PhaseTargets) > 0 {
		sb.WriteByte(':')
		sb.WriteString(strings.Join(chemistry.NewElementSet(opts.PhaseTargets...).Sorted(), ","))
	}
	return sb.String()
}

// MemoryCache is an in-process LRU OutputCache.
type MemoryCache struct {
	lru *lru.Cache[string, string]
}

// NewMemoryCache holds up to size blocks.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to create output cache")
	}
	return &MemoryCache{lru: c}, nil
}

// Get implements OutputCache.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

// Set implements OutputCache.
func (c *MemoryCache) Set(_ context.Context, key, block string) error {
	c.lru.Add(key, block)
	return nil
}

// Len returns the number of cached blocks.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// Purge drops every block.
func (c *MemoryCache) Purge() { c.lru.Purge() }

//Personal.AI order the ending
