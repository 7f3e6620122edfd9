package phreeqc

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	KeepComments bool
	Logger       logging.Logger
	Observer     Observer
}

// Registry resolves database references and caches the loaded databases.
//
// A reference is first tried as a file path.  Failing that, a reference
// containing a path separator is reported as DatabaseNotFound; anything else
// is treated as a bundled name (with or without ".dat") and looked up in the
// sources in order.  Names no source holds yield InvalidDatabaseName listing
// every bundled name.
//
// GetByName skips the file path step and is what network callers use.
// Concurrent requests for the same reference share a single load.
type Registry struct {
	sources []Source
	opts    RegistryOptions
	logger  logging.Logger
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Database
}

// NewRegistry builds a Registry over sources.
func NewRegistry(opts RegistryOptions, sources ...Source) *Registry {
	return &Registry{
		sources: sources,
		opts:    opts,
		logger:  logging.OrDefault(opts.Logger).Named("registry"),
		cache:   make(map[string]*Database),
	}
}

// Get returns the database for ref, loading it on first use.
func (r *Registry) Get(ctx context.Context, ref string) (*Database, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.InvalidParam("database reference is empty")
	}
	return r.load(ref, func() (*Database, error) { return r.resolve(ctx, ref) })
}

// GetByName is Get restricted to the sources.  The file system is never
// consulted, so name must be a bare database name.
func (r *Registry) GetByName(ctx context.Context, name string) (*Database, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), DatabaseExt)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, errors.InvalidParam("database must be given by name").WithDetail(name)
	}
	return r.load(nameKey+name, func() (*Database, error) { return r.fromSources(ctx, name) })
}

// nameKey prefixes cache entries filled by GetByName so a file loaded under
// the same reference is never served for a name.
const nameKey = "name:"

func (r *Registry) load(key string, resolve func() (*Database, error)) (*Database, error) {
	r.mu.RLock()
	db, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		db, err := resolve()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = db
		r.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Database), nil
}

func (r *Registry) loadOptions() LoadOptions {
	return LoadOptions{KeepComments: r.opts.KeepComments, Logger: r.opts.Logger, Observer: r.opts.Observer}
}

func (r *Registry) resolve(ctx context.Context, ref string) (*Database, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return LoadFile(ref, r.loadOptions())
	}
	if strings.ContainsAny(ref, `/\`) || filepath.IsAbs(ref) {
		return nil, errors.DatabaseNotFound(ref)
	}
	return r.fromSources(ctx, strings.TrimSuffix(ref, DatabaseExt))
}

func (r *Registry) fromSources(ctx context.Context, name string) (*Database, error) {
	opts := r.loadOptions()
	for _, src := range r.sources {
		db, err := LoadSource(ctx, src, name, opts)
		if err == nil {
			r.logger.Info("database resolved", logging.Database(name), logging.String("path", db.Path()))
			return db, nil
		}
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, err
		}
	}

	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	return nil, errors.InvalidDatabaseName(name, names)
}

// Names lists every database the sources hold, sorted and deduplicated.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, src := range r.sources {
		names, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate drops every cached database whose reference or name is name,
// so the next Get reloads it.
func (r *Registry) Invalidate(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for ref, db := range r.cache {
		if ref == name || ref == nameKey+name || db.Name() == name || db.Path() == name {
			delete(r.cache, ref)
			n++
		}
	}
	if n > 0 {
		r.logger.Info("database invalidated", logging.Database(name), logging.Int("entries", n))
	}
	return n
}

// Cached returns the references currently held, sorted.
func (r *Registry) Cached() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.cache))
	for ref := range r.cache {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
