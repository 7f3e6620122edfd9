package phreeqc

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

func bundledDir(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"pitzer", "llnl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+DatabaseExt), raw, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a database"), 0o644))
	return dir
}

func TestDirSource_List(t *testing.T) {
	src := NewDirSource(bundledDir(t))
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llnl", "pitzer"}, names)
}

func TestDirSource_OpenMissing(t *testing.T) {
	src := NewDirSource(t.TempDir())
	_, _, err := src.Open(context.Background(), "pitzer")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestDirSource_ListKeepsInnerDots(t *testing.T) {
	dir := bundledDir(t)
	raw, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pitzer.v2"+DatabaseExt), raw, 0o644))

	src := NewDirSource(dir)
	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llnl", "pitzer", "pitzer.v2"}, names)

	reg := NewRegistry(RegistryOptions{}, src)
	db, err := reg.GetByName(context.Background(), "pitzer.v2")
	require.NoError(t, err)
	assert.Equal(t, "pitzer.v2", db.Name())
	assert.Equal(t, src.Path("pitzer.v2"), db.Path())
}

func TestRegistry_GetByNameIgnoresFiles(t *testing.T) {
	reg := NewRegistry(RegistryOptions{}, NewDirSource(bundledDir(t)))
	ctx := context.Background()

	// registry.go sits in the working directory of this test.
	_, err := reg.GetByName(ctx, "registry.go")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseInvalidName), err)

	for _, ref := range []string{fixturePath, "../phreeqc", "..", "", DatabaseExt, `a\b`} {
		_, err := reg.GetByName(ctx, ref)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest), ref)
	}

	db, err := reg.Get(ctx, fixturePath)
	require.NoError(t, err)
	assert.Equal(t, fixturePath, db.Path())

	db, err = reg.GetByName(ctx, "pitzer.dat")
	require.NoError(t, err)
	assert.Equal(t, "pitzer", db.Name())
}

func TestRegistry_ResolvesNameExtensionAndPath(t *testing.T) {
	dir := bundledDir(t)
	src := NewDirSource(dir)
	want := src.Path("pitzer")
	ctx := context.Background()

	for _, ref := range []string{"pitzer", "pitzer.dat", want} {
		reg := NewRegistry(RegistryOptions{}, src)
		db, err := reg.Get(ctx, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, db.Path(), ref)
		assert.Equal(t, "pitzer", db.Name(), ref)
	}
}

func TestRegistry_InvalidName(t *testing.T) {
	reg := NewRegistry(RegistryOptions{}, NewDirSource(bundledDir(t)))

	_, err := reg.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseInvalidName))

	var ae *errors.AppError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Detail, "[llnl, pitzer]")
}

func TestRegistry_MissingPath(t *testing.T) {
	reg := NewRegistry(RegistryOptions{}, NewDirSource(bundledDir(t)))

	_, err := reg.Get(context.Background(), filepath.Join(t.TempDir(), "gone.dat"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseNotFound))

	_, err = reg.Get(context.Background(), "  ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestRegistry_CachesAndInvalidates(t *testing.T) {
	reg := NewRegistry(RegistryOptions{}, NewDirSource(bundledDir(t)))
	ctx := context.Background()

	first, err := reg.Get(ctx, "pitzer")
	require.NoError(t, err)
	again, err := reg.Get(ctx, "pitzer")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, []string{"pitzer"}, reg.Cached())

	assert.Equal(t, 1, reg.Invalidate("pitzer"))
	assert.Empty(t, reg.Cached())

	reloaded, err := reg.Get(ctx, "pitzer")
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
}

func TestRegistry_ConcurrentGetSharesLoad(t *testing.T) {
	reg := NewRegistry(RegistryOptions{}, NewDirSource(bundledDir(t)))
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*Database, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = reg.Get(ctx, "llnl")
		}(i)
	}
	wg.Wait()

	want, err := reg.Get(ctx, "llnl")
	require.NoError(t, err)
	for _, db := range got {
		assert.Same(t, want, db)
	}
}

func TestRegistry_FallsThroughSources(t *testing.T) {
	empty := NewDirSource(t.TempDir())
	full := NewDirSource(bundledDir(t))
	reg := NewRegistry(RegistryOptions{}, empty, full)

	db, err := reg.Get(context.Background(), "llnl")
	require.NoError(t, err)
	assert.Equal(t, full.Path("llnl"), db.Path())

	names, err := reg.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llnl", "pitzer"}, names)
}

//Personal.AI order the ending
