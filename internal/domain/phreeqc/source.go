package phreeqc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

// DatabaseExt is the file extension of bundled databases.
const DatabaseExt = ".dat"

// Source provides database text by name.  Open returns an ErrCodeNotFound
// error when the source does not hold name, which lets a Registry fall
// through to the next source.
type Source interface {
	// Open returns the database contents and a path or URL describing where
	// they came from.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)

	// List returns the database names the source holds, sorted.
	List(ctx context.Context) ([]string, error)
}

// DirSource serves "<name>.dat" files from a directory.
type DirSource struct {
	Dir string
}

// NewDirSource returns a Source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Open implements Source.
func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	path := filepath.Join(s.Dir, name+DatabaseExt)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.NotFound("database not in directory").WithDetail(path)
		}
		return nil, "", errors.Wrap(err, errors.ErrCodeStorage, "failed to open database")
	}
	return f, path, nil
}

// List implements Source.
func (s *DirSource) List(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*"+DatabaseExt))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to list databases")
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, DatabaseName(m))
	}
	sort.Strings(names)
	return names, nil
}

// Path returns the file a name resolves to.
func (s *DirSource) Path(name string) string {
	return filepath.Join(s.Dir, name+DatabaseExt)
}

//Personal.AI order the ending
