// Package workdir provides isolated, auto-cleaned work directories for
// evaluations that drive an external executable through files. Each
// evaluation gets its own directory; the external process runs with its
// working directory set there, so concurrent evaluations never observe
// each other's artifacts.
package workdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Dir is an ephemeral work directory owned by a single evaluation.
type Dir struct {
	path    string
	cleanup bool

	once       sync.Once
	releaseErr error
}

// Acquire creates a unique directory under base. The name combines prefix,
// the process id and a random uuid, so concurrent acquisitions never
// collide. If base is empty the system temp directory is used. When cleanup
// is false, Release leaves the directory behind for inspection.
func Acquire(base, prefix string, cleanup bool) (*Dir, error) {
	if base == "" {
		base = os.TempDir()
	}
	name := fmt.Sprintf("%s%d-%s", prefix, os.Getpid(), uuid.NewString())
	path := filepath.Join(base, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Dir{path: path, cleanup: cleanup}, nil
}

// AcquireSeeded is Acquire plus copying the named files into the new
// directory, for executables that expect auxiliary inputs next to them.
func AcquireSeeded(base, prefix string, cleanup bool, seeds ...string) (*Dir, error) {
	d, err := Acquire(base, prefix, cleanup)
	if err != nil {
		return nil, err
	}
	for _, src := range seeds {
		if err := copyFile(src, d.Join(filepath.Base(src))); err != nil {
			d.Release()
			return nil, fmt.Errorf("seed work dir: %w", err)
		}
	}
	return d, nil
}

// Path returns the directory's absolute location on disk.
func (d *Dir) Path() string { return d.path }

// Join returns the path of name inside the work directory.
func (d *Dir) Join(name string) string { return filepath.Join(d.path, name) }

// Release tears the directory down. It is idempotent and safe to defer;
// callers must invoke it on every exit path, success or failure. With
// cleanup disabled it is a no-op apart from marking the handle released.
func (d *Dir) Release() error {
	d.once.Do(func() {
		if d.cleanup {
			d.releaseErr = os.RemoveAll(d.path)
		}
	})
	return d.releaseErr
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
