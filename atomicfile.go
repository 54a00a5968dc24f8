package cinetl

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicFile is written to a temporary file in the destination directory
// and renamed over the destination on Commit, so readers never see a
// partially written table.
type AtomicFile struct {
	f    *os.File
	path string
	done bool
}

// CreateAtomic starts writing path, creating parent directories as needed.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "making directory %s", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.Wrapf(err, "creating temp file for %s", path)
	}
	return &AtomicFile{f: f, path: path}, nil
}

var _ io.Writer = &AtomicFile{}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.f.Write(p)
}

// Path returns the final destination.
func (a *AtomicFile) Path() string { return a.path }

// Commit flushes the temporary file to disk and moves it into place.
func (a *AtomicFile) Commit() error {
	if a.done {
		return errors.Errorf("%s already closed", a.path)
	}
	a.done = true
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(a.f.Name())
		return errors.Wrapf(err, "syncing %s", a.f.Name())
	}
	if err := a.f.Close(); err != nil {
		os.Remove(a.f.Name())
		return errors.Wrapf(err, "closing %s", a.f.Name())
	}
	if err := os.Chmod(a.f.Name(), 0644); err != nil {
		os.Remove(a.f.Name())
		return errors.Wrapf(err, "setting mode on %s", a.f.Name())
	}
	if err := os.Rename(a.f.Name(), a.path); err != nil {
		os.Remove(a.f.Name())
		return errors.Wrapf(err, "renaming into %s", a.path)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.f.Close()
	os.Remove(a.f.Name())
}
