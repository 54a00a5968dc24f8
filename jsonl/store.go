// Package jsonl reads and writes the worker-partitioned, line-delimited
// JSON files produced by the crawler.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// ErrNoRawRoot is returned (wrapped) by Open when the raw data root does not
// exist. Nothing can be built without it.
var ErrNoRawRoot = errors.New("raw data root not found")

// Store is the set of worker partition directories under one root.
type Store struct {
	root     string
	workers  []string
	log      cinetl.Logger
	progress io.Writer
}

// Option is a functional option type for Store.
type Option func(s *Store)

// OptLogger sets the logger used to report skipped lines.
func OptLogger(l cinetl.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// OptProgress shows a byte progress bar on w for every file scanned.
func OptProgress(w io.Writer) Option {
	return func(s *Store) {
		s.progress = w
	}
}

// Open lists the worker directories under root. Workers are visited in
// lexicographic order of their directory names, which is what makes
// first-wins merging reproducible.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root: root,
		log:  cinetl.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrapf(ErrNoRawRoot, "%s", root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(err, "reading raw root")
	}
	// os.ReadDir sorts by file name.
	for _, e := range entries {
		if e.IsDir() {
			s.workers = append(s.workers, e.Name())
		}
	}
	return s, nil
}

// Root returns the directory the store was opened on.
func (s *Store) Root() string { return s.root }

// Workers returns the worker directory names in scan order.
func (s *Store) Workers() []string {
	return append([]string(nil), s.workers...)
}

// Paths returns the path of file in every worker directory that has one, in
// scan order. Workers without the file are skipped silently.
func (s *Store) Paths(file string) []string {
	var paths []string
	for _, w := range s.workers {
		p := filepath.Join(s.root, w, file)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			paths = append(paths, p)
		}
	}
	return paths
}

// Scan decodes every line of file across all workers into a T and calls fn
// on it. Counters are kept under the file name. An error from fn stops the
// scan and is returned.
func Scan[T any](s *Store, file string, stats *cinetl.Stats, fn func(rec *T) error) error {
	for _, p := range s.Paths(file) {
		if err := scanTyped(s, p, file, stats, fn); err != nil {
			return err
		}
	}
	return nil
}

// ScanWorker is Scan restricted to one worker directory. A worker without
// the file yields nothing.
func ScanWorker[T any](s *Store, worker, file string, stats *cinetl.Stats, fn func(rec *T) error) error {
	p := filepath.Join(s.root, worker, file)
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return nil
	}
	return scanTyped(s, p, file, stats, fn)
}

func scanTyped[T any](s *Store, path, table string, stats *cinetl.Stats, fn func(rec *T) error) error {
	s.log.Debugf("scanning %s", path)
	return s.scanPath(path, table, stats, func(line []byte, lineno int) error {
		rec := new(T)
		if err := json.Unmarshal(line, rec); err != nil {
			stats.Inc(table, cinetl.StatMalformed)
			s.log.Printf("skipping malformed line %s:%d: %v", path, lineno, err)
			return nil
		}
		stats.Inc(table, cinetl.StatRead)
		return fn(rec)
	})
}

// ScanFile decodes a single JSONL file outside of any store. A missing file
// is reported through the returned bool rather than as an error.
func ScanFile[T any](path string, stats *cinetl.Stats, log cinetl.Logger, fn func(rec *T) error) (found bool, err error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if log == nil {
		log = cinetl.NopLogger{}
	}
	s := &Store{log: log}
	return true, scanTyped(s, path, filepath.Base(path), stats, fn)
}

// ScanRaw calls fn with every JSON object line of file across all workers,
// undecoded, along with the path it came from. Lines that are not JSON
// objects are counted and skipped.
func ScanRaw(s *Store, file string, stats *cinetl.Stats, fn func(path string, obj map[string]json.RawMessage) error) error {
	for _, p := range s.Paths(file) {
		path := p
		if err := s.ScanRawFile(path, stats, func(obj map[string]json.RawMessage) error {
			return fn(path, obj)
		}); err != nil {
			return err
		}
	}
	return nil
}

// ScanRawFile is ScanRaw over a single file. Counters are kept under the
// file's base name.
func (s *Store) ScanRawFile(path string, stats *cinetl.Stats, fn func(obj map[string]json.RawMessage) error) error {
	table := filepath.Base(path)
	return s.scanPath(path, table, stats, func(line []byte, lineno int) error {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(line, &obj); err != nil {
			stats.Inc(table, cinetl.StatMalformed)
			s.log.Printf("skipping malformed line %s:%d: %v", path, lineno, err)
			return nil
		}
		stats.Inc(table, cinetl.StatRead)
		return fn(obj)
	})
}

func (s *Store) scanPath(path, table string, stats *cinetl.Stats, fn func(line []byte, lineno int) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	var bar *progressbar.ProgressBar
	if s.progress != nil {
		size := int64(-1)
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription(path),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		r = io.TeeReader(f, bar)
	}

	br := bufio.NewReaderSize(r, 1<<16)
	lineno := 0
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineno++
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				if line[0] != '{' {
					stats.Inc(table, cinetl.StatMalformed)
					s.log.Printf("skipping non-object line %s:%d", path, lineno)
				} else if err := fn(line, lineno); err != nil {
					return err
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errors.Wrapf(rerr, "reading %s", path)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}
