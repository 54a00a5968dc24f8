package jsonl

import (
	"bufio"
	"encoding/json"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

// Writer writes one JSON object per line to a file that only appears once
// Commit succeeds.
type Writer struct {
	af  *cinetl.AtomicFile
	buf *bufio.Writer
	enc *json.Encoder
	n   int
}

// Create starts a new JSONL file at path.
func Create(path string) (*Writer, error) {
	af, err := cinetl.CreateAtomic(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(af)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{af: af, buf: buf, enc: enc}, nil
}

// Encode writes v as one line.
func (w *Writer) Encode(v interface{}) error {
	if err := w.enc.Encode(v); err != nil {
		return errors.Wrapf(err, "encoding line %d of %s", w.n+1, w.af.Path())
	}
	w.n++
	return nil
}

// Lines returns how many lines have been written.
func (w *Writer) Lines() int { return w.n }

// Commit flushes and moves the file into place.
func (w *Writer) Commit() error {
	if err := w.buf.Flush(); err != nil {
		w.af.Abort()
		return errors.Wrapf(err, "flushing %s", w.af.Path())
	}
	return w.af.Commit()
}

// Abort discards everything written.
func (w *Writer) Abort() { w.af.Abort() }
