// Package table reads and writes the CSV tables the pipeline publishes.
// Every table has a header row; readers address columns by header name.
package table

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

// Writer writes a CSV table atomically.
type Writer struct {
	af     *cinetl.AtomicFile
	buf    *bufio.Writer
	cw     *csv.Writer
	header []string
	rows   int
}

// Create starts a table at path and writes its header.
func Create(path string, header ...string) (*Writer, error) {
	af, err := cinetl.CreateAtomic(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(af)
	w := &Writer{af: af, buf: buf, cw: csv.NewWriter(buf), header: header}
	if err := w.cw.Write(header); err != nil {
		af.Abort()
		return nil, errors.Wrapf(err, "writing header of %s", path)
	}
	return w, nil
}

// Write appends one row, which must have one cell per header column.
func (w *Writer) Write(row ...string) error {
	if len(row) != len(w.header) {
		return errors.Errorf("%s: row has %d cells, header has %d", w.af.Path(), len(row), len(w.header))
	}
	if err := w.cw.Write(row); err != nil {
		return errors.Wrapf(err, "writing row to %s", w.af.Path())
	}
	w.rows++
	return nil
}

// Rows returns how many data rows have been written.
func (w *Writer) Rows() int { return w.rows }

// Path returns the destination path.
func (w *Writer) Path() string { return w.af.Path() }

// Commit flushes the table and moves it into place.
func (w *Writer) Commit() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		w.af.Abort()
		return errors.Wrapf(err, "flushing %s", w.af.Path())
	}
	if err := w.buf.Flush(); err != nil {
		w.af.Abort()
		return errors.Wrapf(err, "flushing %s", w.af.Path())
	}
	return w.af.Commit()
}

// Abort discards the table.
func (w *Writer) Abort() { w.af.Abort() }

// WriteAll writes a whole table in one go.
func WriteAll(path string, header []string, rows [][]string) error {
	w, err := Create(path, header...)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r...); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// Row is one data row addressed by column name.
type Row struct {
	cols   map[string]int
	record []string
	line   int
}

// NewRow builds a Row from a header and a record. It is mostly useful in
// tests.
func NewRow(header, record []string) Row {
	return Row{cols: columnIndex(header), record: record}
}

// Get returns the trimmed cell for col, or "" if the table has no such
// column or the row is short.
func (r Row) Get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// First returns the first non-blank cell among cols.
func (r Row) First(cols ...string) string {
	for _, c := range cols {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether the table has column col.
func (r Row) Has(col string) bool {
	_, ok := r.cols[col]
	return ok
}

// Values returns a copy of the raw cells in header order.
func (r Row) Values() []string {
	return append([]string(nil), r.record...)
}

// Line is the 1-based line number of the row in its file.
func (r Row) Line() int { return r.line }

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := cols[h]; !ok {
			cols[h] = i
		}
	}
	return cols
}

// Read calls fn for every data row of the table at path. A missing file is
// not an error: found is false and fn is never called.
func Read(path string, fn func(r Row) error) (found bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return true, ReadFrom(f, path, fn)
}

// ReadFrom is Read over an already open reader; name is used in errors.
func ReadFrom(r io.Reader, name string, fn func(r Row) error) error {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "reading header of %s", name)
	}
	cols := columnIndex(header)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		line++
		if err := fn(Row{cols: cols, record: rec, line: line}); err != nil {
			return err
		}
	}
}
