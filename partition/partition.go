// Package partition splits the seed list between crawler workers. Every
// worker reads the same list and keeps the lines whose index, counted over
// non-empty lines, is congruent to its id modulo the worker count.
package partition

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

// Options select one worker's share of the seed list.
type Options struct {
	Worker  int
	Workers int
	// Max caps the number of ids returned; zero or less means no cap.
	Max int
}

// Normalize fixes up out-of-range options: fewer than one worker means one,
// and a worker id outside [0, Workers) falls back to 0 with a warning.
func (o Options) Normalize(log cinetl.Logger) Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Worker < 0 || o.Worker >= o.Workers {
		log.Printf("worker id %d not in [0, %d), using 0", o.Worker, o.Workers)
		o.Worker = 0
	}
	return o
}

// Owns reports whether the line with index idx belongs to the worker.
func (o Options) Owns(idx int) bool {
	return idx%o.Workers == o.Worker
}

// IDs reads a seed list from r and returns the person ids for the worker
// described by opts, each at most once, in list order.
func IDs(r io.Reader, opts Options, log cinetl.Logger) ([]string, error) {
	opts = opts.Normalize(log)
	var ids []string
	seen := make(map[string]struct{})
	br := bufio.NewReader(r)
	idx := -1
	for {
		line, err := br.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			idx++
			if opts.Owns(idx) {
				var ref cinetl.SeedRef
				if jerr := json.Unmarshal(line, &ref); jerr != nil {
					log.Printf("skipping malformed seed line %d: %v", idx+1, jerr)
				} else if pid := ref.PersonKey(); pid != "" {
					if _, dup := seen[pid]; !dup {
						seen[pid] = struct{}{}
						ids = append(ids, pid)
						if opts.Max > 0 && len(ids) >= opts.Max {
							return ids, nil
						}
					}
				}
			}
		}
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading seed list")
		}
	}
}

// IDsFromFile is IDs over the seed list at path, which must exist.
func IDsFromFile(path string, opts Options, log cinetl.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening seed list")
	}
	defer f.Close()
	return IDs(f, opts, log)
}
