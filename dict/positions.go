package dict

import (
	"sort"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Positions is the append-only crew position dictionary. Ids handed out by
// earlier runs are kept; unseen names get the next id.
type Positions struct {
	path  string
	ids   map[string]uint64
	next  *cinetl.Nexter
	added int
}

// LoadPositions reads the dictionary at path, or starts an empty one when
// the file does not exist yet.
func LoadPositions(path string) (*Positions, error) {
	p := &Positions{path: path, ids: make(map[string]uint64)}
	var max uint64
	_, err := table.Read(path, func(r table.Row) error {
		name := cinetl.CollapseSpace(r.Get("name"))
		id, ok := parseID(r.Get("id"))
		if name == "" || !ok {
			return nil
		}
		if _, dup := p.ids[name]; dup {
			return nil
		}
		p.ids[name] = id
		if id > max {
			max = id
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading positions")
	}
	p.next = cinetl.NewNexter(cinetl.NexterStartFrom(max + 1))
	return p, nil
}

// ID returns the id of name, assigning a new one if needed.
func (p *Positions) ID(name string) uint64 {
	name = cinetl.CollapseSpace(name)
	if id, ok := p.ids[name]; ok {
		return id
	}
	id := p.next.Next()
	p.ids[name] = id
	p.added++
	return id
}

// Len returns the number of positions.
func (p *Positions) Len() int { return len(p.ids) }

// Added returns how many positions this run introduced.
func (p *Positions) Added() int { return p.added }

// Save rewrites the whole dictionary in id order.
func (p *Positions) Save() error {
	type entry struct {
		id   uint64
		name string
	}
	entries := make([]entry, 0, len(p.ids))
	for name, id := range p.ids {
		entries = append(entries, entry{id, name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	w, err := table.Create(p.path, "id", "name")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write(formatID(e.id), e.name); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
