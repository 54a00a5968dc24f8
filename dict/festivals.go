package dict

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Festivals resolves (name, year) pairs to festival ids.
type Festivals struct {
	ids map[cinetl.FestivalKey]uint64
}

// LoadFestivals reads dict_festival.csv. A blank or zero year is an unknown
// year, matching how the table is written. A missing file is an empty
// lookup.
func LoadFestivals(path string) (*Festivals, error) {
	f := &Festivals{ids: make(map[cinetl.FestivalKey]uint64)}
	_, err := table.Read(path, func(r table.Row) error {
		id, ok := parseID(r.Get("festival_id"))
		key := cinetl.NewFestivalKey(r.Get("name"), cinetl.ParseOptInt(r.Get("year")))
		if !ok || key.Name == "" {
			return nil
		}
		f.ids[key] = id
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading festivals")
	}
	return f, nil
}

// ID returns the id of the festival k.
func (f *Festivals) ID(k cinetl.FestivalKey) (uint64, bool) {
	id, ok := f.ids[k]
	return id, ok
}

// Len returns the number of festivals.
func (f *Festivals) Len() int { return len(f.ids) }

// WriteFestivals persists the festival assignment with the first url seen
// for each festival.
func WriteFestivals(path string, a *keys.Assignment[cinetl.FestivalKey], urls map[cinetl.FestivalKey]string) error {
	w, err := table.Create(path, "festival_id", "name", "year", "url")
	if err != nil {
		return err
	}
	for _, k := range a.Order {
		if err := w.Write(formatID(a.IDs[k]), k.Name, k.YearString(), urls[k]); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
