// Package dict persists dictionary tables and resolves names and composite
// keys through them.
package dict

import (
	"strconv"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Dictionary table files, relative to the dictionary directory.
const (
	GenreFile    = "dict_genre.csv"
	LanguageFile = "dict_language.csv"
	RegionFile   = "dict_region.csv"
	FestivalFile = "dict_festival.csv"
	AwardFile    = "dict_award.csv"
	PositionFile = "positions.csv"
)

// Id columns of the name dictionaries.
const (
	GenreIDCol    = "genre_id"
	LanguageIDCol = "lang_id"
	RegionIDCol   = "region_id"
)

// Names is a loaded name dictionary.
type Names struct {
	ids map[string]uint64
}

var _ cinetl.Resolver = &Names{}

// NewNames returns a dictionary holding the given assignments.
func NewNames(ids map[string]uint64) *Names {
	if ids == nil {
		ids = make(map[string]uint64)
	}
	return &Names{ids: ids}
}

// LoadNames reads a name dictionary whose id column is idCol. A missing file
// is an empty dictionary.
func LoadNames(path, idCol string) (*Names, error) {
	n := NewNames(nil)
	_, err := table.Read(path, func(r table.Row) error {
		name := cinetl.NormalizeName(r.Get("name"))
		id, ok := parseID(r.Get(idCol))
		if name == "" || !ok {
			return nil
		}
		n.ids[name] = id
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading name dictionary")
	}
	return n, nil
}

// Resolve implements cinetl.Resolver.
func (n *Names) Resolve(name string) (uint64, bool, error) {
	id, ok := n.ids[cinetl.NormalizeName(name)]
	return id, ok, nil
}

// Len returns the number of entries.
func (n *Names) Len() int { return len(n.ids) }

// WriteNames persists a name assignment as (idCol, name) rows in id order.
func WriteNames(path, idCol string, a *keys.Assignment[string]) error {
	w, err := table.Create(path, idCol, "name")
	if err != nil {
		return err
	}
	for _, name := range a.Order {
		if err := w.Write(formatID(a.IDs[name]), name); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
