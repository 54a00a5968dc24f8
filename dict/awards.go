package dict

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Awards resolves (festival_id, name, type) to award ids.
type Awards struct {
	ids map[cinetl.AwardRef]uint64
}

// NewAwardRef builds the lookup key for an award, normalising the name and
// type the same way the dictionary was produced.
func NewAwardRef(festivalID uint64, name, awardType string) cinetl.AwardRef {
	return cinetl.AwardRef{
		FestivalID: festivalID,
		Name:       cinetl.NormalizeName(name),
		Type:       cinetl.NormalizeAwardType(awardType),
	}
}

// LoadAwards reads dict_award.csv. A missing file is an empty lookup.
func LoadAwards(path string) (*Awards, error) {
	a := &Awards{ids: make(map[cinetl.AwardRef]uint64)}
	_, err := table.Read(path, func(r table.Row) error {
		id, ok := parseID(r.Get("award_id"))
		fid, fok := parseID(r.Get("festival_id"))
		if !ok || !fok {
			return nil
		}
		a.ids[NewAwardRef(fid, r.Get("name"), r.Get("award_type"))] = id
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading awards")
	}
	return a, nil
}

// ID returns the id of the award ref.
func (a *Awards) ID(ref cinetl.AwardRef) (uint64, bool) {
	id, ok := a.ids[ref]
	return id, ok
}

// Len returns the number of awards.
func (a *Awards) Len() int { return len(a.ids) }

// WriteAwards persists the award assignment. Every award's festival must be
// in festivals.
func WriteAwards(path string, a *keys.Assignment[cinetl.AwardKey], festivals *keys.Assignment[cinetl.FestivalKey]) error {
	w, err := table.Create(path, "award_id", "festival_id", "name", "award_type")
	if err != nil {
		return err
	}
	for _, k := range a.Order {
		fid, ok := festivals.ID(k.Festival)
		if !ok {
			w.Abort()
			return errors.Errorf("award %q references unassigned festival %q/%s", k.Name, k.Festival.Name, k.Festival.YearString())
		}
		if err := w.Write(formatID(a.IDs[k]), formatID(fid), k.Name, k.Type); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
