package keys

import (
	"strconv"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Source describes a table that persists one kind of assignment.
type Source struct {
	Kind    string
	KeyCols []string
	IDCol   string
}

// Sources for the entity tables written by the entities and users stages.
var (
	MovieSource  = Source{Kind: cinetl.KindMovie, KeyCols: []string{"movie_douban_id", "douban_id"}, IDCol: "id"}
	PersonSource = Source{Kind: cinetl.KindPerson, KeyCols: []string{"person_douban_id", "douban_id"}, IDCol: "id"}
	UserSource   = Source{Kind: cinetl.KindUser, KeyCols: []string{"user_hash"}, IDCol: "id"}
)

// Load reads the assignment persisted at path into idx. Rows with a blank
// key or an unparsable id are skipped. found is false when the file does not
// exist.
func Load(idx cinetl.KeyIndex, path string, src Source) (n int, found bool, err error) {
	found, err = table.Read(path, func(r table.Row) error {
		key := r.First(src.KeyCols...)
		if key == "" {
			return nil
		}
		id, perr := strconv.ParseUint(r.Get(src.IDCol), 10, 64)
		if perr != nil || id == 0 {
			return nil
		}
		if err := idx.Put(src.Kind, key, id); err != nil {
			return errors.Wrapf(err, "%s line %d", path, r.Line())
		}
		n++
		return nil
	})
	return n, found, err
}

// Replace makes idx hold exactly the assignment a for kind. Indexes that
// cannot clear a kind get a plain Store.
func Replace(idx cinetl.KeyIndex, kind string, a *Assignment[string]) error {
	if kc, ok := idx.(cinetl.KindClearer); ok {
		if err := kc.ClearKind(kind); err != nil {
			return errors.Wrapf(err, "clearing %s keys", kind)
		}
	}
	return Store(idx, kind, a)
}

// Store copies an assignment into idx.
func Store(idx cinetl.KeyIndex, kind string, a *Assignment[string]) error {
	if bp, ok := idx.(cinetl.BulkPutter); ok {
		ids := make([]uint64, len(a.Order))
		for i, k := range a.Order {
			ids[i] = a.IDs[k]
		}
		return errors.Wrapf(bp.BulkPut(kind, a.Order, ids), "storing %s keys", kind)
	}
	for _, k := range a.Order {
		if err := idx.Put(kind, k, a.IDs[k]); err != nil {
			return errors.Wrapf(err, "storing %s key", kind)
		}
	}
	return nil
}
