package facts

import (
	"strings"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Watch statuses, with their precedence when two records for the same pair
// collide.
var statusPriority = map[string]int{
	"wishlist": 1,
	"watching": 2,
	"watched":  3,
}

// NormalizeStatus lower-cases s and reports whether it is a known status.
func NormalizeStatus(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	_, ok := statusPriority[s]
	return s, ok
}

// Watch is one row of the final watch record table.
type Watch struct {
	FactKey
	Status    string
	CreatedAt string
	Star      bool
}

// Beats reports whether w should replace old: a stronger status wins, then
// the later created_at, then a star.
func (w Watch) Beats(old Watch) bool {
	if p, q := statusPriority[w.Status], statusPriority[old.Status]; p != q {
		return p > q
	}
	if w.CreatedAt != old.CreatedAt {
		return w.CreatedAt > old.CreatedAt
	}
	return w.Star && !old.Star
}

// Watches keeps one watch record per (user, movie).
type Watches struct {
	byKey map[FactKey]*Watch
	order []FactKey
}

// NewWatches returns an empty set.
func NewWatches() *Watches {
	return &Watches{byKey: make(map[FactKey]*Watch)}
}

// Add offers w to the set, see Ratings.Add.
func (ws *Watches) Add(w Watch) (dup, replaced bool) {
	old, ok := ws.byKey[w.FactKey]
	if !ok {
		ws.byKey[w.FactKey] = &w
		ws.order = append(ws.order, w.FactKey)
		return false, false
	}
	if w.Beats(*old) {
		*old = w
		return true, true
	}
	return true, false
}

// Each calls fn with the kept records in first-seen pair order.
func (ws *Watches) Each(fn func(w Watch) error) error {
	for _, k := range ws.order {
		if err := fn(*ws.byKey[k]); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of kept records.
func (ws *Watches) Len() int { return len(ws.order) }

// BuildWatching dedupes the staged watch records at src into out.
func BuildWatching(src, out string, stats *cinetl.Stats) error {
	ws := NewWatches()
	found, err := table.Read(src, func(row table.Row) error {
		stats.Inc(WatchingFile, cinetl.StatRead)
		key, ok := readFactKey(row)
		if !ok {
			stats.Inc(WatchingFile, cinetl.StatNoKey)
			return nil
		}
		status, ok := NormalizeStatus(row.Get("status"))
		if !ok {
			stats.Inc(WatchingFile, cinetl.StatOutOfDomain)
			return nil
		}
		created := row.Get("created_at")
		if created == "" {
			stats.Inc(WatchingFile, cinetl.StatNoTimestamp)
			return nil
		}
		dup, replaced := ws.Add(Watch{
			FactKey:   key,
			Status:    status,
			CreatedAt: created,
			Star:      cinetl.ParseFlag(row.Get("star")),
		})
		if dup {
			stats.Inc(WatchingFile, cinetl.StatDuplicate)
		}
		if replaced {
			stats.Inc(WatchingFile, cinetl.StatUpdated)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("staged watch records %s not found", src)
	}
	w, err := table.Create(out, "user_id", "movie_id", "star", "status", "created_at")
	if err != nil {
		return err
	}
	err = ws.Each(func(r Watch) error {
		stats.Inc(WatchingFile, cinetl.StatWritten)
		return w.Write(formatID(r.UserID), formatID(r.MovieID), cinetl.BoolString(r.Star), r.Status, r.CreatedAt)
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}
