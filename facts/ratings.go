package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Rating bounds, inclusive.
const (
	MinRating = 0
	MaxRating = 10
)

// FactKey identifies the (user, movie) pair a rating or watch record is
// about.
type FactKey struct {
	UserID  uint64
	MovieID uint64
}

// Rating is one row of the final rating table.
type Rating struct {
	FactKey
	Rating    int
	CreatedAt string
	Review    string
}

// Ratings keeps one rating per (user, movie): the one with the greatest
// created_at, or the first seen on a tie.
type Ratings struct {
	byKey map[FactKey]*Rating
	order []FactKey
}

// NewRatings returns an empty set.
func NewRatings() *Ratings {
	return &Ratings{byKey: make(map[FactKey]*Rating)}
}

// Add offers r to the set. It reports whether r collided with an existing
// rating for the same pair, and whether it replaced it.
func (rs *Ratings) Add(r Rating) (dup, replaced bool) {
	old, ok := rs.byKey[r.FactKey]
	if !ok {
		rs.byKey[r.FactKey] = &r
		rs.order = append(rs.order, r.FactKey)
		return false, false
	}
	if r.CreatedAt > old.CreatedAt {
		*old = r
		return true, true
	}
	return true, false
}

// Each calls fn with the kept ratings in the order their pair was first
// seen.
func (rs *Ratings) Each(fn func(r Rating) error) error {
	for _, k := range rs.order {
		if err := fn(*rs.byKey[k]); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of kept ratings.
func (rs *Ratings) Len() int { return len(rs.order) }

func readFactKey(r table.Row) (FactKey, bool) {
	uid, uok := parseID(r.Get("user_id"))
	mid, mok := parseID(r.Get("movie_id"))
	return FactKey{UserID: uid, MovieID: mid}, uok && mok
}

// BuildRatings dedupes the staged ratings at src into out.
func BuildRatings(src, out string, stats *cinetl.Stats) error {
	rs := NewRatings()
	found, err := table.Read(src, func(row table.Row) error {
		stats.Inc(RatingsFile, cinetl.StatRead)
		key, ok := readFactKey(row)
		if !ok {
			stats.Inc(RatingsFile, cinetl.StatNoKey)
			return nil
		}
		rating, ok := parseInt(row.Get("rating"))
		if !ok || rating < MinRating || rating > MaxRating {
			stats.Inc(RatingsFile, cinetl.StatOutOfDomain)
			return nil
		}
		created := row.Get("created_at")
		if created == "" {
			stats.Inc(RatingsFile, cinetl.StatNoTimestamp)
			return nil
		}
		dup, replaced := rs.Add(Rating{
			FactKey:   key,
			Rating:    rating,
			CreatedAt: created,
			Review:    cinetl.FlattenText(row.Get("review"), cinetl.ReviewLimit),
		})
		if dup {
			stats.Inc(RatingsFile, cinetl.StatDuplicate)
		}
		if replaced {
			stats.Inc(RatingsFile, cinetl.StatUpdated)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("staged ratings %s not found", src)
	}
	w, err := table.Create(out, "user_id", "movie_id", "rating", "created_at", "review")
	if err != nil {
		return err
	}
	err = rs.Each(func(r Rating) error {
		stats.Inc(RatingsFile, cinetl.StatWritten)
		return w.Write(formatID(r.UserID), formatID(r.MovieID), itoa(r.Rating), r.CreatedAt, r.Review)
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}
