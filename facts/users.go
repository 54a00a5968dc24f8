package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
)

// Users maps user hashes to the first non-empty raw name seen with them.
type Users struct {
	names map[string]string
	order []string
}

// Hashes returns the user hashes in first-seen order.
func (u *Users) Hashes() []string { return append([]string(nil), u.order...) }

// Name returns the raw name recorded for hash.
func (u *Users) Name(hash string) string { return u.names[hash] }

// Len returns the number of users.
func (u *Users) Len() int { return len(u.order) }

func (u *Users) add(ref cinetl.UserRef) bool {
	hash := ref.Hash()
	if hash == "" {
		return false
	}
	name, ok := u.names[hash]
	if !ok {
		u.order = append(u.order, hash)
	}
	cinetl.Fill(&name, cinetl.FlattenText(ref.UsernameRaw.String(), cinetl.UsernameLimit))
	u.names[hash] = name
	return true
}

// CollectUsers gathers every user seen in the rating and watch streams.
func CollectUsers(s *jsonl.Store, stats *cinetl.Stats) (*Users, error) {
	u := &Users{names: make(map[string]string)}
	err := jsonl.Scan(s, cinetl.FileRatings, stats, func(r *cinetl.RatingObservation) error {
		if !u.add(r.UserRef) {
			stats.Inc(cinetl.FileRatings, cinetl.StatMissingUser)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = jsonl.Scan(s, cinetl.FileWatchRecords, stats, func(r *cinetl.WatchObservation) error {
		if !u.add(r.UserRef) {
			stats.Inc(cinetl.FileWatchRecords, cinetl.StatMissingUser)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// AssignUsers numbers users by hash.
func AssignUsers(u *Users) *keys.Assignment[string] {
	return keys.AssignNames(u.order)
}

// WriteUsers writes users.csv in id order with a placeholder address.
func WriteUsers(path string, u *Users, a *keys.Assignment[string]) error {
	w, err := table.Create(path, "id", "user_hash", "name", "email")
	if err != nil {
		return err
	}
	for _, hash := range a.Order {
		if err := w.Write(formatID(a.IDs[hash]), hash, u.Name(hash), cinetl.PlaceholderEmail(hash)); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// FactResolver resolves the movie and user of rating and watch observations.
type FactResolver struct {
	Movies cinetl.Resolver
	Users  cinetl.Resolver
}

func (r *FactResolver) resolve(m cinetl.MovieRef, u cinetl.UserRef, out string, stats *cinetl.Stats) (mid, uid uint64, ok bool, err error) {
	mid, ok, err = lookup(r.Movies, m.MovieKey())
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		stats.Inc(out, cinetl.StatMissingMovie)
		return 0, 0, false, nil
	}
	uid, ok, err = lookup(r.Users, u.Hash())
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		stats.Inc(out, cinetl.StatMissingUser)
		return 0, 0, false, nil
	}
	return mid, uid, true, nil
}

// StageRatings writes movie_ratings.csv: every rating observation with its
// movie and user resolved. Ratings that are not integers are dropped here;
// range and timestamp checks happen when the final table is built.
func (r *FactResolver) StageRatings(s *jsonl.Store, out string, stats *cinetl.Stats) error {
	w, err := table.Create(out, "id", "movie_id", "user_id", "rating", "created_at", "review")
	if err != nil {
		return err
	}
	next := cinetl.NewNexter()
	err = jsonl.Scan(s, cinetl.FileRatings, stats, func(o *cinetl.RatingObservation) error {
		mid, uid, ok, err := r.resolve(o.MovieRef, o.UserRef, StagedRatings, stats)
		if err != nil || !ok {
			return err
		}
		if !o.Rating.Valid {
			stats.Inc(StagedRatings, cinetl.StatOutOfDomain)
			return nil
		}
		stats.Inc(StagedRatings, cinetl.StatWritten)
		return w.Write(formatID(next.Next()), formatID(mid), formatID(uid), o.Rating.String(),
			o.CreatedAt.String(), cinetl.FlattenText(o.Review.String(), cinetl.StagedReviewLimit))
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

// StageWatching writes watching_records.csv: every watch observation with
// its movie and user resolved. A blank status is staged as "unknown".
func (r *FactResolver) StageWatching(s *jsonl.Store, out string, stats *cinetl.Stats) error {
	w, err := table.Create(out, "id", "movie_id", "user_id", "status", "created_at", "star")
	if err != nil {
		return err
	}
	next := cinetl.NewNexter()
	err = jsonl.Scan(s, cinetl.FileWatchRecords, stats, func(o *cinetl.WatchObservation) error {
		mid, uid, ok, err := r.resolve(o.MovieRef, o.UserRef, StagedWatching, stats)
		if err != nil || !ok {
			return err
		}
		status := cinetl.FirstNonEmpty(o.Status.String(), "unknown")
		stats.Inc(StagedWatching, cinetl.StatWritten)
		return w.Write(formatID(next.Next()), formatID(mid), formatID(uid), status,
			o.CreatedAt.String(), cinetl.BoolString(bool(o.Star)))
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}
