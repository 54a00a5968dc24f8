package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// Pair is a staged bridge row: a movie natural key and a dictionary name.
type Pair struct {
	MovieKey string
	Name     string
}

// Pairs is a duplicate-free list of pairs in first-seen order.
type Pairs struct {
	seen  map[Pair]struct{}
	items []Pair
}

// NewPairs returns an empty Pairs.
func NewPairs() *Pairs {
	return &Pairs{seen: make(map[Pair]struct{})}
}

// Add appends p unless either part is blank or p is already present.
func (ps *Pairs) Add(p Pair) bool {
	if p.MovieKey == "" || p.Name == "" {
		return false
	}
	if _, ok := ps.seen[p]; ok {
		return false
	}
	ps.seen[p] = struct{}{}
	ps.items = append(ps.items, p)
	return true
}

// Items returns the pairs in insertion order.
func (ps *Pairs) Items() []Pair { return ps.items }

// Len returns the number of pairs.
func (ps *Pairs) Len() int { return len(ps.items) }

// StagedBridges are the natural-key bridge rows of one raw snapshot.
type StagedBridges struct {
	Genres    *Pairs
	Regions   *Pairs
	Languages *Pairs
}

// StageBridges collects movie/genre, movie/region and movie/language pairs
// from the movie streams.
func StageBridges(s *jsonl.Store, stats *cinetl.Stats) (*StagedBridges, error) {
	b := &StagedBridges{Genres: NewPairs(), Regions: NewPairs(), Languages: NewPairs()}
	add := func(ps *Pairs, key string, names []string) {
		for _, n := range names {
			ps.Add(Pair{MovieKey: key, Name: cinetl.NormalizeName(n)})
		}
	}
	err := jsonl.Scan(s, cinetl.FileMoviesBasic, stats, func(m *cinetl.MovieBasic) error {
		add(b.Genres, m.MovieKey(), m.Genres)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = jsonl.Scan(s, cinetl.FileMoviesDetails, stats, func(m *cinetl.MovieDetails) error {
		add(b.Regions, m.MovieKey(), m.Regions)
		add(b.Languages, m.MovieKey(), m.Languages)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// WritePairs writes staged pairs with the dictionary name in nameCol.
func WritePairs(path, nameCol string, ps *Pairs) error {
	w, err := table.Create(path, "movie_douban_id", nameCol)
	if err != nil {
		return err
	}
	for _, p := range ps.Items() {
		if err := w.Write(p.MovieKey, p.Name); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// StagedAward is one award observation in natural-key form, with the
// award type normalised.
type StagedAward struct {
	Festival   cinetl.FestivalKey
	AwardName  string
	AwardType  string
	IsWinner   bool
	MovieKey   string
	PersonKey  string
	PersonName string
	ExtraDesc  string
}

var stagedAwardHeader = []string{
	"festival_name", "festival_year", "award_name", "award_type", "is_winner",
	"movie_douban_id", "person_douban_id", "person_name", "extra_desc",
}

// NewStagedAward converts an observation. It reports false when the
// observation lacks the movie, the festival name or the award name.
func NewStagedAward(a *cinetl.AwardObservation) (StagedAward, bool) {
	rec := StagedAward{
		Festival:   a.Festival(),
		AwardName:  cinetl.NormalizeName(a.AwardName.String()),
		AwardType:  cinetl.NormalizeAwardType(a.AwardType.String()),
		IsWinner:   bool(a.IsWinner),
		MovieKey:   a.MovieKey(),
		PersonKey:  a.PersonKey(),
		PersonName: cinetl.NormalizeName(a.PersonName.String()),
		ExtraDesc:  cinetl.FlattenText(a.ExtraDesc.String(), 0),
	}
	if rec.MovieKey == "" || rec.Festival.Name == "" || rec.AwardName == "" {
		return rec, false
	}
	return rec, true
}

func (a StagedAward) row() []string {
	winner := "0"
	if a.IsWinner {
		winner = "1"
	}
	return []string{
		a.Festival.Name, a.Festival.YearString(), a.AwardName, a.AwardType, winner,
		a.MovieKey, a.PersonKey, a.PersonName, a.ExtraDesc,
	}
}

func stagedAwardFromRow(r table.Row) StagedAward {
	return StagedAward{
		Festival:   cinetl.NewFestivalKey(r.Get("festival_name"), cinetl.ParseOptInt(r.Get("festival_year"))),
		AwardName:  cinetl.NormalizeName(r.Get("award_name")),
		AwardType:  cinetl.NormalizeAwardType(r.Get("award_type")),
		IsWinner:   cinetl.ParseFlag(r.Get("is_winner")),
		MovieKey:   r.Get("movie_douban_id"),
		PersonKey:  r.Get("person_douban_id"),
		PersonName: r.Get("person_name"),
		ExtraDesc:  r.Get("extra_desc"),
	}
}

// StageAwards writes every usable award observation to path.
func StageAwards(s *jsonl.Store, path string, stats *cinetl.Stats) (int, error) {
	w, err := table.Create(path, stagedAwardHeader...)
	if err != nil {
		return 0, err
	}
	err = jsonl.Scan(s, cinetl.FileAwards, stats, func(a *cinetl.AwardObservation) error {
		rec, ok := NewStagedAward(a)
		if !ok {
			stats.Inc(StagedAwards, cinetl.StatNoKey)
			return nil
		}
		stats.Inc(StagedAwards, cinetl.StatWritten)
		return w.Write(rec.row()...)
	})
	if err != nil {
		w.Abort()
		return 0, err
	}
	return w.Rows(), w.Commit()
}

// ReadStagedAwards calls fn for every row of a staged award table. A
// missing table is an error since the awards stage cannot run without it.
func ReadStagedAwards(path string, fn func(StagedAward) error) error {
	found, err := table.Read(path, func(r table.Row) error {
		return fn(stagedAwardFromRow(r))
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("staged award table %s not found", path)
	}
	return nil
}

// ReadPairs calls fn for every row of a staged pair table. A missing table
// has no rows.
func ReadPairs(path, nameCol string, fn func(Pair) error) error {
	_, err := table.Read(path, func(r table.Row) error {
		return fn(Pair{MovieKey: r.Get("movie_douban_id"), Name: r.Get(nameCol)})
	})
	return err
}
