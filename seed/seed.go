// Package seed decides which persons are worth a detail crawl, scoring each
// person on the credits and awards already harvested for their movies.
package seed

import (
	"sort"
	"strings"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
)

// Seed reasons.
const (
	ReasonCoreActor    = "core_actor"
	ReasonCoreDirector = "core_director"
	ReasonCoreWriter   = "core_writer"
	ReasonAwarded      = "awarded_person"
	ReasonFrequent     = "frequent_person"
)

// Default selection options.
const (
	DefaultMaxFrequent       = 300
	DefaultMinFrequentMovies = 2
)

// Evidence is everything known about one person before scoring.
type Evidence struct {
	Key  string
	Name string

	castMovies     map[string]struct{}
	crewMovies     map[string]struct{}
	castOrders     map[string]cinetl.OptInt
	bestCastOrder  cinetl.OptInt
	isDirector     bool
	isWriter       bool
	directorMovies map[string]struct{}
	writerMovies   map[string]struct{}
	wins, noms     int
}

func newEvidence(key string) *Evidence {
	return &Evidence{
		Key:            key,
		castMovies:     make(map[string]struct{}),
		crewMovies:     make(map[string]struct{}),
		castOrders:     make(map[string]cinetl.OptInt),
		directorMovies: make(map[string]struct{}),
		writerMovies:   make(map[string]struct{}),
	}
}

func hasDirector(dept, role string) bool {
	return strings.Contains(dept, "导演") ||
		strings.Contains(strings.ToLower(dept), "director") ||
		strings.Contains(strings.ToLower(role), "director")
}

func hasWriter(dept, role string) bool {
	return strings.Contains(dept, "编剧") ||
		strings.Contains(strings.ToLower(dept), "writer") ||
		strings.Contains(strings.ToLower(role), "writer")
}

// AddCast records a cast credit.
func (e *Evidence) AddCast(movie string, c *cinetl.Credit) {
	cinetl.Fill(&e.Name, cinetl.NormalizeName(c.Name.String()))
	e.castMovies[movie] = struct{}{}
	dept, role := c.Department.String(), c.Role.String()
	e.isDirector = e.isDirector || hasDirector(dept, role)
	e.isWriter = e.isWriter || hasWriter(dept, role)

	prev, seen := e.castOrders[movie]
	if o := c.Order; o.Valid {
		if !prev.Valid || o.V < prev.V {
			e.castOrders[movie] = o
		}
		if !e.bestCastOrder.Valid || o.V < e.bestCastOrder.V {
			e.bestCastOrder = o
		}
	} else if !seen {
		e.castOrders[movie] = cinetl.OptInt{}
	}
}

// AddCrew records a crew credit. Director and writer movies are counted
// from crew credits only.
func (e *Evidence) AddCrew(movie string, c *cinetl.Credit) {
	cinetl.Fill(&e.Name, cinetl.NormalizeName(c.Name.String()))
	e.crewMovies[movie] = struct{}{}
	dept, role := c.Department.String(), c.Role.String()
	if hasDirector(dept, role) {
		e.isDirector = true
		e.directorMovies[movie] = struct{}{}
	}
	if hasWriter(dept, role) {
		e.isWriter = true
		e.writerMovies[movie] = struct{}{}
	}
}

// AddAward records a person award; winners count as wins, everything else
// as a nomination.
func (e *Evidence) AddAward(winner bool) {
	if winner {
		e.wins++
	} else {
		e.noms++
	}
}

// TotalMovies is the number of distinct movies with any credit.
func (e *Evidence) TotalMovies() int {
	n := len(e.castMovies)
	for m := range e.crewMovies {
		if _, ok := e.castMovies[m]; !ok {
			n++
		}
	}
	return n
}

// Record is one line of the seed list.
type Record struct {
	PersonDoubanID  string        `json:"person_douban_id"`
	Name            *string       `json:"name"`
	TotalMovies     int           `json:"total_movies"`
	TotalCastMovies int           `json:"total_cast_movies"`
	TotalCrewMovies int           `json:"total_crew_movies"`
	BestCastOrder   cinetl.OptInt `json:"best_cast_order"`
	IsActor         bool          `json:"is_actor"`
	IsDirector      bool          `json:"is_director"`
	IsWriter        bool          `json:"is_writer"`
	AwardWins       int           `json:"award_wins"`
	AwardNoms       int           `json:"award_noms"`
	ActorScore      int           `json:"actor_score"`
	CrewScore       int           `json:"crew_score"`
	AwardScore      int           `json:"award_score"`
	TotalScore      int           `json:"total_score"`
	SeedReasons     []string      `json:"seed_reasons"`
}

// OrderPoints is the actor score of one movie given the person's best
// billing order in it.
func OrderPoints(o cinetl.OptInt) int {
	switch {
	case !o.Valid:
		return 1
	case o.V <= 3:
		return 3
	case o.V <= 8:
		return 2
	}
	return 1
}

// Score computes the scores and the rule-based reasons of e. The frequent
// reason is not decided here since it depends on every other person.
func Score(e *Evidence) Record {
	r := Record{
		PersonDoubanID:  e.Key,
		TotalMovies:     e.TotalMovies(),
		TotalCastMovies: len(e.castMovies),
		TotalCrewMovies: len(e.crewMovies),
		BestCastOrder:   e.bestCastOrder,
		IsActor:         len(e.castMovies) > 0,
		IsDirector:      e.isDirector,
		IsWriter:        e.isWriter,
		AwardWins:       e.wins,
		AwardNoms:       e.noms,
		SeedReasons:     []string{},
	}
	if e.Name != "" {
		name := e.Name
		r.Name = &name
	}
	for _, o := range e.castOrders {
		r.ActorScore += OrderPoints(o)
	}
	other := 0
	for m := range e.crewMovies {
		_, d := e.directorMovies[m]
		_, w := e.writerMovies[m]
		if !d && !w {
			other++
		}
	}
	r.CrewScore = len(e.directorMovies)*3 + len(e.writerMovies)*2 + other
	r.AwardScore = e.wins*3 + e.noms
	r.TotalScore = r.ActorScore + r.CrewScore + r.AwardScore

	cast := r.TotalCastMovies
	if cast >= 3 || (cast >= 2 && e.bestCastOrder.Valid && e.bestCastOrder.V <= 3) {
		r.SeedReasons = append(r.SeedReasons, ReasonCoreActor)
	}
	if e.isDirector && len(e.directorMovies) >= 2 {
		r.SeedReasons = append(r.SeedReasons, ReasonCoreDirector)
	}
	if e.isWriter && len(e.writerMovies) >= 3 {
		r.SeedReasons = append(r.SeedReasons, ReasonCoreWriter)
	}
	if e.wins >= 1 || e.noms >= 3 {
		r.SeedReasons = append(r.SeedReasons, ReasonAwarded)
	}
	return r
}

// Pool is the evidence of every person, in first-seen order.
type Pool struct {
	byKey map[string]*Evidence
	order []string
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{byKey: make(map[string]*Evidence)}
}

// Get returns the evidence for key, creating it if needed.
func (p *Pool) Get(key string) *Evidence {
	e, ok := p.byKey[key]
	if !ok {
		e = newEvidence(key)
		p.byKey[key] = e
		p.order = append(p.order, key)
	}
	return e
}

// Len returns the number of persons in the pool.
func (p *Pool) Len() int { return len(p.order) }

// Table is the counter name used by the scorer.
const Table = "persons_seed.jsonl"

// Collect gathers evidence from every worker, visiting each worker's cast,
// crew and award files in turn.
func Collect(s *jsonl.Store, stats *cinetl.Stats) (*Pool, error) {
	p := NewPool()
	for _, w := range s.Workers() {
		err := jsonl.ScanWorker(s, w, cinetl.FileCast, stats, func(c *cinetl.Credit) error {
			pid, mid := c.PersonKey(), c.MovieKey()
			if pid == "" || mid == "" {
				stats.Inc(cinetl.FileCast, cinetl.StatNoKey)
				return nil
			}
			p.Get(pid).AddCast(mid, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
		err = jsonl.ScanWorker(s, w, cinetl.FileCrew, stats, func(c *cinetl.Credit) error {
			pid, mid := c.PersonKey(), c.MovieKey()
			if pid == "" || mid == "" {
				stats.Inc(cinetl.FileCrew, cinetl.StatNoKey)
				return nil
			}
			p.Get(pid).AddCrew(mid, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
		err = jsonl.ScanWorker(s, w, cinetl.FileAwards, stats, func(a *cinetl.AwardObservation) error {
			if cinetl.NormalizeAwardType(a.AwardType.String()) != cinetl.AwardTypePerson {
				return nil
			}
			pid := a.PersonKey()
			if pid == "" {
				return nil
			}
			p.Get(pid).AddAward(bool(a.IsWinner))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Options bound the frequent-person pool.
type Options struct {
	MaxFrequent       int
	MinFrequentMovies int
}

// Select scores every person and returns the seeds in pool order. Persons
// matching no rule but credited on at least MinFrequentMovies movies with a
// positive score compete for MaxFrequent frequent_person slots by score.
// Persons with no movie at all are never seeds.
func Select(p *Pool, opts Options, stats *cinetl.Stats) []Record {
	records := make([]Record, 0, len(p.order))
	var candidates []int
	for _, key := range p.order {
		e := p.byKey[key]
		if e.TotalMovies() == 0 {
			stats.Inc(Table, cinetl.StatEmpty)
			continue
		}
		r := Score(e)
		records = append(records, r)
		if len(r.SeedReasons) == 0 && r.TotalMovies >= opts.MinFrequentMovies && r.TotalScore > 0 {
			candidates = append(candidates, len(records)-1)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return records[candidates[i]].TotalScore > records[candidates[j]].TotalScore
	})
	if opts.MaxFrequent >= 0 && len(candidates) > opts.MaxFrequent {
		candidates = candidates[:opts.MaxFrequent]
	}
	for _, i := range candidates {
		records[i].SeedReasons = append(records[i].SeedReasons, ReasonFrequent)
	}
	seeds := records[:0]
	for _, r := range records {
		if len(r.SeedReasons) > 0 {
			seeds = append(seeds, r)
		}
	}
	return seeds
}

// Build collects, scores and writes the seed list to out.
func Build(s *jsonl.Store, out string, opts Options, stats *cinetl.Stats) (int, error) {
	p, err := Collect(s, stats)
	if err != nil {
		return 0, err
	}
	seeds := Select(p, opts, stats)
	w, err := jsonl.Create(out)
	if err != nil {
		return 0, err
	}
	for _, r := range seeds {
		if err := w.Encode(r); err != nil {
			w.Abort()
			return 0, err
		}
		stats.Inc(Table, cinetl.StatWritten)
	}
	return len(seeds), w.Commit()
}
