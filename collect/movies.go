// Package collect folds the many partial observations of an entity into a
// single record per natural key.
package collect

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
)

// Movie is the merged view of one movie.
type Movie struct {
	Key            string
	Title          string
	ImageURL       string
	ReleaseDate    string
	RuntimeMinutes string
	Summary        string
	Genres         *cinetl.StringSet
	Regions        *cinetl.StringSet
	Languages      *cinetl.StringSet
}

// NewMovie returns an empty movie for key.
func NewMovie(key string) *Movie {
	return &Movie{
		Key:       key,
		Genres:    cinetl.NewStringSet(),
		Regions:   cinetl.NewStringSet(),
		Languages: cinetl.NewStringSet(),
	}
}

// MergeBasic folds a basic-info observation into m. Scalars keep their
// first non-empty value, genres are unioned.
func (m *Movie) MergeBasic(b *cinetl.MovieBasic) {
	cinetl.Fill(&m.Title, b.Title.String())
	cinetl.Fill(&m.ImageURL, b.ImageURL.String())
	cinetl.Fill(&m.ReleaseDate, b.ReleaseDate.String())
	cinetl.Fill(&m.RuntimeMinutes, cinetl.ParseOptInt(b.RuntimeMinutes.String()).String())
	for _, g := range b.Genres {
		m.Genres.Add(cinetl.NormalizeName(g))
	}
}

// MergeDetails unions the region and language lists of d into m.
func (m *Movie) MergeDetails(d *cinetl.MovieDetails) {
	for _, r := range d.Regions {
		m.Regions.Add(cinetl.NormalizeName(r))
	}
	for _, l := range d.Languages {
		m.Languages.Add(cinetl.NormalizeName(l))
	}
}

// MergeSummary sets the plot summary if none was seen yet.
func (m *Movie) MergeSummary(s *cinetl.MovieSummary) {
	cinetl.Fill(&m.Summary, cinetl.FlattenText(s.Summary.String(), 0))
}

// Empty reports whether no attribute besides the key has been observed.
func (m *Movie) Empty() bool {
	return m.Title == "" && m.ImageURL == "" && m.ReleaseDate == "" &&
		m.RuntimeMinutes == "" && m.Summary == "" &&
		m.Genres.Len() == 0 && m.Regions.Len() == 0 && m.Languages.Len() == 0
}

// Movies is a set of merged movies in first-seen order.
type Movies struct {
	byKey map[string]*Movie
	order []string
}

func newMovies() *Movies {
	return &Movies{byKey: make(map[string]*Movie)}
}

func (ms *Movies) getOrCreate(key string) *Movie {
	m, ok := ms.byKey[key]
	if !ok {
		m = NewMovie(key)
		ms.byKey[key] = m
		ms.order = append(ms.order, key)
	}
	return m
}

// Get returns the movie for key.
func (ms *Movies) Get(key string) (*Movie, bool) {
	m, ok := ms.byKey[key]
	return m, ok
}

// Keys returns the natural keys in first-seen order.
func (ms *Movies) Keys() []string {
	return append([]string(nil), ms.order...)
}

// Len returns the number of movies.
func (ms *Movies) Len() int { return len(ms.order) }

// MoviesTable is the counter name used for the merged movie set.
const MoviesTable = "movies"

// CollectMovies collects every movie of the store. Movies come into existence only
// through the basic-info stream; details and summaries only enrich movies
// already seen there. A movie that ends up with no attribute at all is
// dropped.
func CollectMovies(s *jsonl.Store, stats *cinetl.Stats, log cinetl.Logger) (*Movies, error) {
	ms := newMovies()
	err := jsonl.Scan(s, cinetl.FileMoviesBasic, stats, func(b *cinetl.MovieBasic) error {
		key := b.MovieKey()
		if key == "" {
			stats.Inc(cinetl.FileMoviesBasic, cinetl.StatNoKey)
			return nil
		}
		ms.getOrCreate(key).MergeBasic(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = jsonl.Scan(s, cinetl.FileMoviesDetails, stats, func(d *cinetl.MovieDetails) error {
		m, ok := ms.byKey[d.MovieKey()]
		if !ok {
			stats.Inc(cinetl.FileMoviesDetails, cinetl.StatMissingMovie)
			return nil
		}
		m.MergeDetails(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = jsonl.Scan(s, cinetl.FileMoviesSummary, stats, func(sum *cinetl.MovieSummary) error {
		m, ok := ms.byKey[sum.MovieKey()]
		if !ok {
			stats.Inc(cinetl.FileMoviesSummary, cinetl.StatMissingMovie)
			return nil
		}
		m.MergeSummary(sum)
		return nil
	})
	if err != nil {
		return nil, err
	}
	kept := ms.order[:0]
	for _, key := range ms.order {
		if ms.byKey[key].Empty() {
			log.Debugf("dropping movie %s: no attributes observed", key)
			stats.Inc(MoviesTable, cinetl.StatEmpty)
			delete(ms.byKey, key)
			continue
		}
		kept = append(kept, key)
	}
	ms.order = kept
	return ms, nil
}
