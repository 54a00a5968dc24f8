// Package facts projects raw observations into staging tables keyed by
// natural keys, and staging tables into bridge and fact tables that
// reference only surrogate ids.
package facts

import (
	"strconv"

	"github.com/cinegraph/cinetl"
)

// Output tables, relative to the output directory.
const (
	MoviesFile     = "movies.csv"
	PersonsFile    = "persons.csv"
	CastFile       = "cast_credit.csv"
	CrewFile       = "crew_credit.csv"
	UsersFile      = "users.csv"
	AppUsersFile   = "app_users_for_sql.csv"
	AwardsFile     = "award_record_for_sql.csv"
	RatingsFile    = "movie_ratings_for_sql.csv"
	WatchingFile   = "watching_records_for_sql.csv"
	GenreBridge    = "movie_genre_for_sql.csv"
	RegionBridge   = "movie_region_for_sql.csv"
	LanguageBridge = "movie_language_for_sql.csv"

	StagedGenres    = "movie_genres.csv"
	StagedRegions   = "movie_regions.csv"
	StagedLanguages = "movie_languages.csv"
	StagedAwards    = "award_records.csv"
	StagedRatings   = "movie_ratings.csv"
	StagedWatching  = "watching_records.csv"
)

// lookup resolves key through r. A blank key is never found.
func lookup(r cinetl.Resolver, key string) (uint64, bool, error) {
	if key == "" {
		return 0, false, nil
	}
	return r.Resolve(key)
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func itoa(v int) string { return strconv.Itoa(v) }
