package cinetl

// MovieRef identifies the movie an observation is about. Older crawls name
// the field movie_douban_id, newer ones movie_id.
type MovieRef struct {
	MovieDoubanID NaturalKey `json:"movie_douban_id"`
	MovieID       NaturalKey `json:"movie_id"`
}

// MovieKey returns the movie natural key, or "" when none was recorded.
func (r MovieRef) MovieKey() string {
	return FirstNonEmpty(string(r.MovieDoubanID), string(r.MovieID))
}

// PersonRef identifies the person an observation is about.
type PersonRef struct {
	PersonDoubanID NaturalKey `json:"person_douban_id"`
	PersonID       NaturalKey `json:"person_id"`
}

// PersonKey returns the person natural key, or "" when none was recorded.
func (r PersonRef) PersonKey() string {
	return FirstNonEmpty(string(r.PersonDoubanID), string(r.PersonID))
}

// MovieBasic is a line of movies_basic.jsonl.
type MovieBasic struct {
	MovieRef
	Title          Text     `json:"title"`
	ImageURL       Text     `json:"image_url"`
	ReleaseDate    Text     `json:"release_date"`
	Genres         TextList `json:"genres"`
	RuntimeMinutes Text     `json:"runtime_minutes"`
}

// MovieDetails is a line of movies_details.jsonl.
type MovieDetails struct {
	MovieRef
	Regions   TextList `json:"regions"`
	Languages TextList `json:"languages"`
}

// MovieSummary is a line of movies_summary.jsonl.
type MovieSummary struct {
	MovieRef
	Summary Text `json:"summary"`
}

// Credit is a line of movie_cast.jsonl or movie_crew.jsonl. Which kind of
// credit it is depends on the file it was read from.
type Credit struct {
	MovieRef
	PersonRef
	Name       Text   `json:"name"`
	Department Text   `json:"department"`
	Role       Text   `json:"role"`
	Order      OptInt `json:"order"`
}

// AwardObservation is a line of movie_awards.jsonl.
type AwardObservation struct {
	MovieRef
	PersonRef
	FestivalName Text   `json:"festival_name"`
	FestivalYear OptInt `json:"festival_year"`
	FestivalURL  Text   `json:"festival_url"`
	AwardName    Text   `json:"award_name"`
	ResultRaw    Text   `json:"result_raw"`
	IsWinner     Flag   `json:"is_winner"`
	AwardType    Text   `json:"award_type"`
	PersonName   Text   `json:"person_name"`
	ExtraDesc    Text   `json:"extra_desc"`
}

// Festival returns the composite festival key of the observation.
func (a AwardObservation) Festival() FestivalKey {
	return NewFestivalKey(a.FestivalName.String(), a.FestivalYear)
}

// PersonDetail is a line of person_details.jsonl (or the region-fixed copy).
type PersonDetail struct {
	PersonRef
	NameCN        Text `json:"name_cn"`
	Name          Text `json:"name"`
	AvatarURL     Text `json:"avatar_url"`
	Sex           Text `json:"sex"`
	BirthDate     Text `json:"birth_date"`
	DeathDate     Text `json:"death_date"`
	BirthPlaceRaw Text `json:"birth_place_raw"`
	BirthRegion   Text `json:"birth_region"`
	IMDbID        Text `json:"imdb_id"`
}

// DisplayName is the detail-API name, preferring the Chinese one.
func (p PersonDetail) DisplayName() string {
	return FirstNonEmpty(NormalizeName(p.NameCN.String()), NormalizeName(p.Name.String()))
}

// Region is the birth region of the person. It is extracted from the raw
// birth place when one was recorded and falls back to the stored region.
func (p PersonDetail) Region() string {
	if raw := p.BirthPlaceRaw.String(); raw != "" {
		return BirthRegion(raw)
	}
	return NormalizeName(p.BirthRegion.String())
}

// UserRef identifies the reviewer of a rating or watch observation.
type UserRef struct {
	UserHash    Text `json:"user_hash"`
	UsernameRaw Text `json:"username_raw"`
}

// Hash returns the anonymised user key. Observations that lost their hash
// but kept the raw name are hashed the way the crawler does it.
func (u UserRef) Hash() string {
	if h := u.UserHash.String(); h != "" {
		return h
	}
	return UserHash(u.UsernameRaw.String())
}

// RatingObservation is a line of movie_ratings.jsonl.
type RatingObservation struct {
	MovieRef
	UserRef
	Rating    OptInt `json:"rating"`
	CreatedAt Text   `json:"created_at"`
	Review    Text   `json:"review"`
}

// WatchObservation is a line of movie_watch_records.jsonl.
type WatchObservation struct {
	MovieRef
	UserRef
	Status    Text `json:"status"`
	CreatedAt Text `json:"created_at"`
	Star      Flag `json:"star"`
}

// SeedRef is the part of a persons_seed.jsonl line the ETL needs.
type SeedRef struct {
	PersonRef
	Name Text `json:"name"`
}

// Raw partition file names, as written by the crawler into each worker
// directory.
const (
	FileMoviesBasic        = "movies_basic.jsonl"
	FileMoviesDetails      = "movies_details.jsonl"
	FileMoviesSummary      = "movies_summary.jsonl"
	FileCast               = "movie_cast.jsonl"
	FileCrew               = "movie_crew.jsonl"
	FileAwards             = "movie_awards.jsonl"
	FilePersonDetails      = "person_details.jsonl"
	FilePersonDetailsFixed = "person_details_fixed.jsonl"
	FileRatings            = "movie_ratings.jsonl"
	FileWatchRecords       = "movie_watch_records.jsonl"
)
