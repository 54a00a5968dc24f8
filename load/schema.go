// Package load creates the relational schema for the published tables in
// Postgres and bulk-copies the CSV tables into it.
package load

import (
	"github.com/cinegraph/cinetl/dict"
	"github.com/cinegraph/cinetl/facts"
)

// Movie is a row of movies.csv.
type Movie struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement:false"`
	MovieDoubanID  string `gorm:"size:32;uniqueIndex;not null"`
	Title          string
	ImageURL       string
	ReleaseDate    string `gorm:"size:32"`
	RuntimeMinutes *int
	Summary        string
}

// Person is a row of persons.csv.
type Person struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement:false"`
	PersonDoubanID string `gorm:"size:32;uniqueIndex;not null"`
	Name           string `gorm:"not null"`
	AvatarURL      string
	Sex            string `gorm:"size:16"`
	BirthDate      string `gorm:"size:32"`
	DeathDate      string `gorm:"size:32"`
	BirthPlaceRaw  string
	BirthRegion    string `gorm:"index"`
	IMDbID         string `gorm:"column:imdb_id;size:32"`
}

// Genre is a row of dict_genre.csv.
type Genre struct {
	ID   uint64 `gorm:"column:genre_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;not null"`
}

// TableName implements gorm's tabler.
func (Genre) TableName() string { return "dict_genre" }

// Language is a row of dict_language.csv.
type Language struct {
	ID   uint64 `gorm:"column:lang_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;not null"`
}

// TableName implements gorm's tabler.
func (Language) TableName() string { return "dict_language" }

// Region is a row of dict_region.csv.
type Region struct {
	ID   uint64 `gorm:"column:region_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;not null"`
}

// TableName implements gorm's tabler.
func (Region) TableName() string { return "dict_region" }

// Festival is a row of dict_festival.csv. A null year is unknown.
type Festival struct {
	ID   uint64 `gorm:"column:festival_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"not null;uniqueIndex:idx_festival_edition"`
	Year *int   `gorm:"uniqueIndex:idx_festival_edition"`
	URL  string `gorm:"column:url"`
}

// TableName implements gorm's tabler.
func (Festival) TableName() string { return "dict_festival" }

// Award is a row of dict_award.csv.
type Award struct {
	ID         uint64 `gorm:"column:award_id;primaryKey;autoIncrement:false"`
	FestivalID uint64 `gorm:"not null;uniqueIndex:idx_award_key"`
	Festival   Festival
	Name       string `gorm:"not null;uniqueIndex:idx_award_key"`
	AwardType  string `gorm:"size:16;uniqueIndex:idx_award_key"`
}

// TableName implements gorm's tabler.
func (Award) TableName() string { return "dict_award" }

// Position is a row of positions.csv.
type Position struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"uniqueIndex;not null"`
}

// CastCredit is a row of cast_credit.csv.
type CastCredit struct {
	MovieID     uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie       Movie
	PersonID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Person      Person
	RoleName    string `gorm:"primaryKey;size:64"`
	IsPrincipal bool
}

// TableName implements gorm's tabler.
func (CastCredit) TableName() string { return "cast_credit" }

// CrewCredit is a row of crew_credit.csv.
type CrewCredit struct {
	MovieID     uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie       Movie
	PersonID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Person      Person
	PositionID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Position    Position
	IsPrincipal bool
}

// TableName implements gorm's tabler.
func (CrewCredit) TableName() string { return "crew_credit" }

// User is a row of users.csv.
type User struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserHash string `gorm:"size:64;uniqueIndex;not null"`
	Name     string `gorm:"size:64"`
	Email    string `gorm:"size:128"`
}

// AppUser is a row of app_users_for_sql.csv. Its id is the id of the user
// it was made from.
type AppUser struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"size:64;uniqueIndex;not null"`
	Mail string `gorm:"size:128;uniqueIndex;not null"`
}

// MovieGenre is a row of movie_genre_for_sql.csv.
type MovieGenre struct {
	MovieID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie   Movie
	GenreID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Genre   Genre
}

// TableName implements gorm's tabler.
func (MovieGenre) TableName() string { return "movie_genre" }

// MovieRegion is a row of movie_region_for_sql.csv.
type MovieRegion struct {
	MovieID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie    Movie
	RegionID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Region   Region
}

// TableName implements gorm's tabler.
func (MovieRegion) TableName() string { return "movie_region" }

// MovieLanguage is a row of movie_language_for_sql.csv.
type MovieLanguage struct {
	MovieID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie      Movie
	LanguageID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Language   Language
}

// TableName implements gorm's tabler.
func (MovieLanguage) TableName() string { return "movie_language" }

// AwardRecord is a row of award_record_for_sql.csv. Movie awards have no
// person.
type AwardRecord struct {
	ID          uint64  `gorm:"primaryKey"`
	AwardID     uint64  `gorm:"not null;index"`
	Award       Award
	MovieID     uint64  `gorm:"not null;index"`
	Movie       Movie
	PersonID    *uint64 `gorm:"index"`
	Person      *Person
	IsWinner    bool
	Description string
}

// MovieRating is a row of movie_ratings_for_sql.csv.
type MovieRating struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	User      User
	MovieID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie     Movie
	Rating    int    `gorm:"not null"`
	CreatedAt string `gorm:"size:32;not null"`
	Review    string
}

// WatchingRecord is a row of watching_records_for_sql.csv.
type WatchingRecord struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	User      User
	MovieID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Movie     Movie
	Star      bool
	Status    string `gorm:"size:16;not null"`
	CreatedAt string `gorm:"size:32;not null"`
}

// Table ties a published CSV table to its relational table.
type Table struct {
	Name  string
	File  string
	Dict  bool
	Model interface{}
	// Columns are the CSV header, which is also the COPY column list.
	Columns []string
	// Nullable columns load an empty cell as NULL.
	Nullable []string
}

// Tables lists every published table, referenced tables first.
func Tables() []Table {
	return []Table{
		{Name: "movies", File: facts.MoviesFile, Model: &Movie{},
			Columns:  []string{"id", "movie_douban_id", "title", "image_url", "release_date", "runtime_minutes", "summary"},
			Nullable: []string{"runtime_minutes"}},
		{Name: "people", File: facts.PersonsFile, Model: &Person{},
			Columns: []string{"id", "person_douban_id", "name", "avatar_url", "sex", "birth_date", "death_date", "birth_place_raw", "birth_region", "imdb_id"}},
		{Name: "dict_genre", File: dict.GenreFile, Dict: true, Model: &Genre{},
			Columns: []string{dict.GenreIDCol, "name"}},
		{Name: "dict_language", File: dict.LanguageFile, Dict: true, Model: &Language{},
			Columns: []string{dict.LanguageIDCol, "name"}},
		{Name: "dict_region", File: dict.RegionFile, Dict: true, Model: &Region{},
			Columns: []string{dict.RegionIDCol, "name"}},
		{Name: "dict_festival", File: dict.FestivalFile, Dict: true, Model: &Festival{},
			Columns:  []string{"festival_id", "name", "year", "url"},
			Nullable: []string{"year"}},
		{Name: "dict_award", File: dict.AwardFile, Dict: true, Model: &Award{},
			Columns: []string{"award_id", "festival_id", "name", "award_type"}},
		{Name: "positions", File: dict.PositionFile, Dict: true, Model: &Position{},
			Columns: []string{"id", "name"}},
		{Name: "cast_credit", File: facts.CastFile, Model: &CastCredit{},
			Columns: []string{"movie_id", "person_id", "role_name", "is_principal"}},
		{Name: "crew_credit", File: facts.CrewFile, Model: &CrewCredit{},
			Columns: []string{"movie_id", "person_id", "position_id", "is_principal"}},
		{Name: "users", File: facts.UsersFile, Model: &User{},
			Columns: []string{"id", "user_hash", "name", "email"}},
		{Name: "app_users", File: facts.AppUsersFile, Model: &AppUser{},
			Columns: []string{"id", "name", "mail"}},
		{Name: "movie_genre", File: facts.GenreBridge, Model: &MovieGenre{},
			Columns: []string{"movie_id", "genre_id"}},
		{Name: "movie_region", File: facts.RegionBridge, Model: &MovieRegion{},
			Columns: []string{"movie_id", "region_id"}},
		{Name: "movie_language", File: facts.LanguageBridge, Model: &MovieLanguage{},
			Columns: []string{"movie_id", "language_id"}},
		{Name: "award_records", File: facts.AwardsFile, Model: &AwardRecord{},
			Columns:  []string{"award_id", "movie_id", "person_id", "is_winner", "description"},
			Nullable: []string{"person_id"}},
		{Name: "movie_ratings", File: facts.RatingsFile, Model: &MovieRating{},
			Columns: []string{"user_id", "movie_id", "rating", "created_at", "review"}},
		{Name: "watching_records", File: facts.WatchingFile, Model: &WatchingRecord{},
			Columns: []string{"user_id", "movie_id", "star", "status", "created_at"}},
	}
}

// Models returns the gorm models of tables in order.
func Models(tables []Table) []interface{} {
	ms := make([]interface{}, len(tables))
	for i, t := range tables {
		ms[i] = t.Model
	}
	return ms
}
