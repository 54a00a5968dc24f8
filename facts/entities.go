package facts

import (
	"github.com/cinegraph/cinetl/collect"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
)

// WriteMovies writes movies.csv in id order.
func WriteMovies(path string, ms *collect.Movies, a *keys.Assignment[string]) error {
	w, err := table.Create(path, "id", "movie_douban_id", "title", "image_url", "release_date", "runtime_minutes", "summary")
	if err != nil {
		return err
	}
	for _, key := range a.Order {
		m, _ := ms.Get(key)
		if err := w.Write(formatID(a.IDs[key]), key, m.Title, m.ImageURL, m.ReleaseDate, m.RuntimeMinutes, m.Summary); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// WritePersons writes persons.csv in id order.
func WritePersons(path string, ps *collect.Persons, a *keys.Assignment[string]) error {
	w, err := table.Create(path, "id", "person_douban_id", "name", "avatar_url", "sex",
		"birth_date", "death_date", "birth_place_raw", "birth_region", "imdb_id")
	if err != nil {
		return err
	}
	for _, key := range a.Order {
		p, _ := ps.Get(key)
		if err := w.Write(formatID(a.IDs[key]), key, p.Name, p.AvatarURL, p.Sex,
			p.BirthDate, p.DeathDate, p.BirthPlaceRaw, p.BirthRegion, p.IMDbID); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
