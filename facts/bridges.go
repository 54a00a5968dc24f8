package facts

import (
	"path/filepath"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
)

// Bridge describes one staged pair table and the bridge it becomes.
type Bridge struct {
	Staged  string
	NameCol string
	Out     string
	IDCol   string
}

// The three movie bridges.
var (
	GenreBridgeTable    = Bridge{Staged: StagedGenres, NameCol: "genre_name", Out: GenreBridge, IDCol: "genre_id"}
	RegionBridgeTable   = Bridge{Staged: StagedRegions, NameCol: "region_name", Out: RegionBridge, IDCol: "region_id"}
	LanguageBridgeTable = Bridge{Staged: StagedLanguages, NameCol: "language_name", Out: LanguageBridge, IDCol: "language_id"}
)

// ResolveBridge turns the staged pairs in dir into (movie_id, dict_id) rows.
// Pairs whose movie or name is unknown are counted and skipped; repeated
// pairs are written once, in first-seen order.
func ResolveBridge(dir string, b Bridge, movies, names cinetl.Resolver, stats *cinetl.Stats) error {
	w, err := table.Create(filepath.Join(dir, b.Out), "movie_id", b.IDCol)
	if err != nil {
		return err
	}
	type idPair struct{ movie, dict uint64 }
	seen := make(map[idPair]struct{})
	err = ReadPairs(filepath.Join(dir, b.Staged), b.NameCol, func(p Pair) error {
		stats.Inc(b.Out, cinetl.StatRead)
		if p.MovieKey == "" || p.Name == "" {
			stats.Inc(b.Out, cinetl.StatNoKey)
			return nil
		}
		mid, ok, err := lookup(movies, p.MovieKey)
		if err != nil {
			return err
		}
		if !ok {
			stats.Inc(b.Out, cinetl.StatMissingMovie)
			return nil
		}
		did, ok, err := lookup(names, p.Name)
		if err != nil {
			return err
		}
		if !ok {
			stats.Inc(b.Out, cinetl.StatMissingDict)
			return nil
		}
		key := idPair{mid, did}
		if _, dup := seen[key]; dup {
			stats.Inc(b.Out, cinetl.StatDuplicate)
			return nil
		}
		seen[key] = struct{}{}
		stats.Inc(b.Out, cinetl.StatWritten)
		return w.Write(formatID(mid), formatID(did))
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}
