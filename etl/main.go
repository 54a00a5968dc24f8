// Package etl wires the pipeline stages together. Main holds the
// configuration shared by every stage and has one method per stage; each
// stage reads its inputs from disk, writes its tables atomically and
// reports a summary of its counters.
package etl

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/collect"
	"github.com/cinegraph/cinetl/dict"
	"github.com/cinegraph/cinetl/facts"
	"github.com/cinegraph/cinetl/jsonl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/load"
	"github.com/cinegraph/cinetl/partition"
	"github.com/cinegraph/cinetl/s3"
	"github.com/cinegraph/cinetl/seed"
	"github.com/cinegraph/cinetl/termstat"
	"github.com/pkg/errors"
)

// Main contains the configuration for the pipeline stages.
type Main struct {
	RawDir            string `help:"Directory holding one sub-directory of crawler output per worker."`
	SeedFile          string `help:"Seed person list, written by the seeds stage and read for person names."`
	OutDir            string `help:"Directory the output tables are written to."`
	DictDir           string `help:"Directory of the dictionary tables. Empty means basic_dicts under the output directory."`
	PersonDetails     string `help:"Person detail file read from each worker directory."`
	KeyIndex          string `help:"Where later stages look up surrogate ids: csv, bolt or leveldb."`
	KeyIndexPath      string `help:"Bolt file or leveldb directory. Empty means keys.db or keys.ldb under the output directory."`
	MaxFrequent       int    `help:"Maximum number of frequent_person seeds."`
	MinFrequentMovies int    `help:"Minimum number of movies for a frequent_person seed."`
	KeepUnknownPerson bool   `help:"Keep award records whose person is unknown, with an empty person id."`
	Worker            int    `help:"Worker id for the partition stage."`
	Workers           int    `help:"Number of crawler workers for the partition stage."`
	MaxPersons        int    `help:"Maximum number of ids the partition stage emits; 0 means all."`
	Progress          bool   `help:"Show progress bars while scanning raw files and running counters while loading or publishing."`
	DatabaseURL       string `help:"Postgres connection string for the load stage."`
	Truncate          bool   `help:"Empty the tables before loading them."`
	Bucket            string `help:"S3 bucket the publish stage uploads the tables to."`
	Prefix            string `help:"Key prefix for published tables."`
	Region            string `help:"AWS region of the bucket."`
	Concurrency       int    `help:"Number of tables uploaded at once."`

	log     cinetl.Logger
	stdout  io.Writer
	summary io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		RawDir:            "data/raw",
		SeedFile:          filepath.Join("data", "seeds", seed.Table),
		OutDir:            "data/etl",
		PersonDetails:     cinetl.FilePersonDetailsFixed,
		KeyIndex:          IndexCSV,
		MaxFrequent:       seed.DefaultMaxFrequent,
		MinFrequentMovies: seed.DefaultMinFrequentMovies,
		Workers:           1,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Region:            "us-east-1",
		Concurrency:       4,

		log:     cinetl.NopLogger{},
		stdout:  os.Stdout,
		summary: os.Stderr,
	}
}

// SetLogger sets the logger handed to every stage.
func (m *Main) SetLogger(l cinetl.Logger) {
	if l == nil {
		l = cinetl.NopLogger{}
	}
	m.log = l
}

// SetOutput sets where data (the partition ids) and stage summaries go.
func (m *Main) SetOutput(stdout, summary io.Writer) {
	m.stdout = stdout
	m.summary = summary
}

func (m *Main) dictDir() string {
	if m.DictDir != "" {
		return m.DictDir
	}
	return filepath.Join(m.OutDir, "basic_dicts")
}

func (m *Main) outPath(name string) string  { return filepath.Join(m.OutDir, name) }
func (m *Main) dictPath(name string) string { return filepath.Join(m.dictDir(), name) }

// statsLogger is implemented by loggers that can record counters as one
// structured event.
type statsLogger interface {
	Stats(msg string, stats *cinetl.Stats)
}

// stage runs fn with fresh counters and prints their summary.
func (m *Main) stage(name string, fn func(stats *cinetl.Stats) error) (*cinetl.Stats, error) {
	start := time.Now()
	stats := cinetl.NewStats()
	if err := m.checkKeyIndex(); err != nil {
		return stats, err
	}
	m.log.Debugf("starting %s", name)
	err := fn(stats)
	if err != nil {
		return stats, errors.Wrapf(err, "running %s", name)
	}
	if sl, ok := m.log.(statsLogger); ok {
		sl.Stats(name+" done", stats)
	}
	if m.summary != nil {
		if err := termstat.Write(m.summary, name, stats, time.Since(start)); err != nil {
			return stats, errors.Wrap(err, "writing summary")
		}
	}
	return stats, nil
}

func (m *Main) openStore() (*jsonl.Store, error) {
	opts := []jsonl.Option{jsonl.OptLogger(m.log)}
	if m.Progress {
		opts = append(opts, jsonl.OptProgress(m.summary))
	}
	return jsonl.Open(m.RawDir, opts...)
}

// FixRegions rewrites every worker's person details with the birth region
// recomputed from the raw birth place.
func (m *Main) FixRegions() (*cinetl.Stats, error) {
	return m.stage("fix-regions", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		n, err := collect.FixRegions(s, stats, m.log)
		if err != nil {
			return err
		}
		m.log.Printf("fixed person details of %d workers", n)
		return nil
	})
}

// Seeds scores persons from the credit and award streams and writes the
// seed list.
func (m *Main) Seeds() (*cinetl.Stats, error) {
	return m.stage("seeds", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		opts := seed.Options{MaxFrequent: m.MaxFrequent, MinFrequentMovies: m.MinFrequentMovies}
		n, err := seed.Build(s, m.SeedFile, opts, stats)
		if err != nil {
			return err
		}
		m.log.Printf("wrote %d seeds to %s", n, m.SeedFile)
		return nil
	})
}

// Partition prints the seed ids owned by one crawler worker, one per line.
func (m *Main) Partition() (*cinetl.Stats, error) {
	return m.stage("partition", func(stats *cinetl.Stats) error {
		opts := partition.Options{Worker: m.Worker, Workers: m.Workers, Max: m.MaxPersons}
		ids, err := partition.IDsFromFile(m.SeedFile, opts, m.log)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := fmt.Fprintln(m.stdout, id); err != nil {
				return errors.Wrap(err, "writing ids")
			}
		}
		stats.Add(seed.Table, cinetl.StatWritten, int64(len(ids)))
		return nil
	})
}

// Dicts writes the genre, language, region, festival and award
// dictionaries.
func (m *Main) Dicts() (*cinetl.Stats, error) {
	return m.stage("dicts", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		d, err := collect.CollectDicts(s, m.PersonDetails, stats)
		if err != nil {
			return err
		}
		for _, n := range []struct {
			file  string
			idCol string
			set   *cinetl.StringSet
		}{
			{dict.GenreFile, dict.GenreIDCol, d.Genres},
			{dict.LanguageFile, dict.LanguageIDCol, d.Languages},
			{dict.RegionFile, dict.RegionIDCol, d.Regions},
		} {
			a := keys.AssignNames(n.set.Items())
			if err := dict.WriteNames(m.dictPath(n.file), n.idCol, a); err != nil {
				return err
			}
			stats.Add(n.file, cinetl.StatWritten, int64(a.Len()))
		}
		fa := keys.AssignFestivals(d.Festivals)
		if err := dict.WriteFestivals(m.dictPath(dict.FestivalFile), fa, d.FestivalURLs); err != nil {
			return err
		}
		stats.Add(dict.FestivalFile, cinetl.StatWritten, int64(fa.Len()))
		aa := keys.AssignAwards(d.Awards)
		if err := dict.WriteAwards(m.dictPath(dict.AwardFile), aa, fa); err != nil {
			return err
		}
		stats.Add(dict.AwardFile, cinetl.StatWritten, int64(aa.Len()))
		return nil
	})
}

// Staging writes the natural-key bridge pairs and award records.
func (m *Main) Staging() (*cinetl.Stats, error) {
	return m.stage("staging", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		b, err := facts.StageBridges(s, stats)
		if err != nil {
			return err
		}
		for _, p := range []struct {
			bridge facts.Bridge
			pairs  *facts.Pairs
		}{
			{facts.GenreBridgeTable, b.Genres},
			{facts.RegionBridgeTable, b.Regions},
			{facts.LanguageBridgeTable, b.Languages},
		} {
			if err := facts.WritePairs(m.outPath(p.bridge.Staged), p.bridge.NameCol, p.pairs); err != nil {
				return err
			}
			stats.Add(p.bridge.Staged, cinetl.StatWritten, int64(p.pairs.Len()))
		}
		n, err := facts.StageAwards(s, m.outPath(facts.StagedAwards), stats)
		if err != nil {
			return err
		}
		m.log.Printf("staged %d award records", n)
		return nil
	})
}

// Entities writes movies.csv and persons.csv and, with a persisted key
// index, records their ids there.
func (m *Main) Entities() (*cinetl.Stats, error) {
	return m.stage("entities", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		ms, err := collect.CollectMovies(s, stats, m.log)
		if err != nil {
			return err
		}
		seedNames, err := collect.LoadSeedNames(m.SeedFile, stats, m.log)
		if err != nil {
			return err
		}
		ps, err := collect.CollectPersons(s, m.PersonDetails, seedNames, stats, m.log)
		if err != nil {
			return err
		}

		ma := keys.AssignNumeric(ms.Keys(), collect.MoviesTable, stats, m.log)
		if err := facts.WriteMovies(m.outPath(facts.MoviesFile), ms, ma); err != nil {
			return err
		}
		stats.Add(facts.MoviesFile, cinetl.StatWritten, int64(ma.Len()))
		pa := keys.AssignNumeric(ps.Keys(), collect.PersonsTable, stats, m.log)
		if err := facts.WritePersons(m.outPath(facts.PersonsFile), ps, pa); err != nil {
			return err
		}
		stats.Add(facts.PersonsFile, cinetl.StatWritten, int64(pa.Len()))

		if m.KeyIndex == IndexCSV {
			return nil
		}
		// Ids are reassigned from scratch, so stale mappings must go.
		if err := os.RemoveAll(m.keyIndexPath()); err != nil {
			return errors.Wrap(err, "removing old key index")
		}
		idx, err := m.openKeyIndex()
		if err != nil {
			return err
		}
		if err := keys.Store(idx, cinetl.KindMovie, ma); err != nil {
			idx.Close()
			return err
		}
		if err := keys.Store(idx, cinetl.KindPerson, pa); err != nil {
			idx.Close()
			return err
		}
		return errors.Wrap(idx.Close(), "closing key index")
	})
}

// Credits writes the cast and crew credit tables, extending the position
// dictionary as needed.
func (m *Main) Credits() (*cinetl.Stats, error) {
	return m.stage("credits", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		idx, err := m.resolveIndex(movieSource, personSource)
		if err != nil {
			return err
		}
		defer idx.Close()
		positions, err := dict.LoadPositions(m.dictPath(dict.PositionFile))
		if err != nil {
			return err
		}
		r := &facts.CreditResolver{
			Movies:  cinetl.KindResolver(idx, cinetl.KindMovie),
			Persons: cinetl.KindResolver(idx, cinetl.KindPerson),
		}
		if err := r.BuildCast(s, m.outPath(facts.CastFile), stats); err != nil {
			return err
		}
		if err := r.BuildCrew(s, m.outPath(facts.CrewFile), positions, stats); err != nil {
			return err
		}
		stats.Add(dict.PositionFile, cinetl.StatAdded, int64(positions.Added()))
		return positions.Save()
	})
}

// Users writes users.csv and stages ratings and watch records against
// surrogate ids.
func (m *Main) Users() (*cinetl.Stats, error) {
	return m.stage("users", func(stats *cinetl.Stats) error {
		s, err := m.openStore()
		if err != nil {
			return err
		}
		u, err := facts.CollectUsers(s, stats)
		if err != nil {
			return err
		}
		a := facts.AssignUsers(u)
		if err := facts.WriteUsers(m.outPath(facts.UsersFile), u, a); err != nil {
			return err
		}
		stats.Add(facts.UsersFile, cinetl.StatWritten, int64(a.Len()))

		idx, err := m.resolveIndex(movieSource)
		if err != nil {
			return err
		}
		defer idx.Close()
		// New users may shift existing ids.
		if err := keys.Replace(idx, cinetl.KindUser, a); err != nil {
			return err
		}
		r := &facts.FactResolver{
			Movies: cinetl.KindResolver(idx, cinetl.KindMovie),
			Users:  cinetl.KindResolver(idx, cinetl.KindUser),
		}
		if err := r.StageRatings(s, m.outPath(facts.StagedRatings), stats); err != nil {
			return err
		}
		return r.StageWatching(s, m.outPath(facts.StagedWatching), stats)
	})
}

// Bridges resolves the staged genre, region and language pairs.
func (m *Main) Bridges() (*cinetl.Stats, error) {
	return m.stage("bridges", func(stats *cinetl.Stats) error {
		idx, err := m.resolveIndex(movieSource)
		if err != nil {
			return err
		}
		defer idx.Close()
		movies := cinetl.KindResolver(idx, cinetl.KindMovie)
		for _, b := range []struct {
			bridge facts.Bridge
			file   string
			idCol  string
		}{
			{facts.GenreBridgeTable, dict.GenreFile, dict.GenreIDCol},
			{facts.RegionBridgeTable, dict.RegionFile, dict.RegionIDCol},
			{facts.LanguageBridgeTable, dict.LanguageFile, dict.LanguageIDCol},
		} {
			names, err := dict.LoadNames(m.dictPath(b.file), b.idCol)
			if err != nil {
				return err
			}
			if err := facts.ResolveBridge(m.OutDir, b.bridge, movies, names, stats); err != nil {
				return err
			}
		}
		return nil
	})
}

// Awards resolves the staged award records.
func (m *Main) Awards() (*cinetl.Stats, error) {
	return m.stage("awards", func(stats *cinetl.Stats) error {
		idx, err := m.resolveIndex(movieSource, personSource)
		if err != nil {
			return err
		}
		defer idx.Close()
		festivals, err := dict.LoadFestivals(m.dictPath(dict.FestivalFile))
		if err != nil {
			return err
		}
		awards, err := dict.LoadAwards(m.dictPath(dict.AwardFile))
		if err != nil {
			return err
		}
		r := &facts.AwardResolver{
			Movies:            cinetl.KindResolver(idx, cinetl.KindMovie),
			Persons:           cinetl.KindResolver(idx, cinetl.KindPerson),
			Festivals:         festivals,
			Awards:            awards,
			KeepUnknownPerson: m.KeepUnknownPerson,
		}
		return facts.BuildAwardRecords(m.outPath(facts.StagedAwards), m.outPath(facts.AwardsFile), r, stats)
	})
}

// AppUsers writes the application user table.
func (m *Main) AppUsers() (*cinetl.Stats, error) {
	return m.stage("app-users", func(stats *cinetl.Stats) error {
		return facts.BuildAppUsers(m.outPath(facts.UsersFile), m.outPath(facts.AppUsersFile), stats)
	})
}

// Ratings writes the final rating table.
func (m *Main) Ratings() (*cinetl.Stats, error) {
	return m.stage("ratings", func(stats *cinetl.Stats) error {
		return facts.BuildRatings(m.outPath(facts.StagedRatings), m.outPath(facts.RatingsFile), stats)
	})
}

// Watching writes the final watch record table.
func (m *Main) Watching() (*cinetl.Stats, error) {
	return m.stage("watching", func(stats *cinetl.Stats) error {
		return facts.BuildWatching(m.outPath(facts.StagedWatching), m.outPath(facts.WatchingFile), stats)
	})
}

// Load creates the relational schema and copies every final table into
// Postgres.
func (m *Main) Load() (*cinetl.Stats, error) {
	return m.stage("load", func(stats *cinetl.Stats) error {
		tables := load.Tables()
		path := func(t load.Table) string {
			if t.Dict {
				return m.dictPath(t.File)
			}
			return m.outPath(t.File)
		}
		for _, t := range tables {
			if _, err := os.Stat(path(t)); err != nil {
				return errors.Wrap(err, "missing table, run the table stages first")
			}
		}
		l, err := load.Open(m.DatabaseURL, m.log)
		if err != nil {
			return err
		}
		defer l.Close()
		l.Truncate = m.Truncate
		if m.Progress {
			c := termstat.NewCollector(m.summary, stats, time.Second)
			defer c.Stop()
		}
		ctx := context.Background()
		if err := l.Migrate(ctx, tables); err != nil {
			return err
		}
		return l.Load(ctx, tables, path, stats)
	})
}

// Publish uploads every table of the output directory to S3.
func (m *Main) Publish() (*cinetl.Stats, error) {
	return m.stage("publish", func(stats *cinetl.Stats) error {
		p, err := s3.NewPublisher(m.Bucket,
			s3.OptPubPrefix(m.Prefix),
			s3.OptPubRegion(m.Region),
			s3.OptPubConcurrency(m.Concurrency),
			s3.OptPubLogger(m.log),
		)
		if err != nil {
			return errors.Wrap(err, "getting publisher")
		}
		if m.Progress {
			c := termstat.NewCollector(m.summary, stats, time.Second)
			defer c.Stop()
		}
		return p.Publish(context.Background(), m.OutDir, stats)
	})
}

// Run runs every table stage, dictionaries through watch records, in order.
// The first failing stage stops the run.
func (m *Main) Run() error {
	start := time.Now()
	for _, st := range []func() (*cinetl.Stats, error){
		m.Dicts,
		m.Staging,
		m.Entities,
		m.Credits,
		m.Users,
		m.Bridges,
		m.Awards,
		m.AppUsers,
		m.Ratings,
		m.Watching,
	} {
		if _, err := st(); err != nil {
			return err
		}
	}
	m.log.Printf("pipeline finished in %v", time.Since(start))
	return nil
}
