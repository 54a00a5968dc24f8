package cinetl

import (
	"log"
	"sync"
)

// Logger is the interface that loggers must implement to get pipeline logs.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// NopLogger logs nothing.
type NopLogger struct{}

// Printf does nothing.
func (NopLogger) Printf(format string, v ...interface{}) {}

// Debugf does nothing.
func (NopLogger) Debugf(format string, v ...interface{}) {}

// StdLogger only prints on Printf.
type StdLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s StdLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface, but prints nothing.
func (StdLogger) Debugf(format string, v ...interface{}) {}

// VerboseLogger prints on both Printf and Debugf.
type VerboseLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s VerboseLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface.
func (s VerboseLogger) Debugf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Counter events. A counter is addressed by table (or input file) and
// event, e.g. "movie_ratings_for_sql.csv" / StatDuplicate.
const (
	StatRead            = "read"
	StatWritten         = "written"
	StatMalformed       = "malformed"
	StatNoKey           = "skipped_no_key"
	StatBadKey          = "skipped_bad_key"
	StatEmpty           = "skipped_empty"
	StatNoName          = "skipped_no_name"
	StatMissingMovie    = "skipped_missing_movie"
	StatMissingPerson   = "skipped_missing_person"
	StatMissingUser     = "skipped_missing_user"
	StatMissingFestival = "skipped_missing_festival"
	StatMissingAward    = "skipped_missing_award"
	StatMissingDict     = "skipped_missing_dict"
	StatOutOfDomain     = "skipped_out_of_domain"
	StatNoTimestamp     = "skipped_no_timestamp"
	StatDuplicate       = "duplicate"
	StatAdded           = "added"
	StatUpdated         = "updated"
)

// Stats is an explicit set of named counters. Counters keep the order in
// which they were first touched so summaries read top to bottom like the
// stage ran. Stats is safe for concurrent use.
type Stats struct {
	lock  sync.Mutex
	names []string
	vals  map[string]int64
}

// NewStats returns an empty counter set.
func NewStats() *Stats {
	return &Stats{vals: make(map[string]int64)}
}

func statName(table, event string) string {
	return table + "." + event
}

// Add adds n to the counter for table and event.
func (s *Stats) Add(table, event string, n int64) {
	if s == nil {
		return
	}
	name := statName(table, event)
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.vals == nil {
		s.vals = make(map[string]int64)
	}
	if _, ok := s.vals[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vals[name] += n
}

// Inc adds one to the counter for table and event.
func (s *Stats) Inc(table, event string) {
	s.Add(table, event, 1)
}

// Get returns the counter for table and event.
func (s *Stats) Get(table, event string) int64 {
	if s == nil {
		return 0
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.vals[statName(table, event)]
}

// Each calls fn for every counter in first-touch order.
func (s *Stats) Each(fn func(name string, value int64)) {
	if s == nil {
		return
	}
	s.lock.Lock()
	names := append([]string(nil), s.names...)
	vals := make([]int64, len(names))
	for i, n := range names {
		vals[i] = s.vals[n]
	}
	s.lock.Unlock()
	for i, n := range names {
		fn(n, vals[i])
	}
}

// Len returns the number of counters.
func (s *Stats) Len() int {
	if s == nil {
		return 0
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.names)
}
