// Package zlog adapts zerolog to the cinetl.Logger interface. Console output
// is human readable; an optional log file receives JSON lines and is rotated
// by lumberjack.
package zlog

import (
	"io"
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes where and how much to log.
type Config struct {
	Verbose    bool
	File       string // empty means console only
	MaxSize    int    // megabytes before the file is rotated
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	NoColor    bool
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// Logger is a cinetl.Logger writing through zerolog. Every line carries the
// run id of the process that wrote it.
type Logger struct {
	zl    zerolog.Logger
	RunID string
	file  io.Closer
}

var _ cinetl.Logger = &Logger{}

// New creates a Logger writing to console and, if cfg.File is set, to a
// rotated file.
func New(console io.Writer, cfg Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	var out io.Writer = zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	l := &Logger{RunID: uuid.NewString()}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if _, err := lj.Write(nil); err != nil {
			return nil, errors.Wrapf(err, "opening log file %s", cfg.File)
		}
		l.file = lj
		out = zerolog.MultiLevelWriter(out, lj)
	}
	l.zl = zerolog.New(out).Level(level).With().
		Timestamp().
		Str("run_id", l.RunID).
		Logger()
	return l, nil
}

// Stage returns a child logger that tags every line with stage.
func (l *Logger) Stage(stage string) *Logger {
	return &Logger{
		zl:    l.zl.With().Str("stage", stage).Logger(),
		RunID: l.RunID,
	}
}

// Printf implements cinetl.Logger at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

// Debugf implements cinetl.Logger at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

// Stats logs every counter of stats as one structured event.
func (l *Logger) Stats(msg string, stats *cinetl.Stats) {
	d := zerolog.Dict()
	stats.Each(func(name string, value int64) {
		d.Int64(name, value)
	})
	l.zl.Info().Dict("stats", d).Msg(msg)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
