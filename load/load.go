package load

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Loader copies published tables into Postgres.
type Loader struct {
	db  *sql.DB
	gdb *gorm.DB
	log cinetl.Logger

	// Truncate empties every loaded table before copying.
	Truncate bool
}

// Open connects to the database at url.
func Open(url string, log cinetl.Logger) (*Loader, error) {
	if url == "" {
		return nil, errors.New("no database url")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "opening gorm")
	}
	if log == nil {
		log = cinetl.NopLogger{}
	}
	return &Loader{db: db, gdb: gdb, log: log}, nil
}

// Close closes the database connection.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Migrate creates or updates the relations, keys and indexes of tables.
func (l *Loader) Migrate(ctx context.Context, tables []Table) error {
	return errors.Wrap(l.gdb.WithContext(ctx).AutoMigrate(Models(tables)...), "migrating schema")
}

// Load copies every table from the file path(t) returns, in order. Each
// table is copied in its own transaction.
func (l *Loader) Load(ctx context.Context, tables []Table, path func(t Table) string, stats *cinetl.Stats) error {
	if l.Truncate {
		names := make([]string, len(tables))
		for i, t := range tables {
			names[i] = pq.QuoteIdentifier(t.Name)
		}
		if _, err := l.db.ExecContext(ctx, "TRUNCATE "+strings.Join(names, ", ")+" CASCADE"); err != nil {
			return errors.Wrap(err, "truncating tables")
		}
	}
	for _, t := range tables {
		start := time.Now()
		n, err := l.copyTable(ctx, t, path(t))
		if err != nil {
			return errors.Wrapf(err, "loading %s", t.Name)
		}
		stats.Add(t.Name, "loaded", int64(n))
		l.log.Printf("loaded %d rows into %s in %v", n, t.Name, time.Since(start))
	}
	return nil
}

func (l *Loader) copyTable(ctx context.Context, t Table, path string) (n int, err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(t.Name, t.Columns...))
	if err != nil {
		return 0, errors.Wrap(err, "preparing copy")
	}
	found, err := table.Read(path, func(r table.Row) error {
		vals, err := t.Values(r)
		if err != nil {
			return errors.Wrapf(err, "%s line %d", path, r.Line())
		}
		n++
		_, err = stmt.ExecContext(ctx, vals...)
		return err
	})
	if err == nil && !found {
		err = errors.Errorf("%s not found", path)
	}
	if err != nil {
		stmt.Close()
		return 0, err
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, errors.Wrap(err, "flushing copy")
	}
	if err = stmt.Close(); err != nil {
		return 0, errors.Wrap(err, "closing copy")
	}
	return n, errors.Wrap(tx.Commit(), "committing")
}

// Values returns the cells of r in column order, with empty nullable cells
// as nil.
func (t Table) Values(r table.Row) ([]interface{}, error) {
	vals := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		if !r.Has(col) {
			return nil, errors.Errorf("no %s column", col)
		}
		v := r.Get(col)
		if v == "" && t.nullable(col) {
			continue
		}
		vals[i] = v
	}
	return vals, nil
}

func (t Table) nullable(col string) bool {
	for _, c := range t.Nullable {
		if c == col {
			return true
		}
	}
	return false
}
