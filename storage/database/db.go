// Package database opens the SQL database backing persistent profiles and applies its migrations.
package database

import (
	"context"
	"database/sql"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/trezcool/semillero/assets"
	"github.com/trezcool/semillero/core"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrNoDriver = errors.New("no database driver configured")

// Open connects to the configured database and waits for it to answer.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	if conf.Driver == "" {
		return nil, ErrNoDriver
	}
	db, err := sqlx.Open(conf.Driver, conf.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", conf.Driver)
	}
	if conf.Driver == DriverSQLite && strings.Contains(conf.DSN, ":memory:") {
		// each connection to an in-memory sqlite gets its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate applies, in name order, every embedded migration not yet recorded in schema_migrations.
// It returns the names of the migrations it applied.
func Migrate(ctx context.Context, db *sqlx.DB) ([]string, error) {
	return migrateFS(ctx, db, assets.FS, assets.MigrationsDir)
}

func migrateFS(ctx context.Context, db *sqlx.DB, fsys fs.FS, dir string) ([]string, error) {
	const createVersions = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP    NOT NULL
	)`
	if _, err := db.ExecContext(ctx, createVersions); err != nil {
		return nil, errors.Wrap(err, "creating schema_migrations")
	}

	var done []string
	if err := db.SelectContext(ctx, &done, "SELECT version FROM schema_migrations"); err != nil {
		return nil, errors.Wrap(err, "listing applied migrations")
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, errors.Wrap(err, "listing migrations")
	}
	sort.Strings(files)

	ran := make([]string, 0)
	for _, fp := range files {
		version := strings.TrimSuffix(path.Base(fp), ".sql")
		if applied[version] {
			continue
		}
		stmt, err := fs.ReadFile(fsys, fp)
		if err != nil {
			return ran, errors.Wrapf(err, "reading %s", fp)
		}
		if err = applyMigration(ctx, db, version, string(stmt)); err != nil {
			return ran, err
		}
		ran = append(ran, version)
	}
	return ran, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, version, stmt string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(err, "applying migration %s", version)
	}
	record := tx.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)")
	if _, err = tx.ExecContext(ctx, record, version, time.Now().UTC()); err != nil {
		return errors.Wrapf(err, "recording migration %s", version)
	}
	return errors.Wrapf(tx.Commit(), "committing migration %s", version)
}
