package store

import (
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type DBDriver string

const (
	DBSQLite   DBDriver = "sqlite"
	DBPostgres DBDriver = "postgres"
)

// migrationDialect carries the per-driver bits: where its migration files
// live, the bookkeeping DDL, and how a version row is claimed.
type migrationDialect struct {
	dir          string
	createTable  string
	claimVersion string
	encodeTime   func(time.Time) any
}

var dialects = map[DBDriver]migrationDialect{
	DBSQLite: {
		dir: "migrations/sqlite",
		createTable: `CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TEXT NOT NULL
)`,
		claimVersion: `INSERT INTO schema_migrations(version, applied_at)
VALUES(?, ?) ON CONFLICT(version) DO NOTHING`,
		encodeTime: func(t time.Time) any { return t.Format(time.RFC3339) },
	},
	DBPostgres: {
		dir: "migrations/postgres",
		createTable: `CREATE TABLE IF NOT EXISTS subreview_schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL
)`,
		claimVersion: `INSERT INTO subreview_schema_migrations(version, applied_at)
VALUES($1, $2) ON CONFLICT(version) DO NOTHING`,
		encodeTime: func(t time.Time) any { return t },
	},
}

// Migrate applies the embedded sequential migrations for driver, recording
// each applied version so reruns are no-ops.
func Migrate(db *sql.DB, driver DBDriver) error {
	if db == nil {
		return fmt.Errorf("missing db")
	}
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("unsupported db driver: %s", driver)
	}

	if _, err := db.Exec(d.createTable); err != nil {
		return err
	}

	files, err := d.listFiles()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, file := range files {
		if err := d.applyFile(db, file, now); err != nil {
			return err
		}
	}
	return nil
}

func (d migrationDialect) listFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, filepath.Join(d.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// applyFile claims the version row and runs the file's SQL in one
// transaction; an already-claimed version rolls back and moves on.
func (d migrationDialect) applyFile(db *sql.DB, file string, now time.Time) error {
	version := strings.TrimSuffix(filepath.Base(file), ".sql")
	contents, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(d.claimVersion, version, d.encodeTime(now))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if claimed == 0 {
		return tx.Rollback()
	}

	if _, err := tx.Exec(string(contents)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	return tx.Commit()
}
