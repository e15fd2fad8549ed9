package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPureGo is the modernc.org/sqlite driver name.
	DriverPureGo = "sqlite"
)

// Open opens (or creates) a local SQLite database file with the given driver
// and applies pending migrations. It uses versioned .sql files under
// internal/db/migrations following the pattern:
//
//	0001_name.up.sql / 0001_name.down.sql
//
// Only new migrations are applied. Use RollbackLast to revert the last applied migration.
func Open(driver, path string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	if path == "" {
		path = "app.db"
	}
	d, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; a single connection keeps foreign_keys in force
	// and serializes writers the way SQLite wants anyway.
	d.SetMaxOpenConns(1)
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := d.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		_ = d.Close()
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := applyMigrations(d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure. Both
// drivers surface the SQLite message text, so the check is driver neutral.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Applied describes one migration recorded in schema_migrations.
type Applied struct {
	Version   int
	Name      string
	AppliedAt string
}

// RollbackLast reverts the most recently applied migration using its down
// script and returns the version it rolled back (0 when nothing was applied).
func RollbackLast(d *sql.DB) (int, error) {
	if d == nil {
		return 0, errors.New("nil db")
	}
	applied, err := AppliedMigrations(d)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, nil
	}
	last := applied[len(applied)-1]
	migs, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	for _, m := range migs {
		if m.version != last.Version {
			continue
		}
		if err := runScript(d, m.down, `DELETE FROM schema_migrations WHERE version = ?`, m.version); err != nil {
			return 0, fmt.Errorf("rollback %04d_%s: %w", m.version, m.name, err)
		}
		return m.version, nil
	}
	return 0, fmt.Errorf("applied migration %04d_%s is not known to this build", last.Version, last.Name)
}

// AppliedMigrations lists applied migrations in ascending version order.
func AppliedMigrations(d *sql.DB) ([]Applied, error) {
	if _, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := d.Query(`SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Applied
	for rows.Next() {
		var a Applied
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migration is one reversible schema step; both scripts are required so
// "migrate rollback" can always undo what Open applied.
type migration struct {
	version int
	name    string
	up      string
	down    string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_([a-z0-9_]+)\.(up|down)\.sql$`)

// loadMigrations returns the embedded migrations sorted by version.
func loadMigrations() ([]migration, error) {
	list, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	byVersion := map[int]*migration{}
	for _, de := range list {
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			return nil, fmt.Errorf("unexpected file in migrations: %s", de.Name())
		}
		ver, _ := strconv.Atoi(m[1])
		item, ok := byVersion[ver]
		if !ok {
			item = &migration{version: ver, name: m[2]}
			byVersion[ver] = item
		} else if item.name != m[2] {
			return nil, fmt.Errorf("migration %04d has two names: %s and %s", ver, item.name, m[2])
		}
		if m[3] == "up" {
			item.up = "migrations/" + de.Name()
		} else {
			item.down = "migrations/" + de.Name()
		}
	}
	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.up == "" || m.down == "" {
			return nil, fmt.Errorf("migration %04d_%s needs both up and down scripts", m.version, m.name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func applyMigrations(d *sql.DB) error {
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := AppliedMigrations(d)
	if err != nil {
		return err
	}
	done := make(map[int]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	for _, m := range migs {
		if done[m.version] {
			continue
		}
		if err := runScript(d, m.up, `INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.version, m.name, err)
		}
	}
	return nil
}

// runScript executes one migration file and its bookkeeping statement in a
// single transaction.
func runScript(d *sql.DB, file, bookkeeping string, args ...any) error {
	raw, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(string(raw)); err != nil {
		return err
	}
	if _, err := tx.Exec(bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}
