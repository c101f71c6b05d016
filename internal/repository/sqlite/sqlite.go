// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go) accessed through sqlx.
package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps a sqlx connection pool and provides the repository methods.
type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/compass.db" → file-based database
//   - ":memory:"        → in-memory database, single connection
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if strings.Contains(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn adds per-connection pragmas. Foreign keys are off by default in SQLite
// and the setting does not survive across pooled connections unless passed here.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			vegetarianism TEXT NOT NULL DEFAULT 'neither'
				CHECK (vegetarianism IN ('vegan', 'vegetarian', 'neither')),
			gluten_free   INTEGER NOT NULL DEFAULT 0,
			healthy       INTEGER NOT NULL DEFAULT 0,
			no_alcohol    INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS venues (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			address     TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			website     TEXT,
			menu        TEXT,
			description TEXT,
			price       INTEGER CHECK (price IS NULL OR price BETWEEN 1 AND 4),
			tastes      TEXT,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating venues table: %w", err)
	}

	// One profile per venue; a profile never outlives its venue.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS venue_features (
			venue_id   TEXT PRIMARY KEY REFERENCES venues(id) ON DELETE CASCADE,
			attributes TEXT NOT NULL DEFAULT '{}'
		);
	`)
	if err != nil {
		return fmt.Errorf("creating venue_features table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS venue_visits (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			venue_id   TEXT NOT NULL REFERENCES venues(id),
			visited_on DATETIME NOT NULL,
			rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_venue_visits_user_rating ON venue_visits(user_id, rating);
		CREATE INDEX IF NOT EXISTS idx_venue_visits_user_visited ON venue_visits(user_id, visited_on);
	`)
	if err != nil {
		return fmt.Errorf("creating venue_visits table: %w", err)
	}

	return nil
}

// constraintCode returns the extended SQLite result code of a constraint
// violation, or 0.
func constraintCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := constraintCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}
