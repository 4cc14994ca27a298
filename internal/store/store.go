package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a node id is not in the store.
	ErrNotFound = errors.New("producer not found")

	// ErrMultipleHeads is returned when storage holds more than one
	// unreferenced node, which means a multi-write operation was interrupted.
	ErrMultipleHeads = errors.New("multiple list heads in storage")
)

// pragmas are set on open, in order.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
}

// migrations[v] moves a database from user_version v to v+1.
// The base schema is version 0.
var migrations = []func(*sql.Tx) error{
	// Head discovery looks up next_id for every row.
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_producers_next ON producers(next_id)`)
		return err
	},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = len(migrations)

// Store persists producer nodes and the event log in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and brings its schema up to
// date. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection: SQLite has one writer, and each ":memory:"
	// connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	for _, p := range pragmas {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set pragma %s: %w", p.name, err)
		}
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.migrate()
}

// migrate runs each pending migration in its own transaction together with
// the user_version bump.
func (s *Store) migrate() error {
	version, err := s.userVersion()
	if err != nil {
		return err
	}
	for v := version; v < schemaVersion; v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

func (s *Store) userVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// pragma reads the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var v string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&v); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return v, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for inspection and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
