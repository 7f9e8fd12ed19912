// Package store is the single source of truth for the catalog cache and
// local sync state.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SchemaVersion is stamped into the meta table when the schema is created.
// A store stamped with any other version must not be reinterpreted.
const SchemaVersion = 1

var (
	ErrNotConnected          = errors.New("not connected to database")
	ErrSchemaVersionMismatch = errors.New("unknown database schema version")
)

// DB wraps the single logical connection shared by all workers. Write
// transactions are serialized by an internal guard so concurrent sync runs
// never interleave writes.
type DB struct {
	*sqlx.DB
	mu     sync.Mutex
	closed atomic.Bool
}

// Connect opens the store, creating and stamping the schema if absent. An
// existing store with a different schema version fails before any write.
func Connect(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := validateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{DB: db}, nil
}

func validateSchema(db *sqlx.DB) error {
	var one int
	err := db.Get(&one, "SELECT 1 FROM sqlite_schema WHERE type = 'table' AND name = 'meta'")
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := db.Exec(Schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		if _, err := db.Exec(
			"INSERT INTO meta (id, version, ctime) VALUES (1, ?, ?)",
			SchemaVersion, time.Now().UnixMicro(),
		); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	var version int
	if err := db.Get(&version, "SELECT version FROM meta"); err != nil {
		return fmt.Errorf("%w: missing version stamp", ErrSchemaVersionMismatch)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: have %d, want %d", ErrSchemaVersionMismatch, version, SchemaVersion)
	}
	return nil
}

// Close closes the connection. Any operation afterwards fails with
// ErrNotConnected.
func (db *DB) Close() error {
	db.closed.Store(true)
	return db.DB.Close()
}

func (db *DB) guard() error {
	if db == nil || db.DB == nil || db.closed.Load() {
		return ErrNotConnected
	}
	return nil
}

// Transaction runs fn inside BEGIN..COMMIT, rolling back if fn fails. The
// whole transaction body holds the process-wide write guard.
func (db *DB) Transaction(fn func(tx *sqlx.Tx) error) error {
	if err := db.guard(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
