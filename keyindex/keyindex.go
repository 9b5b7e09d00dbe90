// Package keyindex implements the store's durable bidirectional map between
// external string keys and internal integer ids, backed by a SQLite
// database ("map.db" under the store root).
//
// The mapping is kept in two uniqueness-constrained tables, forward (id ->
// key) and backward (key -> id), so both lookup directions are index
// lookups. The invariant forward[id] = key <=> backward[key] = id holds for
// every committed entry; Add never silently overwrites either side.
//
// Writes are batched in a transaction that is started lazily by Add and
// ended by Commit (or Close). Uncommitted rows are visible to reads within
// the same session; durability across a process crash is only guaranteed
// after Commit.
package keyindex

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	_ "modernc.org/sqlite" // database/sql driver
)

var (
	// ErrNotFound is returned when a key or id is not present.
	ErrNotFound = errors.New("keyindex: not found")
	// ErrDuplicateKey is returned when adding a key that is already mapped.
	ErrDuplicateKey = errors.New("keyindex: duplicate key")
	// ErrDuplicateID is returned when adding an id that is already mapped.
	ErrDuplicateID = errors.New("keyindex: duplicate id")
	// ErrReadOnly is returned when mutating a read-only index.
	ErrReadOnly = errors.New("keyindex: read-only")
	// ErrClosed is returned when operating on a closed index.
	ErrClosed = errors.New("keyindex: closed")
)

const (
	createForward = `CREATE TABLE IF NOT EXISTS forward (
		id INTEGER PRIMARY KEY,
		prot_id TEXT NOT NULL
	);`
	createBackward = `CREATE TABLE IF NOT EXISTS backward (
		prot_id TEXT PRIMARY KEY,
		id INTEGER NOT NULL,
		FOREIGN KEY (id) REFERENCES forward (id)
	);`
)

// Index is a durable two-way map between string keys and int64 ids.
//
// A read-write Index is owned by a single writer. A read-only Index rejects
// Add with ErrReadOnly; its query methods are safe for concurrent use once
// opened.
type Index struct {
	path     string
	readOnly bool

	db *sql.DB
	tx *sql.Tx // current write batch, nil when no batch is open
}

// New creates an unopened index handle for the database at path.
func New(path string, readOnly bool) *Index {
	return &Index{path: path, readOnly: readOnly}
}

// ReadOnly reports whether the index rejects mutation.
func (ix *Index) ReadOnly() bool { return ix.readOnly }

// Open opens the database and, for writable indexes, ensures the schema
// exists. It is idempotent while open.
func (ix *Index) Open() error {
	if ix.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", ix.path)
	if err != nil {
		return fmt.Errorf("keyindex: open %s: %w", ix.path, err)
	}

	// The batch transaction pins a single connection; more would deadlock
	// the driver against our own uncommitted writes.
	db.SetMaxOpenConns(1)

	if !ix.readOnly {
		for _, stmt := range []string{createForward, createBackward} {
			if _, err := db.Exec(stmt); err != nil {
				db.Close()
				return fmt.Errorf("keyindex: create schema: %w", err)
			}
		}
	}

	ix.db = db
	return nil
}

// querier routes reads through the open batch transaction when one exists,
// giving read-your-writes within a writer session.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (ix *Index) q() querier {
	if ix.tx != nil {
		return ix.tx
	}
	return ix.db
}

// Add registers the pair (id, key) in both directions within the current
// batch. It fails with ErrDuplicateKey or ErrDuplicateID if either side is
// already mapped, leaving the index unchanged.
func (ix *Index) Add(id int64, key string) error {
	if ix.db == nil {
		return ErrClosed
	}
	if ix.readOnly {
		return ErrReadOnly
	}

	if ix.tx == nil {
		tx, err := ix.db.Begin()
		if err != nil {
			return fmt.Errorf("keyindex: begin batch: %w", err)
		}
		ix.tx = tx
	}

	// backward first: a duplicate key is the common caller error and must
	// leave no trace.
	if _, err := ix.tx.Exec(`INSERT INTO backward (prot_id, id) VALUES (?, ?)`, key, id); err != nil {
		return translateConstraint(err)
	}
	if _, err := ix.tx.Exec(`INSERT INTO forward (id, prot_id) VALUES (?, ?)`, id, key); err != nil {
		// Undo the backward half so a duplicate id leaves the index unchanged.
		if _, delErr := ix.tx.Exec(`DELETE FROM backward WHERE prot_id = ?`, key); delErr != nil {
			return errors.Join(translateConstraint(err), delErr)
		}
		return translateConstraint(err)
	}

	return nil
}

func translateConstraint(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "backward.prot_id"):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "forward.id"):
		return fmt.Errorf("%w: %v", ErrDuplicateID, err)
	default:
		return fmt.Errorf("keyindex: insert: %w", err)
	}
}

// ResolveKey returns the id mapped to key.
func (ix *Index) ResolveKey(key string) (int64, error) {
	if ix.db == nil {
		return 0, ErrClosed
	}

	var id int64
	err := ix.q().QueryRow(`SELECT id FROM backward WHERE prot_id = ?`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	if err != nil {
		return 0, fmt.Errorf("keyindex: resolve key %q: %w", key, err)
	}
	return id, nil
}

// ResolveID returns the key mapped to id.
func (ix *Index) ResolveID(id int64) (string, error) {
	if ix.db == nil {
		return "", ErrClosed
	}

	var key string
	err := ix.q().QueryRow(`SELECT prot_id FROM forward WHERE id = ?`, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("keyindex: resolve id %d: %w", id, err)
	}
	return key, nil
}

// Keys iterates all keys in insertion (id) order. The sequence is finite
// and restartable; iteration errors end the sequence early.
func (ix *Index) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if ix.db == nil {
			return
		}

		rows, err := ix.q().Query(`SELECT prot_id FROM forward ORDER BY id`)
		if err != nil {
			return
		}
		defer rows.Close()

		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return
			}
			if !yield(key) {
				return
			}
		}
	}
}

// Count returns the number of committed-or-batched entries.
func (ix *Index) Count() (int64, error) {
	if ix.db == nil {
		return 0, ErrClosed
	}

	var n int64
	if err := ix.q().QueryRow(`SELECT COUNT(*) FROM forward`).Scan(&n); err != nil {
		return 0, fmt.Errorf("keyindex: count: %w", err)
	}
	return n, nil
}

// Commit makes the current batch durable. It is a no-op when no batch is
// open.
func (ix *Index) Commit() error {
	if ix.db == nil {
		return ErrClosed
	}
	if ix.tx == nil {
		return nil
	}

	err := ix.tx.Commit()
	ix.tx = nil
	if err != nil {
		return fmt.Errorf("keyindex: commit: %w", err)
	}
	return nil
}

// Rollback discards the current batch. It is a no-op when no batch is open.
func (ix *Index) Rollback() error {
	if ix.db == nil {
		return ErrClosed
	}
	if ix.tx == nil {
		return nil
	}

	err := ix.tx.Rollback()
	ix.tx = nil
	if err != nil {
		return fmt.Errorf("keyindex: rollback: %w", err)
	}
	return nil
}

// Close commits any open batch and closes the database. It is safe to call
// multiple times.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}

	err := ix.Commit()
	if closeErr := ix.db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	ix.db = nil
	ix.tx = nil
	return err
}
