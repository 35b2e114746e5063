// Package contentstore implements a content-addressed blob cache (spec
// §4.7): file contents are interned by SHA-256 hash of their bytes and
// referenced elsewhere only by the resulting opaque handle. It is backed by
// SQLite so a single on-disk file can hold both this table and the Store's
// graph snapshot (see internal/persistence).
package contentstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/winstanley-industries/preflight/internal/domain"
)

// Store is a SQLite-backed content-addressed blob cache with reference
// counting. Puts are append-mostly and need no external synchronization;
// reference-count decrements are serialized with a mutex since they race
// against concurrent Puts of the same hash (spec §5's "shared resource
// policy").
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the blobs table in the SQLite database at path.
// Use ":memory:" for an ephemeral store (tests, or a throwaway diff tool).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDB adapts an already-open database handle (e.g. shared with
// internal/persistence's snapshot tables) into a Store.
func OpenDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS blobs (
		hash       TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		ref_count  INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("create content store schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put interns data, incrementing its reference count, and returns a handle
// keyed by content hash. Interning the same bytes twice is safe and cheap:
// the second call finds the existing row and only bumps the count.
func (s *Store) Put(ctx context.Context, data []byte) (domain.ContentHandle, error) {
	hash := hashOf(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (hash, data, ref_count) VALUES (?, ?, 1)
		ON CONFLICT(hash) DO UPDATE SET ref_count = ref_count + 1
	`, hash, data)
	if err != nil {
		return domain.ContentHandle{}, fmt.Errorf("intern blob: %w", err)
	}
	return domain.ContentHandle{Hash: hash}, nil
}

// Get resolves a handle back to its bytes. Lookup is by primary key, O(1)
// expected as required by spec §4.7.
func (s *Store) Get(ctx context.Context, handle domain.ContentHandle) ([]byte, error) {
	if handle.IsZero() {
		return nil, nil
	}
	var data []byte
	row := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE hash = ?`, handle.Hash)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewError(domain.ErrNotFound, "content handle not found: "+handle.Hash)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Release decrements the reference count of every hash in hashes by one per
// occurrence, deleting any blob whose count reaches zero. Called when a
// review is deleted, with every content handle its revisions reference
// (a hash referenced twice is listed, and decremented, twice), and for
// content interned for a revision that was not committed.
func (s *Store) Release(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin release: %w", err)
	}
	defer tx.Rollback()

	for _, h := range hashes {
		if h == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE blobs SET ref_count = ref_count - 1 WHERE hash = ?`, h); err != nil {
			return fmt.Errorf("decrement refcount: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE ref_count <= 0`); err != nil {
		return fmt.Errorf("collect garbage: %w", err)
	}
	return tx.Commit()
}

// RefCount returns the current reference count for hash, or 0 if absent.
// Exposed for tests; callers in production code have no need to inspect it.
func (s *Store) RefCount(ctx context.Context, hash string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT ref_count FROM blobs WHERE hash = ?`, hash)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
