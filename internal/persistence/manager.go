// Package persistence owns the single on-disk SQLite file that holds a
// schema-version header, the full Store graph (as a JSON blob, spec §6),
// and the ContentStore's hash→bytes table, sharing one database handle the
// way the teacher's sqlite store owns its own schema.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/winstanley-industries/preflight/internal/adapter/observability"
	"github.com/winstanley-industries/preflight/internal/contentstore"
	"github.com/winstanley-industries/preflight/internal/store"
)

// schemaVersion is bumped whenever the on-disk snapshot's shape changes in
// a way older binaries cannot read.
const schemaVersion = 1

// Manager owns the persistence file's database handle and the dirty-flag
// background flush loop described in spec §6: mutations mark the Store
// dirty, a ticker flushes at most once per FlushInterval, and a forced
// Flush runs on clean shutdown.
type Manager struct {
	db      *sql.DB
	content *contentstore.Store
	logger  observability.Logger

	flushEvery time.Duration
	dirty      int32

	stop chan struct{}
	done chan struct{}
}

// Open opens or creates the snapshot file at path, quarantining it first if
// it fails to parse or declares a schema_version newer than this binary
// understands: the file is renamed to "<path>.corrupt", logged at warning
// level, and the store starts empty (spec §6). Passing fresh=true discards
// any existing snapshot instead of loading it: the snapshot row is cleared
// and the file itself is kept in place, for the CLI's `serve --fresh` flag.
func Open(path string, fresh bool, logger observability.Logger, flushEvery time.Duration) (*Manager, store.Snapshot, *contentstore.Store, error) {
	if logger == nil {
		logger = observability.NewStdLogger()
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}

	if !fresh {
		if err := quarantineIfUnopenable(path, logger); err != nil {
			return nil, store.Snapshot{}, nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, store.Snapshot{}, nil, fmt.Errorf("open persistence db: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, store.Snapshot{}, nil, err
	}

	content, err := contentstore.OpenDB(db)
	if err != nil {
		db.Close()
		return nil, store.Snapshot{}, nil, err
	}

	var snap store.Snapshot
	if fresh {
		if _, execErr := db.Exec(`DELETE FROM snapshot`); execErr != nil {
			db.Close()
			return nil, store.Snapshot{}, nil, fmt.Errorf("clear snapshot for fresh start: %w", execErr)
		}
	} else {
		loaded, loadErr := loadSnapshot(db)
		if loadErr != nil && path != "" && path != ":memory:" {
			db.Close()
			if err := quarantine(path, logger, loadErr); err != nil {
				return nil, store.Snapshot{}, nil, err
			}
			return Open(path, false, logger, flushEvery)
		}
		if loadErr != nil {
			logger.LogWarning("persisted snapshot is corrupt, starting empty", map[string]any{"path": path, "error": loadErr.Error()})
			if _, execErr := db.Exec(`DELETE FROM snapshot`); execErr != nil {
				db.Close()
				return nil, store.Snapshot{}, nil, fmt.Errorf("reset corrupt snapshot: %w", execErr)
			}
		} else {
			snap = loaded
		}
	}

	m := &Manager{
		db:         db,
		content:    content,
		logger:     logger,
		flushEvery: flushEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	return m, snap, content, nil
}

func createSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshot (
		id             INTEGER PRIMARY KEY CHECK (id = 0),
		schema_version INTEGER NOT NULL,
		data           BLOB NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create persistence schema: %w", err)
	}
	return nil
}

// quarantineIfUnopenable renames path to "<path>.corrupt" if it exists but
// SQLite cannot open it as a database file.
func quarantineIfUnopenable(path string, logger observability.Logger) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return quarantine(path, logger, err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return quarantine(path, logger, err)
	}
	return nil
}

func quarantine(path string, logger observability.Logger, cause error) error {
	corruptPath := path + ".corrupt"
	if err := os.Rename(path, corruptPath); err != nil {
		return fmt.Errorf("quarantine corrupt persistence file %s: %w", path, err)
	}
	logger.LogWarning("renamed corrupt persistence file", map[string]any{
		"path":       path,
		"renamed_to": corruptPath,
		"cause":      cause.Error(),
	})
	return nil
}

func loadSnapshot(db *sql.DB) (store.Snapshot, error) {
	var version int
	var data []byte
	err := db.QueryRow(`SELECT schema_version, data FROM snapshot WHERE id = 0`).Scan(&version, &data)
	if err == sql.ErrNoRows {
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read snapshot row: %w", err)
	}
	if version > schemaVersion {
		return store.Snapshot{}, fmt.Errorf("snapshot schema version %d is newer than supported version %d", version, schemaVersion)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return store.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (m *Manager) saveSnapshot(snap store.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = m.db.Exec(`
		INSERT INTO snapshot (id, schema_version, data) VALUES (0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version, data = excluded.data
	`, schemaVersion, data)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// MarkDirty flags the Store's graph as changed since the last flush. Called
// once per observed event by the watcher goroutine internal/app's Serve
// wires up.
func (m *Manager) MarkDirty() {
	atomic.StoreInt32(&m.dirty, 1)
}

// Run starts the dirty-flag flush loop: every FlushInterval, if the Store
// has been marked dirty since the last tick, its current snapshot is
// written to disk. Run blocks until ctx is cancelled or Stop is called.
func (m *Manager) Run(ctx context.Context, st *store.Store) {
	ticker := time.NewTicker(m.flushEvery)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&m.dirty, 1, 0) {
				continue
			}
			if err := m.saveSnapshot(st.Snapshot()); err != nil {
				m.logger.LogError("persistence flush failed", map[string]any{"error": err.Error()})
				atomic.StoreInt32(&m.dirty, 1)
			}
		}
	}
}

// Flush forces an immediate, synchronous write of st's current state
// regardless of the dirty flag. Called on clean shutdown.
func (m *Manager) Flush(st *store.Store) error {
	return m.saveSnapshot(st.Snapshot())
}

// Stop halts the Run loop and waits for it to exit.
func (m *Manager) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
}

// Close releases the underlying database handle. Callers should Flush
// before Close on a clean shutdown to avoid losing the last dirty interval.
func (m *Manager) Close() error {
	return m.db.Close()
}
