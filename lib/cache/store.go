// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache is the persistent identifier cache: an embedded
// SQLite store holding one table per entity kind plus freshness
// metadata, and the refresh coordinator that reconciles those tables
// against the Skyward Cloud API on demand.
//
// Tables hold snapshots, not live truth. Staleness is tolerated by
// design; correctness is eventual, via refresh-on-miss in the
// resolver. A refresh replaces a table wholesale inside one
// transaction, so readers in other connections never observe a torn
// table — after a failed refresh they see exactly the pre-refresh
// contents.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/skyward-networks/skyward/lib/clock"
	"github.com/skyward-networks/skyward/lib/codec"
	"github.com/skyward-networks/skyward/lib/entity"
	"github.com/skyward-networks/skyward/lib/sqlitepool"
)

// schemaVersion is recorded in cache_meta under the reserved kind
// "_schema". Upgrades are additive: newer CLI versions may add tables
// or columns but never destroy unrelated ones.
const schemaVersion = 1

// kindTable maps entity kinds to their table names. Table names are
// fixed identifiers, never derived from user input.
var kindTable = map[entity.Kind]string{
	entity.KindDevice:   "devices",
	entity.KindSite:     "sites",
	entity.KindGroup:    "groups",
	entity.KindTemplate: "templates",
	entity.KindLabel:    "labels",
	entity.KindLicense:  "licenses",
	entity.KindEvent:    "events",
}

// Store is the persistent entity cache. One Store maps to one on-disk
// database file belonging to one configured profile.
//
// Store is safe for concurrent use. Refreshing one kind does not
// block reads of another; serialization of refreshes per kind is the
// Coordinator's job.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
	path   string
}

// StoreConfig holds the parameters for opening a store.
type StoreConfig struct {
	// Path is the database file, created on first run. ":memory:"
	// for tests.
	Path string

	// Clock provides the current time for freshness bookkeeping.
	// Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// OpenStore opens (and if necessary creates) the cache database. A
// database that cannot be opened or whose schema cannot be prepared
// reports ErrCorrupt so the caller can distinguish "rebuild me" from
// transient failures.
func OpenStore(cfg StoreConfig) (*Store, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := 4
	if cfg.Path == ":memory:" {
		// Each in-memory connection is its own database.
		poolSize = 1
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      cfg.Path,
		PoolSize:  poolSize,
		Logger:    logger,
		OnConnect: prepareSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	store := &Store{pool: pool, clock: clk, logger: logger, path: cfg.Path}

	// Schema preparation happens lazily per connection; force the
	// first connection now so corruption surfaces at open time, not
	// in the middle of a resolution.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	pool.Put(conn)

	return store, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// prepareSchema creates all tables. CREATE TABLE IF NOT EXISTS keeps
// upgrades additive — opening an old database never destroys data.
func prepareSchema(conn *sqlite.Conn) error {
	script := `
		CREATE TABLE IF NOT EXISTS cache_meta (
			kind         TEXT PRIMARY KEY,
			refreshed_at INTEGER NOT NULL,
			digest       TEXT NOT NULL DEFAULT ''
		);
	`
	for _, table := range tableNames() {
		script += fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key  TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			doc  BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_name ON %[1]s(name);
		`, table)
	}
	if err := sqlitex.ExecuteScript(conn, script, nil); err != nil {
		return fmt.Errorf("%w: preparing schema: %v", ErrCorrupt, err)
	}

	return sqlitex.Execute(conn,
		`INSERT INTO cache_meta (kind, refreshed_at, digest)
		 VALUES ('_schema', ?, '') ON CONFLICT (kind) DO NOTHING`,
		&sqlitex.ExecOptions{Args: []any{schemaVersion}})
}

// tableNames returns every kind table in deterministic order.
func tableNames() []string {
	names := make([]string, 0, len(kindTable))
	for _, table := range kindTable {
		names = append(names, table)
	}
	sort.Strings(names)
	return names
}

// Rows returns every cached row of kind, ordered by name then natural
// key. Undecodable row documents report ErrCorrupt.
func (s *Store) Rows(ctx context.Context, kind entity.Kind) ([]entity.Entity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var rows []entity.Entity
	err = sqlitex.Execute(conn,
		"SELECT key, doc FROM "+table+" ORDER BY name, key",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				doc := make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, doc)

				var row entity.Entity
				if err := codec.Unmarshal(doc, &row); err != nil {
					return fmt.Errorf("%w: row %s/%s: %v", ErrCorrupt, kind, stmt.ColumnText(0), err)
				}
				rows = append(rows, row)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("reading %s cache: %w", kind, asCorrupt(err))
	}
	return rows, nil
}

// Get returns the cached row of kind with the exact natural key.
func (s *Store) Get(ctx context.Context, kind entity.Kind, key string) (entity.Entity, bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return entity.Entity{}, false, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return entity.Entity{}, false, err
	}
	defer s.pool.Put(conn)

	var row entity.Entity
	var found bool
	err = sqlitex.Execute(conn,
		"SELECT doc FROM "+table+" WHERE key = ?",
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				doc := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, doc)
				if err := codec.Unmarshal(doc, &row); err != nil {
					return fmt.Errorf("%w: row %s/%s: %v", ErrCorrupt, kind, key, err)
				}
				found = true
				return nil
			},
		})
	if err != nil {
		return entity.Entity{}, false, fmt.Errorf("reading %s cache: %w", kind, asCorrupt(err))
	}
	return row, found, nil
}

// asCorrupt promotes SQLite file-damage result codes to ErrCorrupt so
// callers rebuild instead of retrying.
func asCorrupt(err error) error {
	switch sqlite.ErrCode(err) {
	case sqlite.ResultCorrupt, sqlite.ResultNotADB:
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return err
}

// Count returns the number of cached rows of kind.
func (s *Store) Count(ctx context.Context, kind entity.Kind) (int, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	var count int
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM "+table, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s cache: %w", kind, err)
	}
	return count, nil
}

// ReplaceAll atomically swaps the table contents for kind: delete
// everything, insert rows, record the refresh timestamp and listing
// digest, all in one IMMEDIATE transaction. Readers on other
// connections see either the old table or the new one, never a
// mixture, and a failure (including process death mid-replace) leaves
// the old contents intact.
func (s *Store) ReplaceAll(ctx context.Context, kind entity.Kind, rows []entity.Entity, digest string) (err error) {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("replacing %s cache: begin: %w", kind, err)
	}
	defer endTransaction(&err)

	if err = sqlitex.Execute(conn, "DELETE FROM "+table, nil); err != nil {
		return fmt.Errorf("replacing %s cache: clear: %w", kind, err)
	}

	for i := range rows {
		if err = insertRow(conn, table, &rows[i]); err != nil {
			return fmt.Errorf("replacing %s cache: %w", kind, err)
		}
	}

	if err = s.writeMeta(conn, kind, digest); err != nil {
		return fmt.Errorf("replacing %s cache: %w", kind, err)
	}

	s.logger.Debug("cache table replaced", "kind", kind, "rows", len(rows))
	return nil
}

// Upsert merges one row by natural key without touching the rest of
// the table or the freshness metadata. Used when a single entity's
// record arrives as a side effect of another command (rename, move).
func (s *Store) Upsert(ctx context.Context, row entity.Entity) error {
	table, err := tableFor(row.Kind)
	if err != nil {
		return err
	}
	if row.Key() == "" {
		return fmt.Errorf("upserting %s cache: row has no natural key", row.Kind)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	if err := insertRow(conn, table, &row); err != nil {
		return fmt.Errorf("upserting %s cache: %w", row.Kind, err)
	}
	return nil
}

// insertRow writes one row, replacing any existing row with the same
// natural key.
func insertRow(conn *sqlite.Conn, table string, row *entity.Entity) error {
	doc, err := codec.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding row %s: %w", row.Key(), err)
	}
	return sqlitex.Execute(conn,
		"INSERT OR REPLACE INTO "+table+" (key, name, doc) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{row.Key(), row.Name, doc}})
}

// writeMeta records the refresh timestamp and digest for kind.
func (s *Store) writeMeta(conn *sqlite.Conn, kind entity.Kind, digest string) error {
	return sqlitex.Execute(conn,
		`INSERT INTO cache_meta (kind, refreshed_at, digest) VALUES (?, ?, ?)
		 ON CONFLICT (kind) DO UPDATE SET refreshed_at = excluded.refreshed_at, digest = excluded.digest`,
		&sqlitex.ExecOptions{Args: []any{string(kind), s.clock.Now().UnixNano(), digest}})
}

// TouchRefreshed bumps the freshness timestamp without rewriting
// rows. The coordinator calls this when a fetched listing's digest
// matches the stored one.
func (s *Store) TouchRefreshed(ctx context.Context, kind entity.Kind) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"UPDATE cache_meta SET refreshed_at = ? WHERE kind = ?",
		&sqlitex.ExecOptions{Args: []any{s.clock.Now().UnixNano(), string(kind)}})
	if err != nil {
		return fmt.Errorf("touching %s cache: %w", kind, err)
	}
	return nil
}

// Age returns how long ago kind was last fully refreshed. The second
// return is false when the table has never been refreshed.
func (s *Store) Age(ctx context.Context, kind entity.Kind) (time.Duration, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, false, err
	}
	defer s.pool.Put(conn)

	var refreshedAt int64
	found := false
	err = sqlitex.Execute(conn,
		"SELECT refreshed_at FROM cache_meta WHERE kind = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(kind)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				refreshedAt = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return 0, false, fmt.Errorf("reading %s cache age: %w", kind, err)
	}
	if !found {
		return 0, false, nil
	}
	return s.clock.Now().Sub(time.Unix(0, refreshedAt)), true, nil
}

// Digest returns the stored listing digest for kind, or "" when the
// kind has never been refreshed.
func (s *Store) Digest(ctx context.Context, kind entity.Kind) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer s.pool.Put(conn)

	var digest string
	err = sqlitex.Execute(conn,
		"SELECT digest FROM cache_meta WHERE kind = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(kind)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				digest = stmt.ColumnText(0)
				return nil
			},
		})
	if err != nil {
		return "", fmt.Errorf("reading %s cache digest: %w", kind, err)
	}
	return digest, nil
}

// Clear drops all rows and freshness metadata for kind. The next
// resolution against the kind will trigger a refresh.
func (s *Store) Clear(ctx context.Context, kind entity.Kind) (err error) {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("clearing %s cache: %w", kind, err)
	}
	defer endTransaction(&err)

	if err = sqlitex.Execute(conn, "DELETE FROM "+table, nil); err != nil {
		return fmt.Errorf("clearing %s cache: %w", kind, asCorrupt(err))
	}
	if err = sqlitex.Execute(conn, "DELETE FROM cache_meta WHERE kind = ?",
		&sqlitex.ExecOptions{Args: []any{string(kind)}}); err != nil {
		return fmt.Errorf("clearing %s cache: %w", kind, asCorrupt(err))
	}
	return nil
}

// ClearAll clears every kind.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, kind := range entity.Kinds() {
		if err := s.Clear(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// TableStats describes one kind's cache table for introspection.
type TableStats struct {
	Kind        entity.Kind   `json:"kind"`
	Rows        int           `json:"rows"`
	Age         time.Duration `json:"age"`
	EverFetched bool          `json:"ever_fetched"`
}

// Stats reports row counts and ages for every kind, plus the database
// file size. Read-only; never triggers a refresh.
func (s *Store) Stats(ctx context.Context) ([]TableStats, int64, error) {
	stats := make([]TableStats, 0, len(kindTable))
	for _, kind := range entity.Kinds() {
		count, err := s.Count(ctx, kind)
		if err != nil {
			return nil, 0, err
		}
		age, fetched, err := s.Age(ctx, kind)
		if err != nil {
			return nil, 0, err
		}
		stats = append(stats, TableStats{Kind: kind, Rows: count, Age: age, EverFetched: fetched})
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer s.pool.Put(conn)

	var sizeBytes int64
	err = sqlitex.Execute(conn,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sizeBytes = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return nil, 0, fmt.Errorf("reading cache size: %w", err)
	}
	return stats, sizeBytes, nil
}

// Rebuild deletes the database file and reopens an empty store. The
// recovery path for ErrCorrupt. The receiver is left closed; use the
// returned store.
func (s *Store) Rebuild() (*Store, error) {
	if err := s.pool.Close(); err != nil {
		s.logger.Warn("closing corrupt store", "error", err)
	}
	if s.path != ":memory:" {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("rebuilding cache: %w", err)
			}
		}
	}
	return OpenStore(StoreConfig{Path: s.path, Clock: s.clock, Logger: s.logger})
}

// tableFor validates kind and returns its table name.
func tableFor(kind entity.Kind) (string, error) {
	table, known := kindTable[kind]
	if !known {
		return "", fmt.Errorf("unknown cache kind %q", kind)
	}
	return table, nil
}
