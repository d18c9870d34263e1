// Package store is the SQLite-backed Symbol Index : the
// durable, indexed store of symbols, super/implements edges, and
// JAR-origin external symbols, keyed by FQN, short name, parent, file
// position, file path, and branch.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the SQLite data access layer backing the Symbol Index.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger injects a structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore opens a SQLite database at dbPath with WAL mode and foreign
// keys enabled.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in ad hoc queries and
// transactions by collaborating packages (depcache, resolve).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate runs the ordered, append-only migration list . Idempotent.
func (s *Store) Migrate() error {
	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migrate: step %d: %w", i, err)
		}
	}
	return nil
}

// migrations is the append-only schema history. New schema changes are
// appended as new elements, never rewritten in place.
var migrations = []string{
	schemaV1,
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
  id            INTEGER PRIMARY KEY,
  path          TEXT NOT NULL,
  language      TEXT NOT NULL,
  vcs_branch    TEXT NOT NULL,
  hash          TEXT,
  last_indexed  TIMESTAMP,
  UNIQUE(vcs_branch, path)
);

CREATE TABLE IF NOT EXISTS symbols (
  id                  INTEGER PRIMARY KEY,
  file_id             INTEGER REFERENCES files(id),
  vcs_branch          TEXT NOT NULL,
  short_name          TEXT NOT NULL,
  fqn                 TEXT NOT NULL,
  parent_fqn          TEXT,
  file_path           TEXT NOT NULL,
  language            TEXT NOT NULL,
  symbol_type         TEXT NOT NULL,
  modifiers           TEXT,
  extends_name        TEXT,
  implements_names    TEXT,
  start_byte          INTEGER, start_line INTEGER, start_col INTEGER,
  end_byte            INTEGER, end_line INTEGER, end_col INTEGER,
  ident_start_byte    INTEGER, ident_start_line INTEGER, ident_start_col INTEGER,
  ident_end_byte      INTEGER, ident_end_line INTEGER, ident_end_col INTEGER,
  last_modified       TIMESTAMP,
  metadata            TEXT
);

CREATE TABLE IF NOT EXISTS super_edges (
  id              INTEGER PRIMARY KEY,
  symbol_fqn      TEXT NOT NULL,
  vcs_branch      TEXT NOT NULL,
  short_name      TEXT NOT NULL,
  resolved_fqn    TEXT
);

CREATE TABLE IF NOT EXISTS implements_edges (
  id              INTEGER PRIMARY KEY,
  symbol_fqn      TEXT NOT NULL,
  vcs_branch      TEXT NOT NULL,
  short_name      TEXT NOT NULL,
  resolved_fqn    TEXT
);

CREATE TABLE IF NOT EXISTS external_symbols (
  id                  INTEGER PRIMARY KEY,
  jar_path            TEXT NOT NULL,
  source_file_path    TEXT NOT NULL,
  package_name        TEXT,
  short_name          TEXT NOT NULL,
  fqn                 TEXT NOT NULL,
  parent_fqn          TEXT,
  symbol_type         TEXT NOT NULL,
  modifiers           TEXT,
  start_byte          INTEGER, start_line INTEGER, start_col INTEGER,
  end_byte            INTEGER, end_line INTEGER, end_col INTEGER,
  ident_start_byte    INTEGER, ident_start_line INTEGER, ident_start_col INTEGER,
  ident_end_byte      INTEGER, ident_end_line INTEGER, ident_end_col INTEGER,
  needs_decompilation BOOLEAN DEFAULT TRUE,
  metadata            TEXT,
  UNIQUE(jar_path, source_file_path, fqn)
);

CREATE TABLE IF NOT EXISTS imports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  fqn_or_stem     TEXT NOT NULL,
  imported_name   TEXT,
  is_wildcard     BOOLEAN DEFAULT FALSE,
  is_static       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS jar_scans (
  jar_path    TEXT PRIMARY KEY,
  mtime_unix  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(vcs_branch, fqn);
CREATE INDEX IF NOT EXISTS idx_symbols_short_name ON symbols(vcs_branch, short_name);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(vcs_branch, parent_fqn);
CREATE INDEX IF NOT EXISTS idx_symbols_file_pos ON symbols(file_id, start_line, end_line);
CREATE INDEX IF NOT EXISTS idx_symbols_file_path ON symbols(file_path, vcs_branch);
CREATE INDEX IF NOT EXISTS idx_symbols_type ON symbols(vcs_branch, symbol_type);
CREATE INDEX IF NOT EXISTS idx_symbols_extends ON symbols(vcs_branch, extends_name);

CREATE INDEX IF NOT EXISTS idx_super_edges_symbol ON super_edges(vcs_branch, symbol_fqn);
CREATE INDEX IF NOT EXISTS idx_super_edges_target ON super_edges(vcs_branch, resolved_fqn);
CREATE INDEX IF NOT EXISTS idx_super_edges_short ON super_edges(vcs_branch, short_name);

CREATE INDEX IF NOT EXISTS idx_implements_edges_symbol ON implements_edges(vcs_branch, symbol_fqn);
CREATE INDEX IF NOT EXISTS idx_implements_edges_target ON implements_edges(vcs_branch, resolved_fqn);
CREATE INDEX IF NOT EXISTS idx_implements_edges_short ON implements_edges(vcs_branch, short_name);

CREATE INDEX IF NOT EXISTS idx_external_fqn ON external_symbols(fqn);
CREATE INDEX IF NOT EXISTS idx_external_short_name ON external_symbols(short_name);
CREATE INDEX IF NOT EXISTS idx_external_parent ON external_symbols(parent_fqn);
CREATE INDEX IF NOT EXISTS idx_external_type ON external_symbols(symbol_type);

CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_stem ON imports(fqn_or_stem);
`

// GetMetadata reads a single metadata value, returning "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return v, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
