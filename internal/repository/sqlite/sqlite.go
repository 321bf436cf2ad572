// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go
// translation of SQLite — works everywhere Go works.
//
// The database is a single file (or ":memory:" in tests). Go's
// database/sql gives us a connection pool on top; see New for how the
// pool is tuned for SQLite's single-writer model.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with
	// database/sql at init time.
	_ "modernc.org/sqlite"
)

// DB owns the sql.DB connection pool and the schema. The repository
// interfaces are implemented by per-entity stores (UserStore,
// FolderStore, SnippetStore, TagStore) sharing this pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs
// migrations.
//
// dbPath examples:
//   - "data/codestash.db" → file-based, persistent
//   - ":memory:"          → in-memory, great for tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time. Funnelling every query
	// through a single pooled connection turns concurrent transactions
	// into a queue instead of SQLITE_BUSY errors, and it is what makes
	// a revise transaction (read + two writes) safe under concurrent
	// callers: the second revise cannot start until the first commits.
	conn.SetMaxOpenConns(1)

	// sql.Open doesn't actually connect; Ping forces it so a bad path
	// or permissions problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The schema leans on
	// them (user deletion cascades, folder deletion unfiles snippets),
	// so they must be on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Callers should defer this
// right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
//
// Relational shape:
//
//	users 1—n folders 1—n snippets 1—n history
//	users 1—n snippets (a snippet's folder is optional)
//	snippets n—m tags (via snippet_tags)
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL DEFAULT '',
			name            TEXT NOT NULL DEFAULT '',
			is_admin        INTEGER NOT NULL DEFAULT 0,
			github_id       INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0;
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS folders (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating folders table: %w", err)
	}

	// folder_id is nullable: deleting a folder unfiles its snippets
	// (ON DELETE SET NULL) rather than destroying the content.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL DEFAULT '',
			version     INTEGER NOT NULL DEFAULT 1,
			is_public   INTEGER NOT NULL DEFAULT 0,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			folder_id   TEXT REFERENCES folders(id) ON DELETE SET NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_folder_id ON snippets(folder_id);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// history is append-only. No UPDATE or DELETE statement for this
	// table exists anywhere in the codebase; rows only go away with
	// their snippet via the cascade.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			version    INTEGER NOT NULL,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_history_snippet_id ON history(snippet_id);
	`)
	if err != nil {
		return fmt.Errorf("creating history table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS snippet_tags (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (snippet_id, tag_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tags tables: %w", err)
	}

	return nil
}
