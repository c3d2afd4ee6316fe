// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// SCHEMA NOTES:
// The snippet's like set and version history are their own tables rather
// than embedded arrays. The primary key on snippet_likes(snippet_id,
// user_id) is what enforces "a user likes a snippet at most once", and the
// counter/membership updates run inside one transaction so the mirror
// counter can't drift from the set.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import `_ "modernc.org/sqlite"` is a "side-effect only" import.
	// The sqlite package's init() function registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// One DB value implements SnippetRepository, CommentRepository and
// UserRepository; the server owns its lifecycle (New creates, Close destroys).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/snippetshare.db" → file-based database (persistent)
//   - ":memory:"             → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works. Without this, a bad
	// path or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We rely on them: snippets → users, comments/likes/versions → snippets.
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

// Close closes the database connection pool. Always defer it next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// this is safe to run on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			image         TEXT NOT NULL DEFAULT '',
			provider      TEXT NOT NULL DEFAULT 'credentials',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// tags is a JSON array of strings. Filtering by tag uses json_each,
	// so no separate tag table is needed.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL,
			language    TEXT NOT NULL,
			visibility  TEXT NOT NULL DEFAULT 'public',
			author_id   TEXT NOT NULL REFERENCES users(id),
			tags        TEXT NOT NULL DEFAULT '[]',
			views       INTEGER NOT NULL DEFAULT 0,
			likes       INTEGER NOT NULL DEFAULT 0,
			version     INTEGER NOT NULL DEFAULT 1,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
		CREATE INDEX IF NOT EXISTS idx_snippets_author_id ON snippets(author_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_visibility ON snippets(visibility);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// One row per displaced code revision. (snippet_id, version) is the
	// natural key — a snippet can't have two history entries with the
	// same version number.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_versions (
			snippet_id TEXT NOT NULL REFERENCES snippets(id),
			version    INTEGER NOT NULL,
			code       TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (snippet_id, version)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_versions table: %w", err)
	}

	// The composite primary key IS the set semantics: inserting the same
	// (snippet, user) pair twice is impossible.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_likes (
			snippet_id TEXT NOT NULL REFERENCES snippets(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (snippet_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_likes table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id),
			author_id  TEXT NOT NULL REFERENCES users(id),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_snippet_id ON comments(snippet_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}
