// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure-Go translation of SQLite, so the binary
// cross-compiles without a C toolchain. The blank import registers the
// driver with database/sql under the name "sqlite".
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open is lazy; Ping surfaces a bad path or permissions now rather
	// than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during a write — a must for a web server.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
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

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables. CREATE TABLE IF NOT EXISTS keeps this
// idempotent across restarts.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			github_id      INTEGER NOT NULL UNIQUE,
			name           TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			login_method   TEXT NOT NULL DEFAULT '',
			avatar_url     TEXT NOT NULL DEFAULT '',
			role           TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_signed_in DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bites (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			bite_id     TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by  INTEGER NOT NULL REFERENCES users(id),
			tags        TEXT NOT NULL DEFAULT '[]',
			downloads   INTEGER NOT NULL DEFAULT 0,
			likes       INTEGER NOT NULL DEFAULT 0,
			is_public   INTEGER NOT NULL DEFAULT 1,
			framework   TEXT NOT NULL DEFAULT 'vanilla',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bites_created_at ON bites(created_at);
		CREATE INDEX IF NOT EXISTS idx_bites_created_by ON bites(created_by);
	`)
	if err != nil {
		return fmt.Errorf("creating bites table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bite_files (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			bite_id    TEXT NOT NULL,
			filename   TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			file_type  TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bite_files_bite_id ON bite_files(bite_id);
	`)
	if err != nil {
		return fmt.Errorf("creating bite_files table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bite_metadata (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			bite_id      TEXT NOT NULL UNIQUE,
			version      TEXT NOT NULL DEFAULT '1.0.0',
			last_commit  TEXT NOT NULL DEFAULT '',
			dependencies TEXT NOT NULL DEFAULT '[]',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating bite_metadata table: %w", err)
	}

	// (bite_id, user_id) is unique so a repeated grant updates the role
	// instead of stacking ambiguous rows.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bite_permissions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			bite_id    TEXT NOT NULL,
			user_id    INTEGER NOT NULL,
			role       TEXT NOT NULL CHECK (role IN ('owner', 'developer', 'viewer')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (bite_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_bite_permissions_bite_id ON bite_permissions(bite_id);
	`)
	if err != nil {
		return fmt.Errorf("creating bite_permissions table: %w", err)
	}

	// Version history. Present for schema parity; no procedure writes it yet.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bite_versions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			bite_id        TEXT NOT NULL,
			version_number INTEGER NOT NULL,
			message        TEXT NOT NULL DEFAULT '',
			created_by     INTEGER NOT NULL,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating bite_versions table: %w", err)
	}

	return nil
}
