// Package store implements a local SQLite snapshot cache of the remote document
// and conversation state.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		file_path TEXT NOT NULL DEFAULT '',
		is_processed INTEGER NOT NULL DEFAULT 0,
		creation_timestamp INTEGER NOT NULL,
		update_timestamp INTEGER NOT NULL
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		id UNINDEXED,
		title,
		content
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		creation_timestamp INTEGER NOT NULL,
		update_timestamp INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		conversation_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		id INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		sources TEXT NOT NULL DEFAULT 'null',
		creation_timestamp INTEGER NOT NULL,
		PRIMARY KEY (conversation_id, position)
	)`,
}

// Store implements a SQLite cache for documents, conversations and messages.
type Store struct {
	db *sql.DB
}

// New store.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// Writers would otherwise race for the file lock.
	db.SetMaxOpenConns(1)

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "creating schema")
		}
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
