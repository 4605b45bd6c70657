package store

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

// ReplaceDocuments replaces the cached documents with the given list.
func (s *Store) ReplaceDocuments(documents []client.Document) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
			return errors.Wrap(err, "clearing documents")
		}
		if _, err := tx.Exec(`DELETE FROM documents_fts`); err != nil {
			return errors.Wrap(err, "clearing documents index")
		}
		for i := range documents {
			if err := insertDocument(tx, &documents[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertDocument(tx *sql.Tx, document *client.Document) error {
	_, err := tx.Exec(`
		REPLACE INTO documents (id, title, content, file_path, is_processed, creation_timestamp, update_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, document.ID, document.Title, document.Content, document.FilePath, boolToInt(document.IsProcessed),
		toTimestamp(document.CreatedAt), toTimestamp(document.UpdatedAt))
	if err != nil {
		return errors.Wrapf(err, "writing document %d", document.ID)
	}
	if _, err := tx.Exec(`DELETE FROM documents_fts WHERE id = ?`, document.ID); err != nil {
		return errors.Wrapf(err, "clearing index of document %d", document.ID)
	}
	if _, err := tx.Exec(`INSERT INTO documents_fts (id, title, content) VALUES (?, ?, ?)`,
		document.ID, document.Title, document.Content); err != nil {
		return errors.Wrapf(err, "indexing document %d", document.ID)
	}
	return nil
}

// DeleteDocument removes a document from the cache. Unknown ids are ignored.
func (s *Store) DeleteDocument(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
			return errors.Wrap(err, "deleting document")
		}
		if _, err := tx.Exec(`DELETE FROM documents_fts WHERE id = ?`, id); err != nil {
			return errors.Wrap(err, "deleting document index")
		}
		return nil
	})
}

// ListDocuments returns the cached documents ordered by id.
func (s *Store) ListDocuments() ([]client.Document, error) {
	rows, err := s.db.Query(`
		SELECT id, title, content, file_path, is_processed, creation_timestamp, update_timestamp
		FROM documents
		ORDER BY id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func scanDocument(row interface{ Scan(...any) error }) (client.Document, error) {
	var document client.Document
	var isProcessed int
	var creationTimestamp, updateTimestamp int64
	if err := row.Scan(&document.ID, &document.Title, &document.Content, &document.FilePath,
		&isProcessed, &creationTimestamp, &updateTimestamp); err != nil {
		return document, errors.Wrap(err, "scanning document row")
	}
	document.IsProcessed = isProcessed != 0
	document.CreatedAt = fromTimestamp(creationTimestamp)
	document.UpdatedAt = fromTimestamp(updateTimestamp)
	return document, nil
}

func scanDocuments(rows *sql.Rows) ([]client.Document, error) {
	var documents []client.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating document rows")
	}
	return documents, nil
}
