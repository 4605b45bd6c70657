package store

import (
	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

// SearchDocumentsRequest contains parameters for searching documents.
type SearchDocumentsRequest struct {
	Query    string
	Page     int
	PageSize int
}

// SearchDocumentsResponse contains the result of a search operation.
type SearchDocumentsResponse struct {
	Documents  []client.Document
	TotalCount int
	PageCount  int
}

// SearchDocuments runs a full text search over the titles and contents of cached documents.
func (s *Store) SearchDocuments(req SearchDocumentsRequest) (*SearchDocumentsResponse, error) {
	query := matchQuery(req.Query)
	if query == "" {
		return &SearchDocumentsResponse{}, nil
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM documents_fts
		WHERE documents_fts MATCH ?
	`, query).Scan(&total)
	if err != nil {
		return nil, errors.Wrap(err, "counting search results")
	}

	pageCount := (total + req.PageSize - 1) / req.PageSize
	offset := (req.Page - 1) * req.PageSize

	rows, err := s.db.Query(`
		SELECT d.id, d.title, d.content, d.file_path, d.is_processed, d.creation_timestamp, d.update_timestamp
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.id
		WHERE documents_fts MATCH ?
		ORDER BY documents_fts.rank
		LIMIT ? OFFSET ?
	`, query, req.PageSize, offset)
	if err != nil {
		return nil, errors.Wrap(err, "querying search results")
	}
	defer rows.Close()

	documents, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	return &SearchDocumentsResponse{
		Documents:  documents,
		TotalCount: total,
		PageCount:  pageCount,
	}, nil
}
