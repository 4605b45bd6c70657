package state

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

const maxTitleLength = 500

// LoadDocuments replaces the document list with the server's.
func (s *Store) LoadDocuments(ctx context.Context) error {
	documents, err := s.api.ListDocuments(ctx)
	if err != nil {
		s.logger.Error("loading documents", "error", err)
		return err
	}
	s.mu.Lock()
	s.documents = documents
	s.mu.Unlock()
	s.writeCache("documents", func(cache Cache) error { return cache.ReplaceDocuments(documents) })
	return nil
}

// GetDocument returns a document with its chunks. It does not change the state.
func (s *Store) GetDocument(ctx context.Context, id int64) (*client.DocumentWithChunks, error) {
	document, err := s.api.GetDocument(ctx, id)
	if err != nil {
		s.logger.Error("getting document", "id", id, "error", err)
		return nil, err
	}
	return document, nil
}

// CheckFile returns an error if the file cannot be uploaded.
func (s *Store) CheckFile(name string, size int64) error {
	if !s.extensions.Allows(name) {
		return errors.Wrapf(ErrUnsupportedFile, "%s (allowed: %s)", filepath.Base(name), s.extensions)
	}
	if size > s.maxFileSize {
		return errors.Wrapf(ErrFileTooLarge, "%s is %d bytes (max %d)", filepath.Base(name), size, s.maxFileSize)
	}
	return nil
}

// UploadFile uploads the file at path.
func (s *Store) UploadFile(ctx context.Context, path string) (*client.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Error("uploading file", "path", path, "error", err)
		return nil, errors.Wrap(err, "reading file info")
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrUnsupportedFile, "%s is a directory", path)
	}
	if err := s.CheckFile(path, info.Size()); err != nil {
		s.logger.Error("uploading file", "path", path, "error", err)
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("uploading file", "path", path, "error", err)
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()
	return s.Upload(ctx, filepath.Base(path), f)
}

// Upload uploads content under the given file name, then reloads the documents.
func (s *Store) Upload(ctx context.Context, name string, content io.Reader) (*client.Document, error) {
	if err := s.CheckFile(name, 0); err != nil {
		s.logger.Error("uploading file", "name", name, "error", err)
		return nil, err
	}
	buffer := &bytes.Buffer{}
	n, err := io.Copy(buffer, io.LimitReader(content, s.maxFileSize+1))
	if err != nil {
		s.logger.Error("uploading file", "name", name, "error", err)
		return nil, errors.Wrap(err, "reading content")
	}
	if err := s.CheckFile(name, n); err != nil {
		s.logger.Error("uploading file", "name", name, "error", err)
		return nil, err
	}

	document, err := s.api.UploadDocument(ctx, name, buffer)
	if err != nil {
		s.logger.Error("uploading file", "name", name, "error", err)
		return nil, err
	}
	s.logger.Info("uploaded file", "name", name, "id", document.ID)
	s.LoadDocuments(ctx)
	return document, nil
}

// ValidateDocument trims a manual document and checks it can be created.
func ValidateDocument(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	switch {
	case title == "":
		return "", "", errors.Wrap(ErrInvalidDocument, "title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return "", "", errors.Wrapf(ErrInvalidDocument, "title is longer than %d characters", maxTitleLength)
	case content == "":
		return "", "", errors.Wrap(ErrInvalidDocument, "content is required")
	}
	return title, content, nil
}

// CreateDocument creates a document from typed text, then reloads the documents.
func (s *Store) CreateDocument(ctx context.Context, title, content string) (*client.Document, error) {
	title, content, err := ValidateDocument(title, content)
	if err != nil {
		s.logger.Error("creating document", "error", err)
		return nil, err
	}
	document, err := s.api.CreateDocument(ctx, &client.CreateDocumentRequest{Title: title, Content: content})
	if err != nil {
		s.logger.Error("creating document", "title", title, "error", err)
		return nil, err
	}
	s.LoadDocuments(ctx)
	return document, nil
}

// DeleteDocument deletes a document, then reloads the documents.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	if err := s.api.DeleteDocument(ctx, id); err != nil {
		s.logger.Error("deleting document", "id", id, "error", err)
		return err
	}
	if err := s.LoadDocuments(ctx); err != nil {
		// The reload did not reach the cache, so the deleted record is dropped by hand.
		s.writeCache("delete document", func(cache Cache) error { return cache.DeleteDocument(id) })
	}
	return nil
}

// ProcessDocument asks the server to index a document, then reloads the documents.
func (s *Store) ProcessDocument(ctx context.Context, id int64) (*client.Document, error) {
	document, err := s.api.ProcessDocument(ctx, id)
	if err != nil {
		s.logger.Error("processing document", "id", id, "error", err)
		return nil, err
	}
	s.LoadDocuments(ctx)
	return document, nil
}
