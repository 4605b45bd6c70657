package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/pkg/errors"
)

// ListDocuments returns every document.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var documents []Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents", nil, &documents); err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	return documents, nil
}

// GetDocument returns a document with its chunks.
func (c *Client) GetDocument(ctx context.Context, id int64) (*DocumentWithChunks, error) {
	document := &DocumentWithChunks{}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/documents/%d", id), nil, document); err != nil {
		return nil, errors.Wrapf(err, "getting document %d", id)
	}
	return document, nil
}

// CreateDocument creates a document from raw text.
func (c *Client) CreateDocument(ctx context.Context, request *CreateDocumentRequest) (*Document, error) {
	if err := c.validate.Struct(request); err != nil {
		return nil, errors.Wrap(err, "validating request")
	}
	document := &Document{}
	if err := c.doJSON(ctx, http.MethodPost, "/documents", request, document); err != nil {
		return nil, errors.Wrap(err, "creating document")
	}
	return document, nil
}

// UploadDocument uploads a file as multipart form field "file".
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*Document, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, errors.Wrap(err, "creating form file")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.Wrap(err, "copying file content")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart writer")
	}

	const endpoint = "/documents/upload"
	document := &Document{}
	if err := c.do(ctx, http.MethodPost, c.baseURL+endpoint, endpoint, writer.FormDataContentType(), body, document); err != nil {
		return nil, errors.Wrapf(err, "uploading %s", filename)
	}
	return document, nil
}

// ProcessDocument asks the server to chunk and index a document.
func (c *Client) ProcessDocument(ctx context.Context, id int64) (*Document, error) {
	document := &Document{}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/documents/%d/process", id), nil, document); err != nil {
		return nil, errors.Wrapf(err, "processing document %d", id)
	}
	return document, nil
}

// DeleteDocument deletes a document.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/documents/%d", id), nil, nil); err != nil {
		return errors.Wrapf(err, "deleting document %d", id)
	}
	return nil
}
