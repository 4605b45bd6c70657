package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document is a document known to the server.
type Document struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	FilePath    string `json:"file_path,omitempty"`
	IsProcessed bool   `json:"is_processed"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   Time   `json:"updated_at"`
}

// DocumentChunk is a retrievable slice of a processed document.
type DocumentChunk struct {
	ID         int64  `json:"id"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// DocumentWithChunks is a document along with its chunks.
type DocumentWithChunks struct {
	Document
	Chunks []DocumentChunk `json:"chunks"`
}

// Conversation is a named thread of messages.
type Conversation struct {
	ID        int64  `json:"id"`
	Title     string `json:"title,omitempty"`
	CreatedAt Time   `json:"created_at"`
	UpdatedAt Time   `json:"updated_at"`
}

// DisplayTitle returns the title, or "Untitled".
func (c *Conversation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return "Untitled"
	}
	return c.Title
}

// ConversationWithMessages is a conversation with its ordered messages.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Message is a single user question or assistant answer.
type Message struct {
	// ID is 0 when the server id is unknown.
	ID             int64   `json:"id"`
	ConversationID int64   `json:"conversation_id"`
	Role           Role    `json:"role"`
	Content        string  `json:"content"`
	Sources        Sources `json:"sources,omitempty"`
	CreatedAt      Time    `json:"created_at"`
}

// Source is a retrieved excerpt cited by an answer.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Label returns a short human readable reference to the source.
func (s *Source) Label() string {
	docID, hasDoc := s.Metadata["doc_id"]
	chunk, hasChunk := s.Metadata["chunk_index"]
	switch {
	case hasDoc && hasChunk:
		return fmt.Sprintf("document %v, chunk %v", docID, chunk)
	case hasDoc:
		return fmt.Sprintf("document %v", docID)
	}
	if source, ok := s.Metadata["source"]; ok {
		return fmt.Sprint(source)
	}
	return "source"
}

// Sources decodes the server's three encodings of message sources:
// a JSON array, a JSON string holding an array, or null.
type Sources []Source

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sources) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return errors.Wrap(err, "unmarshaling sources string")
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded == "null" {
			*s = nil
			return nil
		}
		data = []byte(encoded)
	}
	var sources []Source
	if err := json.Unmarshal(data, &sources); err != nil {
		return errors.Wrap(err, "unmarshaling sources")
	}
	*s = sources
	return nil
}

// Time is a timestamp that accepts both RFC 3339 and the zone-less ISO 8601
// form the server emits. Zone-less values are read as UTC.
type Time struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NewTime wraps t.
func NewTime(t time.Time) Time { return Time{Time: t} }

// ParseTime parses an RFC 3339 or zone-less timestamp.
func ParseTime(value string) (Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return Time{Time: t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return Time{Time: t}, nil
		}
	}
	return Time{}, errors.Errorf("unrecognized timestamp %q", value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.Wrap(err, "unmarshaling timestamp")
	}
	if value == "" {
		*t = Time{}
		return nil
	}
	parsed, err := ParseTime(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required,max=500"`
	Content string `json:"content" validate:"required"`
}

// CreateConversationRequest is the body of POST /conversations.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty" validate:"max=500"`
}

// QARequest is the body of POST /qa.
type QARequest struct {
	Question       string `json:"question" validate:"required"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	TopK           int    `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=20"`
}

// QAResponse is the answer to a question.
type QAResponse struct {
	Answer         string  `json:"answer"`
	Sources        Sources `json:"sources"`
	ConversationID int64   `json:"conversation_id"`
	MessageID      int64   `json:"message_id"`
	UserMessageID  *int64  `json:"user_message_id,omitempty"`
}

// searchResponse is the body of GET /search.
type searchResponse struct {
	Results []Source `json:"results"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// Healthy returns true if the server reports itself healthy.
func (h *HealthStatus) Healthy() bool { return h.Status == "healthy" }
