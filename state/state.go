// Package state holds the application state shared by every front end and the
// actions that update it. Network calls are made without holding the lock and
// the last response wins.
package state

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/file"
)

// Tab is the active page of the shell.
type Tab int

const (
	TabChat Tab = iota
	TabDocuments
)

func (t Tab) String() string {
	switch t {
	case TabChat:
		return "chat"
	case TabDocuments:
		return "documents"
	}
	return "unknown"
}

// ParseTab parses a tab name, defaulting to the chat tab.
func ParseTab(name string) Tab {
	if name == TabDocuments.String() {
		return TabDocuments
	}
	return TabChat
}

// API is the subset of the remote API the store drives.
type API interface {
	ListDocuments(ctx context.Context) ([]client.Document, error)
	GetDocument(ctx context.Context, id int64) (*client.DocumentWithChunks, error)
	CreateDocument(ctx context.Context, request *client.CreateDocumentRequest) (*client.Document, error)
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*client.Document, error)
	ProcessDocument(ctx context.Context, id int64) (*client.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListConversations(ctx context.Context) ([]client.Conversation, error)
	CreateConversation(ctx context.Context, request *client.CreateConversationRequest) (*client.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*client.ConversationWithMessages, error)
	Ask(ctx context.Context, request *client.QARequest) (*client.QAResponse, error)
}

// Cache persists snapshots of the state between runs.
type Cache interface {
	ReplaceDocuments(documents []client.Document) error
	ListDocuments() ([]client.Document, error)
	ReplaceConversations(conversations []client.Conversation) error
	PrependConversation(conversation *client.Conversation) error
	ListConversations() ([]client.Conversation, error)
	ReplaceMessages(conversationID int64, messages []client.Message) error
	GetMessages(conversationID int64) ([]client.Message, error)
	DeleteDocument(id int64) error
}

// Snapshot is a copy of the state, safe to read while actions run.
type Snapshot struct {
	Documents     []client.Document
	Conversations []client.Conversation
	// Current is nil until a conversation is selected or created.
	Current  *client.Conversation
	Messages []client.Message
	Loading  bool
	Tab      Tab
}

// Option configures the Store.
type Option func(*Store)

// WithCache writes successful loads through to cache.
func WithCache(cache Cache) Option {
	return func(s *Store) {
		s.cache = cache
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTopK sets how many chunks the server retrieves per question.
func WithTopK(topK int) Option {
	return func(s *Store) {
		s.topK = topK
	}
}

// WithTitleLength sets how many characters of the first question title a new conversation.
func WithTitleLength(titleLength int) Option {
	return func(s *Store) {
		s.titleLength = titleLength
	}
}

// WithUploadLimits restricts uploads to the given extensions and size.
func WithUploadLimits(allowedExtensions []string, maxFileSize int64) Option {
	return func(s *Store) {
		s.extensions = file.NewExtensionSet(allowedExtensions...)
		s.maxFileSize = maxFileSize
	}
}

// Store is the application state store.
type Store struct {
	api         API
	cache       Cache
	logger      *slog.Logger
	topK        int
	titleLength int
	extensions  *file.ExtensionSet
	maxFileSize int64

	mu            sync.Mutex
	documents     []client.Document
	conversations []client.Conversation
	current       *client.Conversation
	messages      []client.Message
	loading       bool
	tab           Tab
	// generation changes whenever the displayed conversation is switched,
	// so late responses can tell they belong to another thread.
	generation uint64
	// selection numbers SelectConversation calls; the latest one wins.
	selection uint64
}

const (
	defaultTopK        = 5
	defaultTitleLength = 50
	defaultMaxFileSize = 50 * 1024 * 1024
)

// New creates a store driving api.
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:         api,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		topK:        defaultTopK,
		titleLength: defaultTitleLength,
		extensions:  file.NewExtensionSet(".txt", ".md", ".json"),
		maxFileSize: defaultMaxFileSize,
		tab:         TabChat,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := Snapshot{
		Documents:     append([]client.Document(nil), s.documents...),
		Conversations: append([]client.Conversation(nil), s.conversations...),
		Messages:      append([]client.Message(nil), s.messages...),
		Loading:       s.loading,
		Tab:           s.tab,
	}
	if s.current != nil {
		current := *s.current
		snapshot.Current = &current
	}
	return snapshot
}

// SetTab switches the active tab without touching any other state.
func (s *Store) SetTab(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
}

// Refresh loads documents and conversations, returning the first error.
func (s *Store) Refresh(ctx context.Context) error {
	documentsErr := s.LoadDocuments(ctx)
	conversationsErr := s.LoadConversations(ctx)
	if documentsErr != nil {
		return documentsErr
	}
	return conversationsErr
}

// Hydrate fills the document and conversation lists from the cache.
// It is a no-op without a cache.
func (s *Store) Hydrate() error {
	if s.cache == nil {
		return nil
	}
	documents, err := s.cache.ListDocuments()
	if err != nil {
		s.logger.Error("hydrating documents", "error", err)
		return err
	}
	conversations, err := s.cache.ListConversations()
	if err != nil {
		s.logger.Error("hydrating conversations", "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = documents
	s.conversations = conversations
	return nil
}

// writeCache runs fn against the cache if there is one, logging failures.
// The cache is best effort and never fails an action.
func (s *Store) writeCache(operation string, fn func(cache Cache) error) {
	if s.cache == nil {
		return
	}
	if err := fn(s.cache); err != nil {
		s.logger.Warn("writing cache", "operation", operation, "error", err)
	}
}
