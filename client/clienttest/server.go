// Package clienttest provides an in-memory document API server for tests.
package clienttest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/malonaz/sdoc/client"
)

// Prefix is the API prefix the server mounts its routes under.
const Prefix = "/api/v1"

// Server is a fake document API backed by memory.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	documents     []client.Document
	chunks        map[int64][]client.DocumentChunk
	conversations []client.Conversation
	messages      map[int64][]client.Message
	// failures maps a route pattern to the status it answers with.
	failures map[string]int
	requests map[string]int
}

// NewServer starts a server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		chunks:   map[int64][]client.DocumentChunk{},
		messages: map[int64][]client.Message{},
		failures: map[string]int{},
		requests: map[string]int{},
	}
	mux := http.NewServeMux()
	s.handle(mux, "GET /health", s.health)
	s.handle(mux, "GET "+Prefix+"/documents", s.listDocuments)
	s.handle(mux, "POST "+Prefix+"/documents", s.createDocument)
	s.handle(mux, "POST "+Prefix+"/documents/upload", s.uploadDocument)
	s.handle(mux, "GET "+Prefix+"/documents/{id}", s.getDocument)
	s.handle(mux, "DELETE "+Prefix+"/documents/{id}", s.deleteDocument)
	s.handle(mux, "POST "+Prefix+"/documents/{id}/process", s.processDocument)
	s.handle(mux, "GET "+Prefix+"/conversations", s.listConversations)
	s.handle(mux, "POST "+Prefix+"/conversations", s.createConversation)
	s.handle(mux, "GET "+Prefix+"/conversations/{id}", s.getConversation)
	s.handle(mux, "POST "+Prefix+"/qa", s.ask)
	s.handle(mux, "GET "+Prefix+"/search", s.search)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the root of the versioned API.
func (s *Server) BaseURL() string { return s.URL + Prefix }

// Client returns a client talking to the server.
func (s *Server) Client(opts ...client.Option) *client.Client {
	opts = append([]client.Option{client.WithHTTPClient(s.Server.Client())}, opts...)
	return client.New(s.BaseURL(), opts...)
}

// Fail makes the route answer with status until cleared with status 0.
// Routes are named like "POST /qa" or "GET /documents".
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Requests returns how many times route was called.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// AddDocument stores a document split into one chunk per paragraph.
func (s *Server) AddDocument(title, content string, processed bool) client.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addDocument(title, content, "", processed)
}

// AddConversation stores a conversation with the given question/answer pairs.
func (s *Server) AddConversation(title string, pairs ...string) client.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation := s.addConversation(title)
	for i := 0; i+1 < len(pairs); i += 2 {
		s.addMessage(conversation.ID, client.RoleUser, pairs[i], nil)
		s.addMessage(conversation.ID, client.RoleAssistant, pairs[i+1], nil)
	}
	return conversation
}

// Documents returns the stored documents.
func (s *Server) Documents() []client.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Document(nil), s.documents...)
}

// Conversations returns the stored conversations, newest first.
func (s *Server) Conversations() []client.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Conversation(nil), s.conversations...)
}

func (s *Server) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	route := method + " " + strings.TrimPrefix(path, Prefix)
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[route]++
		status := s.failures[route]
		s.mu.Unlock()
		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": fmt.Sprintf("%s failed", route)})
			return
		}
		handler(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, client.HealthStatus{Status: "healthy", Service: "clienttest"})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Documents())
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	request := &client.CreateDocumentRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	document := s.addDocument(request.Title, request.Content, "", false)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, document)
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	title := strings.TrimSuffix(header.Filename, "."+extension(header.Filename))
	s.mu.Lock()
	// Uploads are processed synchronously.
	document := s.addDocument(title, string(content), "uploads/"+header.Filename, true)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, document)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.documentIndex(w, r)
	if !ok {
		return
	}
	document := s.documents[index]
	writeJSON(w, http.StatusOK, client.DocumentWithChunks{Document: document, Chunks: s.chunks[document.ID]})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.documentIndex(w, r)
	if !ok {
		return
	}
	delete(s.chunks, s.documents[index].ID)
	s.documents = append(s.documents[:index], s.documents[index+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) processDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.documentIndex(w, r)
	if !ok {
		return
	}
	s.documents[index].IsProcessed = true
	s.documents[index].UpdatedAt = now()
	writeJSON(w, http.StatusOK, s.documents[index])
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Conversations())
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	request := &client.CreateConversationRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	conversation := s.addConversation(request.Title)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, conversation)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	for _, conversation := range s.conversations {
		if conversation.ID == id {
			writeJSON(w, http.StatusOK, client.ConversationWithMessages{
				Conversation: conversation,
				Messages:     append([]client.Message{}, s.messages[id]...),
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Conversation not found"})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	request := &client.QARequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var conversationID int64
	if request.ConversationID != nil {
		conversationID = *request.ConversationID
	} else {
		conversationID = s.addConversation(request.Question).ID
	}
	sources := s.sources(request.Question)
	user := s.addMessage(conversationID, client.RoleUser, request.Question, nil)
	assistant := s.addMessage(conversationID, client.RoleAssistant, "Answer to: "+request.Question, sources)
	writeJSON(w, http.StatusOK, client.QAResponse{
		Answer:         assistant.Content,
		Sources:        sources,
		ConversationID: conversationID,
		MessageID:      assistant.ID,
		UserMessageID:  &user.ID,
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"results": s.sources(r.URL.Query().Get("q"))})
}

// sources returns the chunks sharing a word with query.
func (s *Server) sources(query string) client.Sources {
	var sources client.Sources
	words := strings.Fields(strings.ToLower(query))
	for _, document := range s.documents {
		for _, chunk := range s.chunks[document.ID] {
			content := strings.ToLower(chunk.Content)
			for _, word := range words {
				if strings.Contains(content, word) {
					sources = append(sources, client.Source{
						Content:  chunk.Content,
						Metadata: map[string]any{"doc_id": document.ID, "chunk_index": chunk.ChunkIndex},
					})
					break
				}
			}
		}
	}
	return sources
}

func (s *Server) documentIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return 0, false
	}
	for i, document := range s.documents {
		if document.ID == id {
			return i, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Document not found"})
	return 0, false
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) addDocument(title, content, filePath string, processed bool) client.Document {
	document := client.Document{
		ID:          s.id(),
		Title:       title,
		Content:     content,
		FilePath:    filePath,
		IsProcessed: processed,
		CreatedAt:   now(),
		UpdatedAt:   now(),
	}
	s.documents = append(s.documents, document)
	for i, paragraph := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		s.chunks[document.ID] = append(s.chunks[document.ID], client.DocumentChunk{ID: s.id(), ChunkIndex: i, Content: paragraph})
	}
	return document
}

func (s *Server) addConversation(title string) client.Conversation {
	conversation := client.Conversation{ID: s.id(), Title: title, CreatedAt: now(), UpdatedAt: now()}
	s.conversations = append([]client.Conversation{conversation}, s.conversations...)
	return conversation
}

func (s *Server) addMessage(conversationID int64, role client.Role, content string, sources client.Sources) client.Message {
	message := client.Message{
		ID:             s.id(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Sources:        sources,
		CreatedAt:      now(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], message)
	return message
}

func extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i+1:]
	}
	return ""
}

func now() client.Time { return client.NewTime(time.Now().UTC().Truncate(time.Microsecond)) }

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
