package state

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

// fakeAPI is an in-memory implementation of the remote API.
type fakeAPI struct {
	mu            sync.Mutex
	nextID        int64
	documents     []client.Document
	conversations []client.Conversation
	messages      map[int64][]client.Message
	// failures makes the named operation fail.
	failures map[string]error
	// sendUserMessageID includes user_message_id in QA responses.
	sendUserMessageID bool
	// beforeAnswer runs while a question is in flight.
	beforeAnswer func()
	calls        map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: map[int64][]client.Message{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeAPI) call(operation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[operation]++
	return f.failures[operation]
}

func (f *fakeAPI) count(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[operation]
}

func (f *fakeAPI) fail(operation string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[operation] = &client.APIError{StatusCode: http.StatusInternalServerError, Message: operation + " failed", Endpoint: operation}
}

func (f *fakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) ListDocuments(ctx context.Context) ([]client.Document, error) {
	if err := f.call("ListDocuments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Document(nil), f.documents...), nil
}

func (f *fakeAPI) GetDocument(ctx context.Context, id int64) (*client.DocumentWithChunks, error) {
	if err := f.call("GetDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, document := range f.documents {
		if document.ID == id {
			return &client.DocumentWithChunks{Document: document}, nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Document not found"}
}

func (f *fakeAPI) CreateDocument(ctx context.Context, request *client.CreateDocumentRequest) (*client.Document, error) {
	if err := f.call("CreateDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	document := client.Document{ID: f.id(), Title: request.Title, Content: request.Content}
	f.documents = append(f.documents, document)
	return &document, nil
}

func (f *fakeAPI) UploadDocument(ctx context.Context, filename string, content io.Reader) (*client.Document, error) {
	if err := f.call("UploadDocument"); err != nil {
		return nil, err
	}
	bytes, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	document := client.Document{ID: f.id(), Title: filename, Content: string(bytes), FilePath: "/tmp/" + filename}
	f.documents = append(f.documents, document)
	return &document, nil
}

func (f *fakeAPI) ProcessDocument(ctx context.Context, id int64) (*client.Document, error) {
	if err := f.call("ProcessDocument"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.documents {
		if f.documents[i].ID == id {
			f.documents[i].IsProcessed = true
			document := f.documents[i]
			return &document, nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Document not found"}
}

func (f *fakeAPI) DeleteDocument(ctx context.Context, id int64) error {
	if err := f.call("DeleteDocument"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.documents {
		if f.documents[i].ID == id {
			f.documents = append(f.documents[:i], f.documents[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: http.StatusNotFound, Message: "Document not found"}
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]client.Conversation, error) {
	if err := f.call("ListConversations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]client.Conversation(nil), f.conversations...), nil
}

func (f *fakeAPI) CreateConversation(ctx context.Context, request *client.CreateConversationRequest) (*client.Conversation, error) {
	if err := f.call("CreateConversation"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation := client.Conversation{ID: f.id(), Title: request.Title}
	f.conversations = append([]client.Conversation{conversation}, f.conversations...)
	return &conversation, nil
}

func (f *fakeAPI) GetConversation(ctx context.Context, id int64) (*client.ConversationWithMessages, error) {
	if err := f.call("GetConversation"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conversation := range f.conversations {
		if conversation.ID == id {
			return &client.ConversationWithMessages{
				Conversation: conversation,
				Messages:     append([]client.Message(nil), f.messages[id]...),
			}, nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Conversation not found"}
}

func (f *fakeAPI) Ask(ctx context.Context, request *client.QARequest) (*client.QAResponse, error) {
	if err := f.call("Ask"); err != nil {
		return nil, err
	}
	if f.beforeAnswer != nil {
		f.beforeAnswer()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.ConversationID == nil {
		return nil, errors.New("fake api requires a conversation id")
	}
	conversationID := *request.ConversationID
	user := client.Message{ID: f.id(), ConversationID: conversationID, Role: client.RoleUser, Content: request.Question}
	assistant := client.Message{ID: f.id(), ConversationID: conversationID, Role: client.RoleAssistant, Content: "answer to " + request.Question}
	f.messages[conversationID] = append(f.messages[conversationID], user, assistant)
	response := &client.QAResponse{
		Answer:         assistant.Content,
		Sources:        client.Sources{{Content: "excerpt", Metadata: map[string]any{"doc_id": 1}}},
		ConversationID: conversationID,
		MessageID:      assistant.ID,
	}
	if f.sendUserMessageID {
		response.UserMessageID = &user.ID
	}
	return response, nil
}
