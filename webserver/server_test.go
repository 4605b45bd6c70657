package webserver

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/client/clienttest"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/state"
)

type testServer struct {
	api     *clienttest.Server
	store   *state.Store
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	debug.SetOutput(io.Discard)

	api := clienttest.NewServer()
	t.Cleanup(api.Close)
	store := state.New(api.Client())
	server, err := New(store, []string{".txt", ".md", ".json"})
	require.NoError(t, err)
	return &testServer{api: api, store: store, handler: server.Handler()}
}

func (s *testServer) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func (s *testServer) get(target string) *httptest.ResponseRecorder {
	return s.do(http.MethodGet, target, nil, "")
}

func (s *testServer) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func TestRoot_RedirectsToChat(t *testing.T) {
	s := newTestServer(t)
	response := s.get("/")
	assert.Equal(t, http.StatusSeeOther, response.Code)
	assert.Equal(t, "/chat", response.Header().Get("Location"))
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	response := s.get("/chat")
	require.Equal(t, http.StatusOK, response.Code)
	body := response.Body.String()
	assert.Contains(t, body, "Local Smart Doc")
	assert.Contains(t, body, "No conversations.")

	s.api.AddDocument("Guide", "sdoc answers questions", true)
	response = s.postForm("/chat/ask", url.Values{"question": {"what does sdoc do?"}})
	require.Equal(t, http.StatusSeeOther, response.Code)
	conversations := s.api.Conversations()
	require.Len(t, conversations, 1)
	assert.Equal(t, "/chat?conversation="+strconv.FormatInt(conversations[0].ID, 10), response.Header().Get("Location"))

	body = s.get(response.Header().Get("Location")).Body.String()
	assert.Contains(t, body, "what does sdoc do?")
	assert.Contains(t, body, "Answer to: what does sdoc do?")
	assert.Contains(t, body, "document 1, chunk 0")

	// A second question stays in the conversation.
	s.postForm("/chat/ask", url.Values{"question": {"and then?"}})
	assert.Len(t, s.api.Conversations(), 1)
	assert.Len(t, s.store.Snapshot().Messages, 4)

	s.postForm("/chat/new", nil)
	assert.Nil(t, s.store.Snapshot().Current)
}

func TestChat_AskFailureKeepsQuestion(t *testing.T) {
	s := newTestServer(t)
	s.api.Fail("POST /qa", http.StatusInternalServerError)

	response := s.postForm("/chat/ask", url.Values{"question": {"lost?"}})
	require.Equal(t, http.StatusSeeOther, response.Code)
	location := response.Header().Get("Location")
	assert.Contains(t, location, "question=lost%3F")

	body := s.get(location).Body.String()
	assert.Contains(t, body, "lost?</textarea>")
	assert.Contains(t, body, `class="flash error"`)
}

func TestChat_SelectConversation(t *testing.T) {
	s := newTestServer(t)
	conversation := s.api.AddConversation("", "old question", "old *answer*")

	body := s.get("/chat?conversation=" + strconv.FormatInt(conversation.ID, 10)).Body.String()
	assert.Contains(t, body, "Untitled")
	assert.Contains(t, body, "<em>answer</em>")

	assert.Equal(t, http.StatusBadRequest, s.get("/chat?conversation=abc").Code)
	body = s.get("/chat?conversation=999").Body.String()
	assert.Contains(t, body, "Conversation not found")
}

func TestDocuments(t *testing.T) {
	s := newTestServer(t)

	body := s.get("/documents").Body.String()
	assert.Contains(t, body, "Add Document")
	assert.Contains(t, body, "No documents yet.")
	assert.Equal(t, state.TabDocuments, s.store.Snapshot().Tab)

	response := s.postForm("/documents", url.Values{"title": {"Notes"}, "content": {"Some text"}})
	require.Equal(t, http.StatusSeeOther, response.Code)
	require.Len(t, s.api.Documents(), 1)

	body = s.get("/documents").Body.String()
	assert.Contains(t, body, "Notes")
	assert.Contains(t, body, "⏳ Pending")

	id := strconv.FormatInt(s.api.Documents()[0].ID, 10)
	response = s.postForm("/documents/"+id+"/process", nil)
	require.Equal(t, http.StatusSeeOther, response.Code)
	assert.Contains(t, s.get("/documents").Body.String(), "✓ Processed")

	body = s.get("/documents/" + id).Body.String()
	assert.Contains(t, body, "1 chunks")

	response = s.postForm("/documents/"+id+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, response.Code)
	assert.Empty(t, s.api.Documents())
}

func TestDocuments_CreateInvalidKeepsInputs(t *testing.T) {
	s := newTestServer(t)

	response := s.postForm("/documents", url.Values{"title": {"Draft title"}, "content": {"  "}})
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), `value="Draft title"`)
	assert.Empty(t, s.api.Documents())
}

func TestDocuments_Upload(t *testing.T) {
	upload := func(s *testServer, filename, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		return s.do(http.MethodPost, "/documents/upload", &body, writer.FormDataContentType())
	}

	t.Run("accepted", func(t *testing.T) {
		s := newTestServer(t)
		response := upload(s, "notes.md", "# Notes")
		require.Equal(t, http.StatusSeeOther, response.Code)
		assert.Contains(t, response.Header().Get("Location"), "notice=")
		require.Len(t, s.api.Documents(), 1)
		assert.Equal(t, "# Notes", s.api.Documents()[0].Content)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		s := newTestServer(t)
		response := upload(s, "slides.pdf", "%PDF")
		require.Equal(t, http.StatusSeeOther, response.Code)
		assert.Contains(t, response.Header().Get("Location"), "error=")
		assert.Empty(t, s.api.Documents())
	})
}

func TestDocuments_DeleteMethod(t *testing.T) {
	s := newTestServer(t)
	document := s.api.AddDocument("doc", "content", true)
	id := strconv.FormatInt(document.ID, 10)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/documents/"+id, nil, "").Code)
	assert.Equal(t, http.StatusBadGateway, s.do(http.MethodDelete, "/documents/"+id, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/documents/abc", nil, "").Code)
}
