package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/state"
)

//go:embed templates
var templatesFS embed.FS

const (
	appTitle = "Local Smart Doc"
	// Memory used to parse upload forms; larger files spill to disk.
	maxMultipartMemory = 32 << 20
	readHeaderTimeout  = 10 * time.Second
)

// NewServeCmd creates a new serve command
func NewServeCmd(a *app.App) *cobra.Command {
	var opts struct {
		Port int
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a web interface for your documents and conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := opts.Port
			if port == 0 {
				port = a.Config.Server.Port
			}
			server, err := New(a.State, a.Config.Upload.AllowedExtensions)
			if err != nil {
				return err
			}
			return server.Start(port)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to serve on (defaults to the configured one)")
	return cmd
}

// Server renders the chat and documents pages over a state store.
type Server struct {
	store             *state.Store
	allowedExtensions []string
	tmpl              *template.Template
	markdown          goldmark.Markdown
	logger            *slog.Logger
}

// New parses the templates and returns a server.
func New(store *state.Store, allowedExtensions []string) (*Server, error) {
	s := &Server{
		store:             store,
		allowedExtensions: allowedExtensions,
		logger:            debug.GetLogger(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}

	funcMap := sprig.HtmlFuncMap()
	funcMap["markdown"] = s.renderMarkdown
	funcMap["formatTime"] = formatTime

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
		"templates/*.tmpl",
		"templates/includes/*.tmpl",
		"templates/pages/*.tmpl",
	)
	if err != nil {
		return nil, errors.Wrap(err, "parsing template")
	}
	s.tmpl = tmpl
	return s, nil
}

// Handler returns the routes of the web interface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /chat", s.handleChat)
	mux.HandleFunc("POST /chat/ask", s.handleAsk)
	mux.HandleFunc("POST /chat/new", s.handleNewConversation)
	mux.HandleFunc("GET /documents", s.handleDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleDocument)
	mux.HandleFunc("POST /documents", s.handleCreateDocument)
	mux.HandleFunc("POST /documents/upload", s.handleUpload)
	mux.HandleFunc("POST /documents/{id}/process", s.handleProcessDocument)
	mux.HandleFunc("POST /documents/{id}/delete", s.handleDeleteDocument)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	return mux
}

// Start serves on the given port until the listener fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	fmt.Printf("Server starting on http://localhost%s\n", addr)
	s.logger.Info("serving web interface", "addr", addr)
	return server.ListenAndServe()
}

// PageData is what the templates render.
type PageData struct {
	Title    string
	Tab      string
	Notice   string
	Error    string
	Loading  bool
	Question string

	Current       *client.Conversation
	Conversations []ConversationViewModel
	Messages      []client.Message

	Documents         []client.Document
	Detail            *client.DocumentWithChunks
	Form              DocumentForm
	AllowedExtensions string
}

// ConversationViewModel is a history entry.
type ConversationViewModel struct {
	client.Conversation
	Current bool
}

// DocumentForm holds the manual creation inputs.
type DocumentForm struct {
	Title   string
	Content string
}

func (s *Server) pageData(r *http.Request, snapshot state.Snapshot) *PageData {
	data := &PageData{
		Title:             appTitle,
		Tab:               snapshot.Tab.String(),
		Notice:            r.URL.Query().Get("notice"),
		Error:             r.URL.Query().Get("error"),
		Loading:           snapshot.Loading,
		Current:           snapshot.Current,
		Messages:          snapshot.Messages,
		Documents:         snapshot.Documents,
		AllowedExtensions: strings.Join(s.allowedExtensions, ","),
	}
	for _, conversation := range snapshot.Conversations {
		data.Conversations = append(data.Conversations, ConversationViewModel{
			Conversation: conversation,
			Current:      snapshot.Current != nil && snapshot.Current.ID == conversation.ID,
		})
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, data *PageData) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, "base", data); err != nil {
		s.logger.Error("rendering template", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = b.WriteTo(w)
}

// redirect sends the browser back to path with a notice or an error line.
func redirect(w http.ResponseWriter, r *http.Request, path, notice string, err error) {
	params := url.Values{}
	if err != nil {
		params.Set("error", errorMessage(err))
	} else if notice != "" {
		params.Set("notice", notice)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (%d)", apiErr.Message, apiErr.StatusCode)
	}
	return err.Error()
}

func (s *Server) renderMarkdown(content string) template.HTML {
	var b bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &b); err != nil {
		s.logger.Warn("converting markdown", "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(content) + "</pre>")
	}
	return template.HTML(b.String())
}

func formatTime(t client.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}
