package webserver

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/malonaz/sdoc/state"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.store.SetTab(state.TabChat)

	errorLine := r.URL.Query().Get("error")
	if err := s.store.LoadConversations(ctx); err != nil && errorLine == "" {
		errorLine = errorMessage(err)
	}

	if raw := r.URL.Query().Get("conversation"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid conversation id", http.StatusBadRequest)
			return
		}
		if current := s.store.Snapshot().Current; current == nil || current.ID != id {
			if err := s.store.SelectConversation(ctx, id); err != nil {
				errorLine = errorMessage(err)
			}
		}
	}

	data := s.pageData(r, s.store.Snapshot())
	data.Error = errorLine
	data.Question = r.URL.Query().Get("question")
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	question := r.FormValue("question")
	response, err := s.store.Ask(r.Context(), question)
	if err != nil {
		// Give the question back so it can be sent again.
		params := url.Values{}
		params.Set("question", question)
		params.Set("error", errorMessage(err))
		http.Redirect(w, r, "/chat?"+params.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/chat?conversation="+strconv.FormatInt(response.ConversationID, 10), http.StatusSeeOther)
}

func (s *Server) handleNewConversation(w http.ResponseWriter, r *http.Request) {
	s.store.NewConversation()
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}
