package webserver

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/state"
)

const documentsPath = "/documents"

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	s.renderDocuments(w, r, http.StatusOK, nil)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	document, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		redirect(w, r, documentsPath, "", err)
		return
	}
	s.renderDocuments(w, r, http.StatusOK, func(data *PageData) {
		data.Detail = document
	})
}

// renderDocuments refreshes the list and renders the documents page.
func (s *Server) renderDocuments(w http.ResponseWriter, r *http.Request, status int, customize func(*PageData)) {
	s.store.SetTab(state.TabDocuments)
	loadErr := s.store.LoadDocuments(r.Context())

	data := s.pageData(r, s.store.Snapshot())
	if loadErr != nil && data.Error == "" {
		data.Error = errorMessage(loadErr)
	}
	if customize != nil {
		customize(data)
	}
	s.render(w, status, data)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	form := DocumentForm{Title: r.FormValue("title"), Content: r.FormValue("content")}
	document, err := s.store.CreateDocument(r.Context(), form.Title, form.Content)
	if err != nil {
		// Render in place so the inputs are kept.
		status := http.StatusBadGateway
		if errors.Is(err, state.ErrInvalidDocument) {
			status = http.StatusBadRequest
		}
		s.renderDocuments(w, r, status, func(data *PageData) {
			data.Form = form
			data.Error = errorMessage(err)
		})
		return
	}
	redirect(w, r, documentsPath, fmt.Sprintf("Created %s", document.Title), nil)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		redirect(w, r, documentsPath, "", errors.Wrap(err, "parsing upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		redirect(w, r, documentsPath, "", errors.New("choose a file to upload"))
		return
	}
	defer file.Close()

	document, err := s.store.Upload(r.Context(), header.Filename, file)
	if err != nil {
		redirect(w, r, documentsPath, "", err)
		return
	}
	redirect(w, r, documentsPath, fmt.Sprintf("Uploaded %s", document.Title), nil)
}

func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	document, err := s.store.ProcessDocument(r.Context(), id)
	if err != nil {
		redirect(w, r, documentsPath, "", err)
		return
	}
	redirect(w, r, documentsPath, fmt.Sprintf("Processed %s", document.Title), nil)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = s.store.DeleteDocument(r.Context(), id)
	if r.Method == http.MethodDelete {
		if err != nil {
			http.Error(w, errorMessage(err), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, documentsPath, "Document deleted", err)
}
