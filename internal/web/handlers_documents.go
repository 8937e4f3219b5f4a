package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/biomed/internal/core"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	docs, err := s.service.ListDocuments(r.Context(), cardID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, docs)
}

// handleAddDocument stores the uploaded file, then attaches it to the card.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if s.docs == nil {
		s.respondErrorStatus(w, r, errors.New("document storage is not configured"), http.StatusServiceUnavailable)
		return
	}

	maxSize := s.cfg.Storage.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, r, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	// Fail before writing the file when the card is gone.
	if _, err := s.service.GetCard(r.Context(), cardID); err != nil {
		s.respondError(w, r, err)
		return
	}

	ref, err := s.docs.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	doc, err := s.service.AddDocument(ctx, cardID, r.FormValue("title"), ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, doc)
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if _, err := s.service.RemoveDocument(WithRequestMetadata(r.Context(), r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	entries, err := s.service.History(r.Context(), cardID, s.baseURL(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, entries)
}
