package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/biomed/internal/core"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.service.ListCards(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, cards)
}

func (s *Server) handleListDeletedCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.service.ListDeletedCards(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, cards)
}

func (s *Server) handleSearchCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.service.SearchCards(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	card, err := s.service.GetCard(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, card)
}

// handlePublicCard serves the read-only card view reached from the QR
// label. The access token must match the card's.
func (s *Server) handlePublicCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))

	card, err := s.service.CardByAccessToken(r.Context(), id, token)
	if err != nil {
		// Unknown IDs look the same as bad tokens to anonymous callers.
		if errors.Is(err, core.ErrCardNotFound) {
			err = core.ErrInvalidAccessToken
		}
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, card)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in core.CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	card, err := s.service.CreateCard(ctx, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var in core.CardInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	card, err := s.service.UpdateCard(ctx, id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if err := s.service.DeleteCard(WithRequestMetadata(r.Context(), r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSoftDeleteCard(w http.ResponseWriter, r *http.Request) {
	s.cardAction(w, r, s.service.SoftDeleteCard)
}

func (s *Server) handleRestoreCard(w http.ResponseWriter, r *http.Request) {
	s.cardAction(w, r, s.service.RestoreCard)
}

func (s *Server) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	s.cardAction(w, r, s.service.ToggleStatus)
}

// cardAction runs a single-card state change and writes the updated card.
func (s *Server) cardAction(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (core.Card, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	card, err := fn(WithRequestMetadata(r.Context(), r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, card)
}
