package web

import (
	"net/http"

	"github.com/JonMunkholm/biomed/internal/core"
)

type cronogramaRequest struct {
	CardID    int64  `json:"card_id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type cronogramaUpdateRequest struct {
	Date      *string `json:"date"`
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type interventionRequest struct {
	CardID      int64  `json:"card_id"`
	ActionType  string `json:"action_type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Responsible string `json:"responsible"`
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	cardID, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	m, err := s.service.Maintenance(r.Context(), cardID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, m)
}

func (s *Server) handleListCronogramas(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListCronogramas(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, items)
}

func (s *Server) handleCreateCronograma(w http.ResponseWriter, r *http.Request) {
	var req cronogramaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.service.CreateCronograma(WithRequestMetadata(r.Context(), r), core.Cronograma{
		CardID:    req.CardID,
		Date:      date,
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCronograma(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var req cronogramaUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	u := core.CronogramaUpdate{Title: req.Title, Completed: req.Completed}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		u.Date = &date
	}

	c, err := s.service.UpdateCronograma(WithRequestMetadata(r.Context(), r), id, u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleCreateIntervention(w http.ResponseWriter, r *http.Request) {
	var req interventionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	i, err := s.service.CreateIntervention(WithRequestMetadata(r.Context(), r), core.Intervention{
		CardID:      req.CardID,
		ActionType:  core.ActionType(req.ActionType),
		Date:        date,
		Description: req.Description,
		Responsible: req.Responsible,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, i)
}
