package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/biomed/internal/core"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// dateLayout is the calendar date format accepted by schedule and
// intervention endpoints.
const dateLayout = "2006-01-02"

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are ignored
// so clients can send back a full card object on update.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, &core.FieldError{Field: field, Value: s, Err: core.ErrInvalidDate}
}

// baseURL returns scheme://host for the request, honoring
// X-Forwarded-Proto only behind a trusted proxy.
func (s *Server) baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if len(s.cfg.Security.TrustedProxies) > 0 {
		if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{
		"status":  "ok",
		"imports": s.service.ImportLimiterStatus(),
	})
}

// badRequest reports a malformed request.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, http.StatusBadRequest)
}
