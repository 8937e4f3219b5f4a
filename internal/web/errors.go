package web

// errors.go maps service errors to HTTP responses.
//
// The technical error is logged with the request ID; the client gets the
// user message from core.MapError, as JSON for API callers or as an HTML
// fragment for HTMX requests.

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/biomed/internal/core"
	"github.com/JonMunkholm/biomed/internal/logging"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var fe *core.FieldError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, core.ErrCardNotFound),
		errors.Is(err, core.ErrDocumentNotFound),
		errors.Is(err, core.ErrCronogramaNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAccessToken):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrDuplicateCard):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fe), core.IsStructural(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch code := core.MapError(err).Code; {
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case strings.HasPrefix(code, "FILE"), strings.HasPrefix(code, "VAL"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = errorAlert(msg).Render(r.Context(), w)
		return
	}

	body := ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
	// Field and header problems carry their own precise text.
	if status == http.StatusBadRequest {
		body.Error = err.Error()
	}
	writeJSONStatus(w, status, body)
}

// errorAlert renders the HTMX error fragment.
func errorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<div class="alert alert-error" role="alert"><strong>`+templ.EscapeString(msg.Message)+`</strong>`+
				`<p>`+templ.EscapeString(msg.Action)+`</p>`+
				`<small>Code: `+templ.EscapeString(msg.Code)+`</small></div>`)
		return err
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
