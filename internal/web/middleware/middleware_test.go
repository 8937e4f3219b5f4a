package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/biomed/internal/config"
)

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "gamma", http.StatusForbidden},
		{"header key", "X-API-Key", "beta", http.StatusNoContent},
		{"bearer token", "Authorization", "Bearer alpha", http.StatusNoContent},
		{"non-bearer authorization", "Authorization", "Basic alpha", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cards", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		realIP  string
		xff     string
		trusted []string
		want    string
	}{
		{"untrusted peer keeps address", "203.0.113.9:5000", "10.0.0.1", "", []string{"10.0.0.0/8"}, "203.0.113.9:5000"},
		{"trusted peer with X-Real-IP", "10.0.0.2:5000", "198.51.100.7", "", []string{"10.0.0.0/8"}, "198.51.100.7"},
		{"forwarded chain skips trusted hops", "10.0.0.2:5000", "", "198.51.100.7, 10.0.0.3", []string{"10.0.0.0/8"}, "198.51.100.7"},
		{"single trusted address", "127.0.0.1:5000", "", "198.51.100.8", []string{"127.0.0.1"}, "198.51.100.8"},
		{"garbage header ignored", "10.0.0.2:5000", "not-an-ip", "", []string{"10.0.0.0/8"}, "10.0.0.2:5000"},
		{"no trusted proxies", "10.0.0.2:5000", "198.51.100.7", "", nil, "10.0.0.2:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
