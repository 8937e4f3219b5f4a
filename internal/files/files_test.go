package files

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/biomed/internal/config"
)

func TestDocumentKey(t *testing.T) {
	tests := []struct {
		in         string
		wantSuffix string
	}{
		{"manual.pdf", "_manual.pdf"},
		{"Manual de usuario.pdf", "_Manual_de_usuario.pdf"},
		{"../../etc/passwd", "_passwd"},
		{`C:\Users\ops\garantía.docx`, "_garant_a.docx"},
		{"...", "_file"},
	}

	for _, tt := range tests {
		key := documentKey(tt.in)
		if !strings.HasPrefix(key, "documents/") {
			t.Errorf("documentKey(%q) = %q, want documents/ prefix", tt.in, key)
		}
		if !strings.HasSuffix(key, tt.wantSuffix) {
			t.Errorf("documentKey(%q) = %q, want suffix %q", tt.in, key, tt.wantSuffix)
		}
		if strings.Contains(strings.TrimPrefix(key, "documents/"), "/") {
			t.Errorf("documentKey(%q) = %q escapes documents/", tt.in, key)
		}
	}

	if documentKey("a.pdf") == documentKey("a.pdf") {
		t.Error("keys for the same name should differ")
	}
}

func TestLocal_SaveURLAndServe(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/media")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ref, err := l.Save(context.Background(), "manual.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	u, _ := l.URL(context.Background(), ref)
	if u != "/media/"+ref {
		t.Errorf("URL = %q, want %q", u, "/media/"+ref)
	}

	mux := http.NewServeMux()
	mux.Handle(l.Prefix(), l.Handler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + u)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "%PDF-1.4" {
		t.Errorf("GET %s = %d %q", u, resp.StatusCode, body)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	st, err := New(context.Background(), config.StorageConfig{Backend: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New(local): %v", err)
	}
	if _, ok := st.(*Local); !ok {
		t.Errorf("New(local) = %T, want *Local", st)
	}

	if _, err := New(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Error("New(ftp) should fail")
	}
}

func TestS3_PresignedURL(t *testing.T) {
	st, err := NewS3(context.Background(), S3Options{
		Bucket:     "docs",
		Region:     "us-east-1",
		Endpoint:   "http://localhost:9000",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		PresignTTL: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	u, err := st.URL(context.Background(), "documents/abc_manual.pdf")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:9000/docs/documents/abc_manual.pdf?") {
		t.Errorf("URL = %q, want path-style object URL", u)
	}
	if !strings.Contains(u, "X-Amz-Expires=300") {
		t.Errorf("URL = %q, want 300s expiry", u)
	}
}
