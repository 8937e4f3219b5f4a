package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/biomed/internal/core"
)

// Local keeps files under a directory and serves them below a URL prefix.
type Local struct {
	root   string
	prefix string
}

// NewLocal creates root if needed.
func NewLocal(root, prefix string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if prefix == "" {
		prefix = core.DefaultMediaPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Local{root: root, prefix: prefix}, nil
}

// Save implements Store.
func (l *Local) Save(_ context.Context, fileName, _ string, r io.Reader) (string, error) {
	key := documentKey(fileName)
	full := filepath.Join(l.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return key, nil
}

// URL implements Store.
func (l *Local) URL(_ context.Context, ref string) (string, error) {
	return core.MediaURL(l.prefix, ref), nil
}

// Prefix is the URL path files are served under.
func (l *Local) Prefix() string { return l.prefix }

// Handler serves stored files. Mount it at Prefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(l.prefix, http.FileServer(http.Dir(l.root)))
}
