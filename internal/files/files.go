// Package files stores uploaded card documents on local disk or in S3.
package files

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/JonMunkholm/biomed/internal/config"
)

// Store persists uploaded files and resolves their public URLs.
// It satisfies core.FileLocator.
type Store interface {
	// Save writes r and returns the reference to keep in the database.
	Save(ctx context.Context, fileName, contentType string, r io.Reader) (string, error)
	URL(ctx context.Context, ref string) (string, error)
}

// documentKey builds a collision-free key under documents/ that keeps a
// readable version of the original name.
func documentKey(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r > unicode.MaxASCII:
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	clean = strings.Trim(clean, "._")
	if clean == "" {
		clean = "file"
	}
	return "documents/" + uuid.NewString() + "_" + clean
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.MediaURL)
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			PresignTTL: cfg.S3PresignTTL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
