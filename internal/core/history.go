package core

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/biomed/internal/logging"
)

// DefaultMediaPrefix is the public path stored files are served under.
const DefaultMediaPrefix = "/media/"

// FileLocator turns a stored file reference into a URL, absolute or
// relative to the server.
type FileLocator interface {
	URL(ctx context.Context, ref string) (string, error)
}

// MediaLocator serves references from a fixed public prefix.
type MediaLocator struct {
	Prefix string
}

// URL implements FileLocator.
func (m MediaLocator) URL(_ context.Context, ref string) (string, error) {
	return MediaURL(m.Prefix, ref), nil
}

// MediaURL places ref under prefix. Absolute http(s) references and refs
// already under prefix are returned unchanged.
func MediaURL(prefix, ref string) string {
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}
	if prefix == "" {
		prefix = DefaultMediaPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if strings.HasPrefix(ref, prefix) {
		return ref
	}
	return prefix + strings.TrimPrefix(ref, "/")
}

// AbsoluteURL resolves u against base (scheme://host). Absolute URLs and
// an empty base leave u unchanged.
func AbsoluteURL(base, u string) string {
	if u == "" || base == "" || isAbsoluteURL(u) {
		return u
	}
	b, err := url.Parse(base)
	if err != nil {
		return u
	}
	ref, err := url.Parse(u)
	if err != nil {
		return u
	}
	return b.ResolveReference(ref).String()
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// HistoryEntry is an event prepared for display.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card_id"`
	EventType    EventType `json:"event_type"`
	Label        string    `json:"event_type_display"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	DocumentFile *string   `json:"document_file"`
}

// History returns a card's events newest first. Document references are
// resolved to URLs made absolute against baseURL. A document_removed event
// without a stored reference falls back to the document with the same
// title, when it still exists.
func (s *Service) History(ctx context.Context, cardID int64, baseURL string) ([]HistoryEntry, error) {
	if _, err := s.store.GetCard(ctx, cardID); err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(ctx, cardID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(events))
	for _, e := range events {
		entry := HistoryEntry{
			ID:          e.ID,
			CardID:      e.CardID,
			EventType:   e.Type,
			Label:       e.Type.Label(),
			Description: e.Description,
			Timestamp:   e.Timestamp,
		}

		ref := e.DocumentFile
		if ref == "" && e.Type == EventDocumentRemoved {
			ref = s.removedDocumentRef(ctx, e)
		}
		if ref != "" {
			if u := s.resolveFile(ctx, ref, baseURL); u != "" {
				entry.DocumentFile = &u
			}
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) removedDocumentRef(ctx context.Context, e Event) string {
	title, ok := strings.CutPrefix(e.Description, removedPrefix)
	if !ok {
		title, ok = strings.CutPrefix(e.Description, strings.TrimSpace(removedPrefix))
	}
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		return ""
	}

	doc, err := s.store.FindDocumentByTitle(ctx, e.CardID, title)
	if err != nil {
		if !errors.Is(err, ErrDocumentNotFound) {
			logging.ForCard(ctx, e.CardID).Warn("document lookup failed", "error", err)
		}
		return ""
	}
	return doc.File
}

func (s *Service) resolveFile(ctx context.Context, ref, baseURL string) string {
	u, err := s.files.URL(ctx, ref)
	if err != nil {
		logging.FromContext(ctx).Warn("resolve document url", "ref", ref, "error", err)
		return ""
	}
	return AbsoluteURL(baseURL, u)
}
