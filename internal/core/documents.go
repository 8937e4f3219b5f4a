package core

import (
	"context"
	"strings"
)

// ListDocuments returns a card's documents that have not been removed.
func (s *Service) ListDocuments(ctx context.Context, cardID int64) ([]Document, error) {
	if _, err := s.store.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, cardID, false)
}

// AddDocument attaches an already stored file to a card.
func (s *Service) AddDocument(ctx context.Context, cardID int64, title, fileRef string) (Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, &FieldError{Field: "title", Err: ErrRequiredField}
	}
	if fileRef == "" {
		return Document{}, ErrNoFile
	}
	if _, err := s.store.GetCard(ctx, cardID); err != nil {
		return Document{}, err
	}

	doc, err := s.store.CreateDocument(ctx, Document{CardID: cardID, Title: title, File: fileRef})
	if err != nil {
		return Document{}, err
	}

	s.recorder.Record(ctx, cardID, EventDocumentAdded, "Documento agregado: "+doc.Title, doc.File)
	return doc, nil
}

// RemoveDocument soft-deletes a document. The event keeps the file
// reference so history can still link to it.
func (s *Service) RemoveDocument(ctx context.Context, id int64) (Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.IsDeleted {
		return doc, nil
	}

	if err := s.store.SetDocumentDeleted(ctx, id, true); err != nil {
		return Document{}, err
	}
	doc.IsDeleted = true

	s.recorder.Record(ctx, doc.CardID, EventDocumentRemoved, removedPrefix+doc.Title, doc.File)
	return doc, nil
}

const removedPrefix = "Documento eliminado: "
