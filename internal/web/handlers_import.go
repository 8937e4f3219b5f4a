package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/biomed/internal/core"
	"github.com/JonMunkholm/biomed/internal/logging"
)

// handleImport reads an uploaded spreadsheet and creates a card per row.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, r, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.ImportSpreadsheet(ctx, header.Filename, file)
	if err != nil {
		if res != nil {
			// Interrupted mid-batch: the rows already handled are reported.
			logging.FromContext(ctx).Warn("import interrupted",
				"file", header.Filename,
				"created", res.CreatedCount(),
				"error", err,
			)
		}
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(ctx).Info("import completed",
		"file", header.Filename,
		"header_row", res.HeaderRow,
		"created", res.CreatedCount(),
		"skipped", res.SkippedCount(),
		"errors", len(res.Errors),
		"duration_ms", res.Duration.Milliseconds(),
	)
	writeJSONStatus(w, http.StatusCreated, res.Report())
}

// handleExport streams every card as an xlsx attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.ExportFileName))

	if err := s.service.ExportWorkbook(r.Context(), w); err != nil {
		// Headers may be out already; only the log is reliable.
		logging.FromContext(r.Context()).Error("export failed", "error", err)
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, err)
		return
	}
}
