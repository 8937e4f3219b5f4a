package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/biomed/internal/logging"
	"github.com/JonMunkholm/biomed/internal/sheet"
)

// SkippedRow is a data row not imported because the card already exists.
type SkippedRow struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RowError is a data row that failed for any reason other than a duplicate.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
}

// ImportResult summarizes one import. Row numbers are 1-based spreadsheet
// rows.
type ImportResult struct {
	FileName   string
	HeaderRow  int
	CreatedIDs []int64
	Skipped    []SkippedRow
	Errors     []RowError
	Duration   time.Duration
}

// CreatedCount returns the number of cards created.
func (r *ImportResult) CreatedCount() int { return len(r.CreatedIDs) }

// SkippedCount returns the number of duplicate rows.
func (r *ImportResult) SkippedCount() int { return len(r.Skipped) }

// ImportReport is the wire form of an ImportResult, shared by the HTTP
// API and the CLI.
type ImportReport struct {
	FileName     string       `json:"file_name,omitempty"`
	HeaderRow    int          `json:"header_row"`
	CreatedCount int          `json:"created_cards_count"`
	CreatedIDs   []int64      `json:"created_card_ids"`
	SkippedCount int          `json:"skipped_cards_count"`
	Skipped      []SkippedRow `json:"skipped_cards"`
	Errors       []RowError   `json:"errors"`
	DurationMS   int64        `json:"duration_ms"`
}

// Report converts r to its wire form. Lists are never nil so they encode
// as [] rather than null.
func (r *ImportResult) Report() ImportReport {
	out := ImportReport{
		FileName:     r.FileName,
		HeaderRow:    r.HeaderRow,
		CreatedCount: r.CreatedCount(),
		CreatedIDs:   r.CreatedIDs,
		SkippedCount: r.SkippedCount(),
		Skipped:      r.Skipped,
		Errors:       r.Errors,
		DurationMS:   r.Duration.Milliseconds(),
	}
	if out.CreatedIDs == nil {
		out.CreatedIDs = []int64{}
	}
	if out.Skipped == nil {
		out.Skipped = []SkippedRow{}
	}
	if out.Errors == nil {
		out.Errors = []RowError{}
	}
	return out
}

// ImportSpreadsheet parses an uploaded workbook (or CSV) and imports it.
// It waits for an import slot and runs under the configured timeout.
func (s *Service) ImportSpreadsheet(ctx context.Context, fileName string, r io.Reader) (*ImportResult, error) {
	if r == nil {
		return nil, ErrNoFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	grid, err := sheet.ReadGrid(fileName, r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}

	result, err := s.ImportGrid(ctx, grid)
	if result != nil {
		result.FileName = fileName
	}
	return result, err
}

// ImportGrid reconciles spreadsheet rows against existing cards.
//
// Structural problems (empty grid, no header, missing columns) are returned
// as errors before any card is written. After that every data row yields
// exactly one outcome: created, skipped as a duplicate, or a row error.
// If ctx ends mid-batch the partial result is returned with the context
// error; cards already created stay created.
func (s *Service) ImportGrid(ctx context.Context, grid [][]string) (*ImportResult, error) {
	start := time.Now()
	logger := logging.ForImport(ctx)

	if len(grid) == 0 {
		return nil, ErrEmptyFile
	}

	headerIdx, err := LocateHeader(grid, RequiredColumns, s.headerRows)
	if err != nil {
		logger.Warn("import rejected", "error", err)
		return nil, err
	}

	cols := MakeColumnIndex(grid[headerIdx])

	result := &ImportResult{HeaderRow: headerIdx + 1}
	logger.Info("import started", "header_row", result.HeaderRow, "rows", len(grid)-headerIdx-1)

	for i, row := range grid[headerIdx+1:] {
		rowNum := headerIdx + i + 2

		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("import interrupted at row %d: %w", rowNum, err)
		}

		if isEmptyRow(row) {
			continue
		}

		in := rowInput(cols, row)
		card, err := s.createImportedCard(ctx, in)
		switch {
		case errors.Is(err, ErrDuplicateCard):
			result.Skipped = append(result.Skipped, SkippedRow{
				Row:    rowNum,
				Name:   in.Name,
				Reason: DuplicateReason,
			})
		case err != nil:
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: err.Error()})
		default:
			result.CreatedIDs = append(result.CreatedIDs, card.ID)
		}
	}

	result.Duration = time.Since(start)
	logger.Info("import completed",
		"created", result.CreatedCount(),
		"skipped", result.SkippedCount(),
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

func rowInput(cols ColumnIndex, row []string) CardInput {
	return CardInput{
		Name:     cols.Get(row, ColName),
		Brand:    cols.Get(row, ColBrand),
		Model:    cols.Get(row, ColModel),
		Series:   cols.Get(row, ColSeries),
		Risk:     RiskClass(cols.Get(row, ColRisk)),
		Location: cols.Get(row, ColLocation),
	}
}

// createImportedCard saves one imported row. Imported cards always start
// Activo regardless of any status column in the file.
func (s *Service) createImportedCard(ctx context.Context, in CardInput) (Card, error) {
	in, err := in.normalize()
	if err != nil {
		return Card{}, err
	}
	in.Status = StatusActive

	card, err := s.store.CreateCard(ctx, newCard(in))
	if err != nil {
		return Card{}, err
	}

	s.recorder.Record(ctx, card.ID, EventCardCreated,
		"Tarjeta creada desde importación Excel: "+card.Name, "")
	return card, nil
}
