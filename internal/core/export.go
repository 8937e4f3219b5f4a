package core

import (
	"context"
	"io"

	"github.com/JonMunkholm/biomed/internal/sheet"
)

const (
	ExportSheetName = "Cards"
	ExportFileName  = "cards_export.xlsx"
)

// ProjectCards renders cards as a grid: the import header row followed by
// one row per card, in the given order. The output imports cleanly.
func ProjectCards(cards []Card) [][]string {
	rows := make([][]string, 0, len(cards)+1)
	rows = append(rows, append([]string(nil), RequiredColumns...))
	for _, c := range cards {
		rows = append(rows, []string{
			c.Name,
			c.Brand,
			c.Model,
			c.Series,
			string(c.Risk),
			c.Location,
		})
	}
	return rows
}

// ExportRows projects every card, soft-deleted ones included.
func (s *Service) ExportRows(ctx context.Context) ([][]string, error) {
	cards, err := s.store.ListCards(ctx, CardFilter{State: AllCards})
	if err != nil {
		return nil, err
	}
	return ProjectCards(cards), nil
}

// ExportWorkbook writes every card to w as an xlsx workbook.
func (s *Service) ExportWorkbook(ctx context.Context, w io.Writer) error {
	rows, err := s.ExportRows(ctx)
	if err != nil {
		return err
	}
	return sheet.WriteXLSX(w, ExportSheetName, rows)
}
