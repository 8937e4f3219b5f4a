// Package sheet reads spreadsheets into a grid of strings and writes grids
// back out as xlsx workbooks.
//
// Reading accepts Office Open XML workbooks (.xlsx, .xlsm) and CSV. Only the
// first worksheet of a workbook is read. Cells come back as their displayed
// text, so numeric series numbers keep the formatting the operator sees.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrUnsupportedFormat is returned for legacy .xls files and other
	// formats that cannot be parsed.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrNoSheets is returned for workbooks without any worksheet.
	ErrNoSheets = errors.New("workbook has no sheets")
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
	zipMagic   = []byte("PK\x03\x04")
)

// ReadGrid parses r into rows of cells. The file name selects the format;
// files without a known extension are sniffed.
func ReadGrid(fileName string, r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(data)
	case ".csv", ".txt":
		return readCSV(data)
	case ".xls":
		return nil, fmt.Errorf("%w: %s (save it as .xlsx)", ErrUnsupportedFormat, fileName)
	}

	if bytes.HasPrefix(data, zipMagic) {
		return readWorkbook(data)
	}
	return readCSV(data)
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rows, nil
}

// decodeText converts a CSV export to UTF-8. A byte order mark selects
// UTF-8 or UTF-16 and is dropped. Text without a BOM that is not valid
// UTF-8 is read as Windows-1252, the encoding Excel uses for "CSV" saves
// on Spanish-locale Windows.
func decodeText(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM) || bytes.HasPrefix(data, utf8BOM) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return out, err
	}
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	return out, err
}

// WriteXLSX writes rows to w as a single-sheet workbook. The first row is
// treated as the header and rendered bold.
func WriteXLSX(w io.Writer, sheetName string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		if err := sw.SetColWidth(1, len(rows[0]), 24); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		var opts []excelize.RowOpts
		if i == 0 {
			opts = append(opts, excelize.RowOpts{StyleID: bold})
		}
		if err := sw.SetRow(cell, values, opts...); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}
