package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Import column names, in the order they appear in exports.
const (
	ColName     = "Equipo biomedico"
	ColBrand    = "Marca"
	ColModel    = "Modelo"
	ColSeries   = "Serie"
	ColRisk     = "Clasificacion por riesgo"
	ColLocation = "Ubicacion"
)

// RequiredColumns are the columns every import must carry.
var RequiredColumns = []string{ColName, ColBrand, ColModel, ColSeries, ColRisk, ColLocation}

// asciiOnly drops everything outside printable ASCII, which after NFD
// decomposition removes combining accents and leaves the base letters.
var asciiOnly = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII || !unicode.IsPrint(r)
}))

// NormalizeColumn maps a header or cell to its comparison form:
// NFD-decomposed, diacritics and non-ASCII removed, lower-cased, trimmed.
// "  Ubicación " and "UBICACION" both normalize to "ubicacion".
func NormalizeColumn(s string) string {
	t := transform.Chain(norm.NFD, asciiOnly)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// ColumnIndex maps normalized column names to their position in a row.
type ColumnIndex map[string]int

// MakeColumnIndex builds a ColumnIndex for a header row. When a name
// repeats, the leftmost occurrence wins.
func MakeColumnIndex(header []string) ColumnIndex {
	idx := make(ColumnIndex, len(header))
	for i, h := range header {
		key := NormalizeColumn(cleanHeader(h))
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Get returns the cleaned cell for column name, or "" when the column is
// absent or the row is short.
func (idx ColumnIndex) Get(row []string, name string) string {
	pos, ok := idx[NormalizeColumn(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// CleanCell trims a data cell and unwraps the complete Excel text-formula
// form ="..." that some exporters use to keep leading zeros. Quotes and
// a bare leading "=" are part of the value and are kept.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// cleanHeader is CleanCell for header cells, which may also carry a bare
// formula prefix or surrounding quotes.
func cleanHeader(s string) string {
	s = CleanCell(s)
	s = strings.TrimPrefix(s, "=")
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
