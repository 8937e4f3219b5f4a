package core

// DefaultHeaderSearchRows is how many leading rows are scanned for the header.
const DefaultHeaderSearchRows = 30

// LocateHeader returns the index of the first row, among the first maxRows,
// whose normalized non-empty cells include every normalized required name.
// Extra columns and any column order are accepted.
//
// The located row is therefore already known to carry every required
// column; there is no separate column check afterwards. When no row
// qualifies it returns a *HeaderNotFoundError whose Missing field lists
// what the best candidate row lacked, so a header without "Serie" is
// reported with Missing == ["Serie"].
func LocateHeader(grid [][]string, required []string, maxRows int) (int, error) {
	if maxRows <= 0 {
		maxRows = DefaultHeaderSearchRows
	}
	if len(grid) < maxRows {
		maxRows = len(grid)
	}

	bestMissing := missingColumns(nil, required)
	for i := 0; i < maxRows; i++ {
		missing := missingColumns(MakeColumnIndex(grid[i]), required)
		if len(missing) == 0 {
			return i, nil
		}
		if len(missing) < len(bestMissing) {
			bestMissing = missing
		}
	}

	return -1, &HeaderNotFoundError{
		Required: append([]string(nil), required...),
		Missing:  bestMissing,
	}
}

// missingColumns returns the required names, in their original spelling,
// that idx does not contain.
func missingColumns(idx ColumnIndex, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := idx[NormalizeColumn(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
