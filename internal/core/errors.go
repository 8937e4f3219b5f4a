package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCardNotFound       = errors.New("card not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrCronogramaNotFound = errors.New("cronograma not found")
	ErrInvalidAccessToken = errors.New("invalid access token")

	// ErrDuplicateCard is returned by a Store when the (name, model, series)
	// uniqueness constraint rejects a card.
	ErrDuplicateCard = errors.New("duplicate card")

	ErrRequiredField     = errors.New("empty required field")
	ErrInvalidRisk       = errors.New("invalid risk classification")
	ErrInvalidActionType = errors.New("invalid action type")
	ErrInvalidDate       = errors.New("invalid date")

	ErrEmptyFile = errors.New("empty file")
	ErrNoFile    = errors.New("no file provided")
)

// DuplicateReason is the skip reason reported for cards that already exist.
const DuplicateReason = "Duplicate card (same name, model, and series already exists)"

// FieldError describes a single invalid field value.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v %q", e.Err, e.Field)
	}
	return fmt.Sprintf("%v for %q: %q", e.Err, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

// HeaderNotFoundError is returned when no row within the search window
// contains every required column.
type HeaderNotFoundError struct {
	// Required is the full list of required column names, as configured.
	Required []string
	// Missing holds the required names absent from the closest candidate row.
	Missing []string
}

func (e *HeaderNotFoundError) Error() string {
	msg := "Could not find header row containing required columns in the Excel file. " +
		"Please ensure the header row has the columns: " + strings.Join(e.Required, ", ")
	if len(e.Missing) > 0 && len(e.Missing) < len(e.Required) {
		msg += ". Missing required columns: " + strings.Join(e.Missing, ", ")
	}
	return msg
}

// IsStructural reports whether err rejects an import as a whole, as opposed
// to a failure of one row.
func IsStructural(err error) bool {
	var hnf *HeaderNotFoundError
	return errors.As(err, &hnf) ||
		errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrNoFile)
}
