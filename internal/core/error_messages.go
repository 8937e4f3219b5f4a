package core

// Error codes shown to operators, for support reference.
//
//	DB001  Duplicate card (unique constraint)
//	DB002  Referenced record does not exist (foreign key)
//	DB003  Database unreachable (connection refused / reset)
//	DB004  Database timeout or deadlock
//	VAL001 Required field empty
//	VAL002 Invalid risk classification
//	VAL003 Invalid intervention action type
//	VAL004 Invalid date
//	IMP001 Header row not found
//	IMP003 Import system busy
//	FILE001 File too large
//	FILE002 Unsupported or corrupt spreadsheet
//	FILE003 No file provided
//	FILE004 Empty file
//	CARD001 Card not found
//	CARD002 Document not found
//	CARD003 Schedule item not found
//	CARD004 Invalid access token
//	REQ001 Request cancelled
//	REQ002 Request timed out
//	RATE001 Too many requests
//	ERR000 Anything else; check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring; the first pattern wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/biomed/internal/sheet"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrDuplicateCard, UserMessage{"A card with the same name, model, and series already exists", "Edit the existing card instead", "DB001"}},
	{ErrRequiredField, UserMessage{"Required field is empty", "Fill in every required field", "VAL001"}},
	{ErrInvalidRisk, UserMessage{"Invalid risk classification", "Use one of: I, IIA, IIB, III", "VAL002"}},
	{ErrInvalidActionType, UserMessage{"Invalid intervention type", "Use one of: correctiva, preventiva, calibracion", "VAL003"}},
	{ErrInvalidDate, UserMessage{"Invalid date", "Use the YYYY-MM-DD format", "VAL004"}},
	{ErrTooManyImports, UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP003"}},
	{sheet.ErrUnsupportedFormat, UserMessage{"The file is not a readable spreadsheet", "Upload an .xlsx or .csv file", "FILE002"}},
	{sheet.ErrNoSheets, UserMessage{"The workbook has no sheets", "Upload a workbook with the card list on its first sheet", "FILE002"}},
	{ErrNoFile, UserMessage{"No file uploaded", "Select a spreadsheet to import", "FILE003"}},
	{ErrEmptyFile, UserMessage{"The uploaded file is empty", "Upload a spreadsheet with a header row and data rows", "FILE004"}},
	{ErrCardNotFound, UserMessage{"Card not found", "Verify the card still exists", "CARD001"}},
	{ErrDocumentNotFound, UserMessage{"Document not found", "Refresh the document list", "CARD002"}},
	{ErrCronogramaNotFound, UserMessage{"Schedule item not found", "Refresh the maintenance view", "CARD003"}},
	{ErrInvalidAccessToken, UserMessage{"Unauthorized", "Scan the card label again", "CARD004"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text to user messages. Order matters:
// specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A card with the same name, model, and series already exists", "Edit the existing card instead", "DB001"}},
	{"violates unique", UserMessage{"A card with the same name, model, and series already exists", "Edit the existing card instead", "DB001"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Verify the card still exists", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
	{"could not find header row", UserMessage{"Header row not found", "Make sure the first rows contain the required column names", "IMP001"}},
	{"request body too large", UserMessage{"File exceeds the maximum size", "Split the spreadsheet into smaller files", "FILE001"}},
	{"file too large", UserMessage{"File exceeds the maximum size", "Split the spreadsheet into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"The file is not a valid CSV", "Save the file as comma-separated UTF-8", "FILE002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ002"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB004"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is the ERR000 fallback.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Known
// sentinel errors win over text patterns; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	var hnf *HeaderNotFoundError
	if errors.As(err, &hnf) {
		if len(hnf.Missing) > 0 && len(hnf.Missing) < len(hnf.Required) {
			return UserMessage{"Required columns are missing", "Add: " + strings.Join(hnf.Missing, ", "), "IMP001"}
		}
		return UserMessage{"Header row not found", "Make sure the first rows contain: " + strings.Join(hnf.Required, ", "), "IMP001"}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err; it returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
