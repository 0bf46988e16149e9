package core

// error_messages.go maps import errors to user-facing messages with a code
// that support can look up.
//
//	DB001  duplicate key / unique value already exists
//	DB003  foreign key: referenced record does not exist
//	DB004  other constraint (CHECK, NOT NULL)
//	DB005  database unreachable
//	VAL001 row could not be converted (bad integer, missing column)
//	FILE001 file too large
//	FILE002 invalid CSV
//	FILE004 file not found
//	TBL001 unknown table
//	UPL002 too many imports in progress
//	UPL003 server shutting down
//	UPL005 import timed out
//	ERR000 anything else (see server logs)

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicate = UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Remove duplicate ids from the file or reset the database",
		Code:    "DB001",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import parent records first",
		Code:    "DB003",
	}
	msgConstraint = UserMessage{
		Message: "A value was rejected by a table constraint",
		Action:  "Check the row reported in the error",
		Code:    "DB004",
	}
	msgConnection = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB005",
	}
	msgInvalidRow = UserMessage{
		Message: "A row could not be read",
		Action:  "Check the column count and that ids are whole numbers",
		Code:    "VAL001",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with consistent quoting",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "The CSV file could not be found",
		Action:  "Check the file path",
		Code:    "FILE004",
	}
	msgUnknownTable = UserMessage{
		Message: "The specified table does not accept imports",
		Action:  "Verify the table name is correct",
		Code:    "TBL001",
	}
	msgBusy = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgClosed = UserMessage{
		Message: "The server is shutting down",
		Action:  "Retry the import once the server is back",
		Code:    "UPL003",
	}
	msgTimeout = UserMessage{
		Message: "Import timed out",
		Action:  "Try a smaller file or raise IMPORT_TIMEOUT",
		Code:    "UPL005",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// connectionPatterns identify driver errors that mean the database is unreachable.
var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"unable to open database",
	"database is locked",
}

// MapError converts a technical error into a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var parseErr *csv.ParseError
	switch {
	case errors.Is(err, ErrConstraintViolation):
		return constraintMessage(err)
	case errors.Is(err, ErrInvalidRow):
		return msgInvalidRow
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge
	case errors.Is(err, fs.ErrNotExist):
		return msgNoFile
	case errors.Is(err, ErrUnknownTable):
		return msgUnknownTable
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, ErrImportsClosed):
		return msgClosed
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.As(err, &parseErr):
		return msgInvalidCSV
	}

	lower := strings.ToLower(err.Error())
	for _, p := range connectionPatterns {
		if strings.Contains(lower, p) {
			return msgConnection
		}
	}

	return msgUnknown
}

// constraintMessage picks the message for a constraint failure from the
// driver text, which names the kind of constraint on both drivers.
func constraintMessage(err error) UserMessage {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "foreign key"):
		return msgForeignKey
	case strings.Contains(lower, "unique"), strings.Contains(lower, "duplicate key"):
		return msgDuplicate
	default:
		return msgConstraint
	}
}

// FormatError renders err for terminal output, with its support code.
func FormatError(err error) string {
	msg := MapError(err)
	if msg.Code == "" {
		return ""
	}
	return msg.Message + " (" + msg.Code + "): " + err.Error()
}
