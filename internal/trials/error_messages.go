package trials

// error_messages.go maps import failures to user-facing messages with codes
// for support reference.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Storage unavailable: the database could not be reached or the
//	         existing ids could not be read. Nothing was written.
//	IMP002 - Import failed: a statement in the batch failed. The whole run
//	         was rolled back.
//	IMP003 - Import busy: another run held the slot for too long.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key            ("duplicate key")
//	DB002 - Unique constraint        ("violates unique", "unique constraint")
//	DB004 - Connection refused       ("connection refused")
//	DB005 - Connection reset         ("connection reset")
//	DB006 - Timeout                  ("timeout")
//	DB007 - Deadlock                 ("deadlock")
//	DB008 - Value too long           ("value too long")
//	DB009 - Invalid integer          ("invalid input syntax for type")
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          ("file too large")
//	FILE002 - Invalid CSV             ("invalid csv")
//	FILE003 - Encoding error          ("encoding error")
//	FILE005 - Empty file              ("empty file")
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled        ("context canceled")
//	REQ002 - Request timeout          ("context deadline exceeded")
//
// Driver and file patterns are matched first, case-insensitively, so the
// most specific explanation wins. Sentinel errors are the fallback. ERR000
// means nothing matched; check the logs for the technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is ordered; the first match wins.
var errorPatterns = []errorPattern{
	// Constraint errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A trial with this ID was inserted twice",
			Action:  "Check the export for repeated IDs",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the export for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review the export for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "value too long",
		msg: UserMessage{
			Message: "A value is longer than the column allows",
			Action:  "Shorten the value in the export and run the import again",
			Code:    "DB008",
		},
	},
	{
		pattern: "invalid input syntax for type",
		msg: UserMessage{
			Message: "A value does not match the column type",
			Action:  "Check year and total columns contain numbers only",
			Code:    "DB009",
		},
	},

	// Request lifetime; before "timeout" so deadline errors read naturally
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again, or raise IMPORT_TIMEOUT for large exports",
			Code:    "REQ002",
		},
	},

	// Connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Check the export is the trials data file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 or pass the right encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no data rows",
			Action:  "Export the trials data again",
			Code:    "FILE005",
		},
	},
}

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{
		err: ErrStorageConnection,
		msg: UserMessage{
			Message: "The trials database is unavailable",
			Action:  "Nothing was imported. Please try again in a few moments",
			Code:    "IMP001",
		},
	},
	{
		err: ErrStorageQuery,
		msg: UserMessage{
			Message: "The import failed and was rolled back",
			Action:  "Check the export for bad values and run the import again",
			Code:    "IMP002",
		},
	},
	{
		err: ErrRunInProgress,
		msg: UserMessage{
			Message: "Another import is already running",
			Action:  "Wait for it to finish and try again",
			Code:    "IMP003",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
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
