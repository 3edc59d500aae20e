package core

// # Error Codes Reference
//
// This file maps technical errors to user-facing messages carrying a code
// that can be quoted to support.
//
// # Feed Errors (FEED001-FEED099)
//
//	FEED001 - No feed: No feed was provided
//	          Action: Attach a GTFS zip file to the request
//	          Patterns: "no feed provided"
//
//	FEED002 - Not a zip: The feed is not a valid zip archive
//	          Action: Upload the feed as a .zip file
//	          Patterns: "not a valid zip file"
//
//	FEED003 - Empty feed: The archive contains no files at its root
//	          Action: Place the .txt files at the top level of the archive
//	          Patterns: "feed contains no files"
//
//	FEED004 - Feed too large: The feed exceeds the size limit
//	          Action: Remove unused files or split the feed
//	          Patterns: "feed too large"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many validations in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent validations"
//
//	RUN002 - Run not found: No validation run has this id
//	         Action: Check the run id or validate the feed again
//	         Patterns: "validation run not found"
//
//	RUN003 - Invalid run id: The run id is malformed
//	         Action: Use the id returned by the validate endpoint
//	         Patterns: "invalid run id"
//
//	RUN004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	RUN005 - Validation timed out: The run took too long
//	         Action: Try a smaller feed or try again later
//	         Patterns: "context deadline exceeded"
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Unknown table: The table is not part of the GTFS schema
//	         Action: Use a file name listed by /api/tables
//	         Patterns: "unknown table"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Timeout: Operation timed out
//	        Action: Please try again later
//	        Patterns: "timeout"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns precede general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// Errors raised by the service and its HTTP front end.
var (
	ErrNoFeed       = errors.New("no feed provided")
	ErrFeedTooLarge = errors.New("feed too large")
	ErrInvalidRunID = errors.New("invalid run id")
	ErrUnknownTable = errors.New("unknown table")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Feed
	{
		pattern: "no feed provided",
		msg: UserMessage{
			Message: "No feed was provided",
			Action:  "Attach a GTFS zip file to the request",
			Code:    "FEED001",
		},
	},
	{
		pattern: "not a valid zip file",
		msg: UserMessage{
			Message: "The feed is not a valid zip archive",
			Action:  "Upload the feed as a .zip file",
			Code:    "FEED002",
		},
	},
	{
		pattern: "feed contains no files",
		msg: UserMessage{
			Message: "The archive contains no files at its root",
			Action:  "Place the .txt files at the top level of the archive",
			Code:    "FEED003",
		},
	},
	{
		pattern: "feed too large",
		msg: UserMessage{
			Message: "The feed exceeds the size limit",
			Action:  "Remove unused files or split the feed",
			Code:    "FEED004",
		},
	},

	// Run
	{
		pattern: "too many concurrent validations",
		msg: UserMessage{
			Message: "System is busy validating other feeds",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "validation run not found",
		msg: UserMessage{
			Message: "Validation run not found",
			Action:  "Check the run id or validate the feed again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "invalid run id",
		msg: UserMessage{
			Message: "The run id is malformed",
			Action:  "Use the id returned by the validate endpoint",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Validation timed out",
			Action:  "Try a smaller feed or try again later",
			Code:    "RUN005",
		},
	},

	// Table
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown GTFS table",
			Action:  "Use a file name listed by /api/tables",
			Code:    "TBL001",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},
}

// defaultMessage is returned when no pattern matches. Support staff should
// check the logs for the technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first pattern match, or the ERR000 fallback.
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

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
