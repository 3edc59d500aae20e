package core

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MobilityData/gtfs-validator-sub012/internal/feed"
	"github.com/MobilityData/gtfs-validator-sub012/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing feed",
			err:         ErrNoFeed,
			wantCode:    "FEED001",
			wantMessage: "No feed was provided",
		},
		{
			name:        "zip format error",
			err:         fmt.Errorf("open feed: %w", zip.ErrFormat),
			wantCode:    "FEED002",
			wantMessage: "The feed is not a valid zip archive",
		},
		{
			name:        "archive without root files",
			err:         fmt.Errorf("feed.zip: %w", feed.ErrNoInput),
			wantCode:    "FEED003",
			wantMessage: "The archive contains no files at its root",
		},
		{
			name:        "feed too large",
			err:         ErrFeedTooLarge,
			wantCode:    "FEED004",
			wantMessage: "The feed exceeds the size limit",
		},
		{
			name:        "limiter saturated",
			err:         ErrTooManyValidations,
			wantCode:    "RUN001",
			wantMessage: "System is busy validating other feeds",
		},
		{
			name:        "unknown run",
			err:         store.ErrRunNotFound,
			wantCode:    "RUN002",
			wantMessage: "Validation run not found",
		},
		{
			name:        "deadline beats generic timeout",
			err:         fmt.Errorf("validate: %w", context.DeadlineExceeded),
			wantCode:    "RUN005",
			wantMessage: "Validation timed out",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "i/o timeout",
			err:         errors.New("read tcp: i/o timeout"),
			wantCode:    "DB003",
			wantMessage: "Operation timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("UNKNOWN TABLE: bikes.txt"),
			wantCode:    "TBL001",
			wantMessage: "Unknown GTFS table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoFeed)

	expected := "No feed was provided (Code: FEED001). Attach a GTFS zip file to the request"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrInvalidRunID, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("get run: %w", store.ErrRunNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Validation run not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, store.ErrRunNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
