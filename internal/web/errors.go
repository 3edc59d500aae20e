package web

// errors.go turns service errors into JSON responses. The technical error is
// logged with the request id; the client gets the mapped user message and its
// support code.

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"

	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
	"github.com/MobilityData/gtfs-validator-sub012/internal/feed"
	"github.com/MobilityData/gtfs-validator-sub012/internal/logging"
	"github.com/MobilityData/gtfs-validator-sub012/internal/store"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoFeed),
		errors.Is(err, core.ErrInvalidRunID),
		errors.Is(err, zip.ErrFormat),
		errors.Is(err, feed.ErrNoInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFeedTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrRunNotFound),
		errors.Is(err, core.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyValidations):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
