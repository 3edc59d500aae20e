package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
	"github.com/MobilityData/gtfs-validator-sub012/internal/feed"
	"github.com/MobilityData/gtfs-validator-sub012/internal/logging"
)

// handleValidate validates an uploaded feed and returns its report.
//
// The archive is sent either as the "file" part of a multipart form or as the
// raw request body, in which case ?name= names it. ?country= overrides the
// configured country code. The body is spooled to a temporary file because
// zip archives need random access.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Validation.MaxFeedSize)

	body, name, err := feedBody(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	path, size, err := spool(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer os.Remove(path)
	if size == 0 {
		respondError(w, r, core.ErrNoFeed)
		return
	}

	input, err := feed.NewZipInput(path)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("feed received", "source", name, "bytes", size)
	summary, err := s.service.Validate(r.Context(), core.ValidateRequest{
		Source:      name,
		Input:       input,
		CountryCode: r.URL.Query().Get("country"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// feedBody returns the archive stream of r and its display name.
func feedBody(r *http.Request) (io.Reader, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "feed.zip"
		}
		return r.Body, filepath.Base(name), nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("read multipart form: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", core.ErrNoFeed
		}
		if err != nil {
			return nil, "", tooLarge(err)
		}
		if part.FormName() != "file" {
			continue
		}
		name := part.FileName()
		if name == "" {
			name = "feed.zip"
		}
		return part, filepath.Base(name), nil
	}
}

// spool copies body to a temporary file and returns its path and size.
func spool(body io.Reader) (string, int64, error) {
	f, err := os.CreateTemp("", "gtfs-feed-*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}
	size, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(tooLarge(copyErr), closeErr); err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), size, nil
}

// tooLarge maps the body size limit to ErrFeedTooLarge.
func tooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", core.ErrFeedTooLarge, maxErr.Limit)
	}
	return err
}
