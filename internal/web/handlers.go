package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleListRuns returns recent runs, newest first. ?limit= bounds the list.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid limit",
				Message: "The limit must be a non-negative integer",
				Code:    "REQ001",
			})
			return
		}
		limit = n
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.RunInfo{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, core.ErrInvalidRunID)
		return
	}
	summary, err := s.service.Run(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Tables())
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Table(chi.URLParam(r, "filename"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListValidators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Validators())
}
