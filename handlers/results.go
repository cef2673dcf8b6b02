// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ranked-pick/cliparse"
	"github.com/danielhkuo/ranked-pick/middleware"
	"github.com/danielhkuo/ranked-pick/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// pollFromSlug writes the error response itself when the poll is missing
func (h *ResultsHandler) pollFromSlug(w http.ResponseWriter, r *http.Request) (models.Poll, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Poll{}, false
	}

	poll, err := getPollBySlug(h.db, shareSlug)
	if err == errPollNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return models.Poll{}, false
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Poll{}, false
	}

	return poll, true
}

// GetPoll handles GET /polls/:slug
// Returns poll details and candidates, but NOT results (results are sealed until closed)
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.pollFromSlug(w, r)
	if !ok {
		return
	}

	candidates, err := getCandidates(h.db, poll.ID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithCandidates{
		Poll:       poll,
		Candidates: candidates,
	})
}

// GetResults handles GET /polls/:slug/results
// Returns 403 while the poll is open, the final snapshot once closed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.pollFromSlug(w, r)
	if !ok {
		return
	}

	// CRITICAL: Results are sealed while poll is open
	if poll.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until poll is closed")
		return
	}

	if poll.FinalSnapshotID == nil {
		slog.Error("closed poll has no snapshot", "poll_id", poll.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	var payload string
	err := h.db.QueryRow(`
		SELECT payload FROM result_snapshot WHERE id = $1
	`, *poll.FinalSnapshotID).Scan(&payload)

	if err != nil {
		slog.Error("failed to query snapshot", "error", err, "snapshot_id", *poll.FinalSnapshotID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var snapshot models.ResultSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		slog.Error("failed to parse snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Poll:        poll,
		Snapshot:    snapshot,
		BallotCount: snapshot.BallotCount,
	})
}

// GetBallotCount handles GET /polls/:slug/ballot-count
// Returns the number of ballots submitted (visible even while open)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.pollFromSlug(w, r)
	if !ok {
		return
	}

	count, err := countBallots(h.db, poll.ID)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]int{
		"ballot_count": count,
	})
}

// GetPreview handles GET /polls/:slug/preview
// Returns compact poll data for link previews
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.pollFromSlug(w, r)
	if !ok {
		return
	}

	var candidateCount int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM candidate WHERE poll_id = $1
	`, poll.ID).Scan(&candidateCount)
	if err != nil {
		slog.Error("failed to count candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	ballotCount, err := countBallots(h.db, poll.ID)
	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollPreviewResponse{
		Title:          poll.Title,
		Status:         poll.Status,
		Method:         poll.Method,
		CandidateCount: candidateCount,
		BallotCount:    ballotCount,
	})
}
