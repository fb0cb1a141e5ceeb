// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

type SubmissionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSubmissionHandler(db *sql.DB, cfg cliparse.Config) *SubmissionHandler {
	return &SubmissionHandler{db: db, cfg: cfg}
}

// UpsertSubmission handles PUT /events/{slug}/submission
// Any member may create or replace their team's project while the event is open
func (h *SubmissionHandler) UpsertSubmission(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.SubmissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open for submissions")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	teamID, err := teamOf(tx, registrationID)
	if err != nil {
		slog.Error("failed to check membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if teamID == "" {
		middleware.ErrorResponse(w, http.StatusConflict, "Join a team before submitting")
		return
	}

	var submissionID string
	err = tx.QueryRow(`SELECT id FROM submission WHERE team_id = $1`, teamID).Scan(&submissionID)
	isUpdate := err == nil
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now()
	if isUpdate {
		_, err = tx.Exec(`
			UPDATE submission
			SET title = $1, description = $2, link = $3, updated_at = $4
			WHERE id = $5
		`, req.Title, req.Description, req.Link, now, submissionID)
	} else {
		submissionID = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO submission (id, event_id, team_id, title, description, link, submitted_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, submissionID, ev.ID, teamID, req.Title, req.Description, req.Link, now, now)
	}
	if err != nil {
		slog.Error("failed to save submission", "error", err, "team_id", teamID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save submission")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save submission")
		return
	}

	status, message := http.StatusCreated, "Submission created"
	if isUpdate {
		status, message = http.StatusOK, "Submission updated"
	}

	slog.Info("submission saved", "event_id", ev.ID, "submission_id", submissionID, "is_update", isUpdate)

	middleware.JSONResponse(w, status, models.SubmissionResponse{
		SubmissionID: submissionID,
		Message:      message,
	})
}

// ListSubmissions handles GET /events/{slug}/submissions
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ev, ok := requireEvent(h.db, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT s.id, s.event_id, s.team_id, t.name, s.title, s.description, s.link,
		       s.submitted_at, s.updated_at
		FROM submission s
		JOIN team t ON t.id = s.team_id
		WHERE s.event_id = $1
		ORDER BY s.submitted_at, s.id
	`, ev.ID)
	if err != nil {
		slog.Error("failed to query submissions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.EventID, &s.TeamID, &s.TeamName, &s.Title, &s.Description,
			&s.Link, &s.SubmittedAt, &s.UpdatedAt); err != nil {
			slog.Error("failed to scan submission", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		submissions = append(submissions, s)
	}

	middleware.JSONResponse(w, http.StatusOK, submissions)
}
