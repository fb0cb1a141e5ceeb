// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

type JudgingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewJudgingHandler(db *sql.DB, cfg cliparse.Config) *JudgingHandler {
	return &JudgingHandler{db: db, cfg: cfg}
}

// requireJudge resolves the X-Judge-Token header for the event behind {slug}
func (h *JudgingHandler) requireJudge(w http.ResponseWriter, r *http.Request) (eventRow, string, bool) {
	judgeToken := r.Header.Get("X-Judge-Token")
	if judgeToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Judge-Token header required")
		return eventRow{}, "", false
	}
	if err := auth.ValidateTokenFormat(judgeToken); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid judge token")
		return eventRow{}, "", false
	}

	ev, ok := requireEvent(h.db, w, r)
	if !ok {
		return ev, "", false
	}

	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM judge
			WHERE event_id = $1 AND judge_token = $2
		)
	`, ev.ID, judgeToken).Scan(&exists)
	if err != nil {
		slog.Error("failed to verify judge token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return ev, "", false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid judge token for this event")
		return ev, "", false
	}
	return ev, judgeToken, true
}

// SubmitScores handles POST /events/{slug}/scores
// Scores are upserted per submission; submissions left out keep earlier scores
func (h *JudgingHandler) SubmitScores(w http.ResponseWriter, r *http.Request) {
	ev, judgeToken, ok := h.requireJudge(w, r)
	if !ok {
		return
	}

	var req models.SubmitScoresRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// scores are frozen once the event concludes
	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open for judging")
		return
	}

	rows, err := h.db.Query(`SELECT id FROM submission WHERE event_id = $1`, ev.ID)
	if err != nil {
		slog.Error("failed to query submissions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	validSubmissions := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			slog.Error("failed to scan submission", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		validSubmissions[id] = true
	}
	rows.Close()

	for submissionID := range req.Scores {
		if !validSubmissions[submissionID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid submission_id: "+submissionID)
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// a conclude may have frozen the scores since the check above
	open, err := claimOpenEvent(tx, ev.ID)
	if err != nil {
		slog.Error("failed to lock event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !open {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open for judging")
		return
	}

	now := time.Now()
	for submissionID, score := range req.Scores {
		_, err = tx.Exec(`
			INSERT INTO judge_score (event_id, judge_token, submission_id, value01, scored_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (judge_token, submission_id)
			DO UPDATE SET value01 = excluded.value01, scored_at = excluded.scored_at
		`, ev.ID, judgeToken, submissionID, score, now)

		if err != nil {
			slog.Error("failed to save score", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save scores")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save scores")
		return
	}

	slog.Info("scores submitted", "event_id", ev.ID, "count", len(req.Scores))

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Scores saved"})
}

// MyScores handles GET /events/{slug}/scores/me
func (h *JudgingHandler) MyScores(w http.ResponseWriter, r *http.Request) {
	ev, judgeToken, ok := h.requireJudge(w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT submission_id, value01
		FROM judge_score
		WHERE event_id = $1 AND judge_token = $2
	`, ev.ID, judgeToken)
	if err != nil {
		slog.Error("failed to query scores", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var submissionID string
		var value float64
		if err := rows.Scan(&submissionID, &value); err != nil {
			slog.Error("failed to scan score", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		scores[submissionID] = value
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
	})
}
