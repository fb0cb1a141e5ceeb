// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

type RegistrationHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	cache cache.Cache
}

func NewRegistrationHandler(db *sql.DB, cfg cliparse.Config, c cache.Cache) *RegistrationHandler {
	return &RegistrationHandler{db: db, cfg: cfg, cache: c}
}

// checkAnswers validates answers against the questions they make visible.
// It returns the response to persist, or the per question errors.
func checkAnswers(questions []form.Question, answers form.Answers, other form.OtherText) (form.Response, form.Errors) {
	visible := form.VisibleQuestions(questions, answers)

	errs := form.Validate(answers, other, visible)
	for id, msg := range form.CheckOptions(answers, other, visible) {
		if _, ok := errs[id]; !ok {
			errs[id] = msg
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return form.BuildResponse(answers, other, visible), nil
}

// Register handles POST /events/{slug}/registrations
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, ok := requireEvent(h.db, w, r)
	if !ok {
		return
	}
	if !ev.acceptsRegistrations(time.Now()) {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration is closed")
		return
	}

	response, errs := checkAnswers(ev.form(), req.Answers, req.OtherText)
	if errs != nil {
		middleware.FieldErrorResponse(w, "Registration form is incomplete", errs)
		return
	}

	stored, err := json.Marshal(response)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	participantToken, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	registrationID := uuid.NewString()
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	now := time.Now()

	_, err = h.db.Exec(`
		INSERT INTO registration (id, event_id, participant_token, display_name, response, ip_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, registrationID, ev.ID, participantToken, req.DisplayName, string(stored), ipHash, now, now)

	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Display name already taken")
			return
		}
		slog.Error("failed to insert registration", "error", err, "event_id", ev.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	invalidateEvent(r.Context(), h.cache, ev.ShareSlug)
	slog.Info("participant registered", "event_id", ev.ID, "registration_id", registrationID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterResponse{
		RegistrationID:   registrationID,
		ParticipantToken: participantToken,
	})
}

// loadRegistration reads one registration with its team
func loadRegistration(db *sql.DB, registrationID string) (models.Registration, error) {
	var reg models.Registration
	var response string
	err := db.QueryRow(`
		SELECT r.id, r.event_id, r.display_name, r.response, r.seeking_team,
		       tm.team_id, r.created_at, r.updated_at
		FROM registration r
		LEFT JOIN team_member tm ON tm.registration_id = r.id
		WHERE r.id = $1
	`, registrationID).Scan(
		&reg.ID, &reg.EventID, &reg.DisplayName, &response, &reg.SeekingTeam,
		&reg.TeamID, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return reg, err
	}
	reg.Response = decodeResponse(response, reg.ID)
	return reg, nil
}

// GetMyRegistration handles GET /events/{slug}/registrations/me
// Returns the stored response loaded back into answers for the current form
func (h *RegistrationHandler) GetMyRegistration(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	reg, err := loadRegistration(h.db, registrationID)
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	questions := ev.form()
	loaded := form.ApplyResponse(questions, reg.Response)

	middleware.JSONResponse(w, http.StatusOK, models.MyRegistrationResponse{
		Registration: reg,
		Questions:    questions,
		Answers:      loaded.Answers,
		OtherText:    loaded.OtherText,
		Unrecognized: loaded.Unrecognized,
	})
}

// UpdateMyRegistration handles PUT /events/{slug}/registrations/me
func (h *RegistrationHandler) UpdateMyRegistration(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.UpdateRegistrationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if ev.Status == models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusConflict, "Event has concluded")
		return
	}

	response, errs := checkAnswers(ev.form(), req.Answers, req.OtherText)
	if errs != nil {
		middleware.FieldErrorResponse(w, "Registration form is incomplete", errs)
		return
	}

	var current string
	err := h.db.QueryRow(`SELECT response FROM registration WHERE id = $1`, registrationID).Scan(&current)
	if err != nil {
		slog.Error("failed to query registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if decodeResponse(current, registrationID).Equal(response) {
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "No changes"})
		return
	}

	stored, err := json.Marshal(response)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update registration")
		return
	}

	_, err = h.db.Exec(`
		UPDATE registration SET response = $1, updated_at = $2 WHERE id = $3
	`, string(stored), time.Now(), registrationID)
	if err != nil {
		slog.Error("failed to update registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update registration")
		return
	}

	slog.Info("registration updated", "event_id", ev.ID, "registration_id", registrationID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Registration updated"})
}

// SetSeeking handles PUT /events/{slug}/registrations/me/seeking
func (h *RegistrationHandler) SetSeeking(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.SeekingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if ev.Status == models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusConflict, "Event has concluded")
		return
	}

	_, err := h.db.Exec(`
		UPDATE registration SET seeking_team = $1, updated_at = $2 WHERE id = $3
	`, req.Seeking, time.Now(), registrationID)
	if err != nil {
		slog.Error("failed to update seeking flag", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update registration")
		return
	}

	message := "No longer looking for a team"
	if req.Seeking {
		message = "Looking for a team"
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: message})
}

// ListSeekers handles GET /events/{slug}/seekers
// Lists registrations looking for a team that are not in one yet
func (h *RegistrationHandler) ListSeekers(w http.ResponseWriter, r *http.Request) {
	ev, ok := requireEvent(h.db, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.display_name
		FROM registration r
		LEFT JOIN team_member tm ON tm.registration_id = r.id
		WHERE r.event_id = $1 AND r.seeking_team = $2 AND tm.team_id IS NULL
		ORDER BY r.created_at, r.id
	`, ev.ID, true)
	if err != nil {
		slog.Error("failed to query seekers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	seekers := []models.Seeker{}
	for rows.Next() {
		var s models.Seeker
		if err := rows.Scan(&s.RegistrationID, &s.DisplayName); err != nil {
			slog.Error("failed to scan seeker", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		seekers = append(seekers, s)
	}

	middleware.JSONResponse(w, http.StatusOK, seekers)
}
