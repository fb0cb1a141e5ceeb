// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

type EventHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	cache cache.Cache
}

func NewEventHandler(db *sql.DB, cfg cliparse.Config, c cache.Cache) *EventHandler {
	return &EventHandler{db: db, cfg: cfg, cache: c}
}

// authorize checks the X-Admin-Key header against the {id} path value and
// writes the error response itself when it fails
func (h *EventHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := r.PathValue("id")
	if eventID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "event_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(eventID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return eventID, true
}

// loadEvent fetches the event behind an authorized request
func (h *EventHandler) loadEvent(w http.ResponseWriter, eventID string) (eventRow, bool) {
	ev, err := loadEventByID(h.db, eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return ev, false
	}
	if err != nil {
		slog.Error("failed to query event", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return ev, false
	}
	return ev, true
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	teamSize := req.TeamSizeMax
	if teamSize == 0 {
		teamSize = 4
	}

	eventID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate event ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	adminKey := auth.GenerateAdminKey(eventID, h.cfg.AdminKeySalt)

	description, err := form.Description{Summary: req.Summary}.Encode()
	if err != nil {
		slog.Error("failed to encode description", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO event (id, title, description, organizer_name, status, team_size_max, registration_closes_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, eventID, req.Title, description, req.OrganizerName, models.StatusDraft, teamSize, req.RegistrationClosesAt, time.Now())

	if err != nil {
		slog.Error("failed to insert event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	slog.Info("event created", "event_id", eventID, "organizer", req.OrganizerName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{
		EventID:  eventID,
		AdminKey: adminKey,
	})
}

// GetEventAdmin handles GET /events/{id}/admin
func (h *EventHandler) GetEventAdmin(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	view, err := loadEventView(h.db, "id", eventID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to load event", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	stampRegistrationWindow(&view, time.Now())
	middleware.JSONResponse(w, http.StatusOK, view)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, ok := h.loadEvent(w, eventID)
	if !ok {
		return
	}
	if ev.Status == models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusConflict, "Event has concluded")
		return
	}

	desc := form.ParseDescription(ev.Description)
	desc.Summary = req.Summary
	description, err := desc.Encode()
	if err != nil {
		slog.Error("failed to encode description", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	_, err = h.db.Exec(`
		UPDATE event
		SET title = $1, description = $2, team_size_max = $3, registration_closes_at = $4
		WHERE id = $5
	`, req.Title, description, req.TeamSizeMax, req.RegistrationClosesAt, eventID)

	if err != nil {
		slog.Error("failed to update event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	invalidateEvent(r.Context(), h.cache, ev.ShareSlug)
	slog.Info("event updated", "event_id", eventID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Event updated"})
}

// UpdateForm handles PUT /events/{id}/form
// Replaces the registration form of a draft event
func (h *EventHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.UpdateFormRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.CheckDefinition(req.Questions); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.saveForm(w, r, eventID, func([]form.Question) ([]form.Question, error) {
		return req.Questions, nil
	})
}

// DeleteQuestion handles DELETE /events/{id}/form/questions/{qid}
func (h *EventHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	questionID := r.PathValue("qid")
	h.saveForm(w, r, eventID, func(questions []form.Question) ([]form.Question, error) {
		return form.DeleteQuestion(questions, questionID)
	})
}

// DeleteOption handles DELETE /events/{id}/form/questions/{qid}/options/{oid}
func (h *EventHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	questionID := r.PathValue("qid")
	optionID := r.PathValue("oid")
	h.saveForm(w, r, eventID, func(questions []form.Question) ([]form.Question, error) {
		return form.DeleteOption(questions, questionID, optionID)
	})
}

// saveForm applies edit to the stored form of a draft event, sanitizes the
// result and writes it back
func (h *EventHandler) saveForm(w http.ResponseWriter, r *http.Request, eventID string, edit func([]form.Question) ([]form.Question, error)) {
	ev, ok := h.loadEvent(w, eventID)
	if !ok {
		return
	}
	if ev.Status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Form can only be edited while the event is a draft")
		return
	}

	desc := form.ParseDescription(ev.Description)
	questions, err := edit(desc.Questions)
	if errors.Is(err, form.ErrQuestionNotFound) || errors.Is(err, form.ErrOptionNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	desc.Questions = form.Sanitize(questions)
	description, err := desc.Encode()
	if err != nil {
		slog.Error("failed to encode description", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save form")
		return
	}

	_, err = h.db.Exec(`UPDATE event SET description = $1 WHERE id = $2`, description, eventID)
	if err != nil {
		slog.Error("failed to save form", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save form")
		return
	}

	slog.Info("form saved", "event_id", eventID, "questions", len(desc.Questions))

	middleware.JSONResponse(w, http.StatusOK, models.UpdateFormResponse{
		Questions: desc.Questions,
	})
}

// PublishEvent handles POST /events/{id}/publish
func (h *EventHandler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	ev, ok := h.loadEvent(w, eventID)
	if !ok {
		return
	}
	if ev.Status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not in draft status")
		return
	}

	if err := form.CheckDefinition(ev.form()); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	shareSlug := auth.GenerateShareSlug(eventID, h.cfg.EventSlugSalt)

	_, err := h.db.Exec(`
		UPDATE event
		SET status = $1, share_slug = $2
		WHERE id = $3
	`, models.StatusOpen, shareSlug, eventID)

	if err != nil {
		slog.Error("failed to publish event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish event")
		return
	}

	slog.Info("event published", "event_id", eventID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.PublishEventResponse{
		ShareSlug: shareSlug,
		ShareURL:  h.cfg.BaseURL + "/events/" + shareSlug,
	})
}

// ConcludeEvent handles POST /events/{id}/conclude
// Freezes judging and stores the final ranking snapshot
func (h *EventHandler) ConcludeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	ev, ok := h.loadEvent(w, eventID)
	if !ok {
		return
	}
	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// claiming the row first makes a concurrent conclude wait and then fail,
	// and orders every score write either before the ranking or after the freeze
	open, err := claimOpenEvent(tx, eventID)
	if err != nil {
		slog.Error("failed to lock event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to conclude event")
		return
	}
	if !open {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	rankings, inputsHash, err := ComputeBMJRankings(tx, eventID)
	if err != nil {
		slog.Error("failed to compute rankings", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	payload, err := json.Marshal(snapshotPayload{Rankings: rankings, InputsHash: inputsHash})
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	snapshotID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate snapshot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}
	concludedAt := time.Now().UTC()

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, event_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshotID, eventID, models.MethodBMJ, concludedAt, string(payload))

	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.Exec(`
		UPDATE event
		SET status = $1, concluded_at = $2, final_snapshot_id = $3
		WHERE id = $4
	`, models.StatusConcluded, concludedAt, snapshotID, eventID)

	if err != nil {
		slog.Error("failed to conclude event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to conclude event")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to conclude event")
		return
	}

	invalidateEvent(r.Context(), h.cache, ev.ShareSlug)
	slog.Info("event concluded", "event_id", eventID, "snapshot_id", snapshotID, "submissions", len(rankings))

	middleware.JSONResponse(w, http.StatusOK, models.ConcludeEventResponse{
		ConcludedAt: concludedAt,
		Snapshot: models.ResultSnapshot{
			ID:         snapshotID,
			EventID:    eventID,
			Method:     models.MethodBMJ,
			ComputedAt: concludedAt,
			Rankings:   rankings,
			InputsHash: inputsHash,
		},
	})
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if _, ok := h.loadEvent(w, eventID); !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.event_id, r.display_name, r.response, r.seeking_team,
		       tm.team_id, r.created_at, r.updated_at
		FROM registration r
		LEFT JOIN team_member tm ON tm.registration_id = r.id
		WHERE r.event_id = $1
		ORDER BY r.created_at, r.id
	`, eventID)
	if err != nil {
		slog.Error("failed to query registrations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		var response string
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.DisplayName, &response, &reg.SeekingTeam,
			&reg.TeamID, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			slog.Error("failed to scan registration", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		reg.Response = decodeResponse(response, reg.ID)
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate registrations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, registrations)
}

// AddJudge handles POST /events/{id}/judges
func (h *EventHandler) AddJudge(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddJudgeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, ok := h.loadEvent(w, eventID)
	if !ok {
		return
	}
	if ev.Status == models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusConflict, "Event has concluded")
		return
	}

	judgeToken, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate judge token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add judge")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO judge (event_id, name, judge_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, eventID, req.Name, judgeToken, time.Now())

	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Judge name already taken")
			return
		}
		slog.Error("failed to insert judge", "error", err, "event_id", eventID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add judge")
		return
	}

	slog.Info("judge added", "event_id", eventID, "name", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.AddJudgeResponse{
		JudgeToken: judgeToken,
	})
}

// decodeResponse parses a stored registration response. A corrupt document
// is logged and read as empty.
func decodeResponse(stored, registrationID string) form.Response {
	resp := form.Response{}
	if err := json.Unmarshal([]byte(stored), &resp); err != nil {
		slog.Warn("unreadable registration response", "registration_id", registrationID, "error", err)
		return form.Response{}
	}
	return resp
}

// snapshotPayload is the JSON stored in result_snapshot.payload
type snapshotPayload struct {
	Rankings   []models.SubmissionStats `json:"rankings"`
	InputsHash string                   `json:"inputs_hash"`
}
