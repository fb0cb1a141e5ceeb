// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/metrics"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

type ResultsHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	cache   cache.Cache
	metrics *metrics.Metrics
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, c cache.Cache, m *metrics.Metrics) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, cache: c, metrics: m}
}

// loadEventView reads an event by "id" or "share_slug" together with its
// parsed description and registration count
func loadEventView(db *sql.DB, column, value string) (models.EventView, error) {
	var view models.EventView
	var description string
	ev := &view.Event
	err := db.QueryRow(`
		SELECT id, title, description, organizer_name, status, share_slug, team_size_max,
		       registration_closes_at, concluded_at, final_snapshot_id, created_at
		FROM event
		WHERE `+column+` = $1
	`, value).Scan(
		&ev.ID, &ev.Title, &description, &ev.OrganizerName, &ev.Status, &ev.ShareSlug,
		&ev.TeamSizeMax, &ev.RegistrationClosesAt, &ev.ConcludedAt, &ev.FinalSnapshotID, &ev.CreatedAt,
	)
	if err != nil {
		return view, err
	}

	desc := form.ParseDescription(description)
	view.Summary = desc.Summary
	view.Questions = desc.Questions

	err = db.QueryRow(`SELECT COUNT(*) FROM registration WHERE event_id = $1`, ev.ID).Scan(&view.RegistrationCount)
	return view, err
}

// stampRegistrationWindow fills the fields of view that depend on the clock.
// They are never part of the cached bytes.
func stampRegistrationWindow(view *models.EventView, now time.Time) {
	row := eventRow{Status: view.Event.Status, RegistrationClosesAt: view.Event.RegistrationClosesAt}
	view.RegistrationOpen = row.acceptsRegistrations(now)
	view.RegistrationClosesIn = ""
	if view.RegistrationOpen && view.Event.RegistrationClosesAt != nil {
		view.RegistrationClosesIn = humanize.RelTime(*view.Event.RegistrationClosesAt, now, "ago", "from now")
	}
}

// GetEvent handles GET /events/{slug}
// Returns the public event page with its registration form. Views are cached
// per slug and dropped on every write to the event.
func (h *ResultsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	key := cache.EventKey(shareSlug)
	data, hit, err := h.cache.Get(r.Context(), key)
	if err != nil {
		slog.Warn("event cache lookup failed", "slug", shareSlug, "error", err)
		h.metrics.CacheResult("error")
	}

	var view models.EventView
	if hit {
		if err := json.Unmarshal(data, &view); err != nil {
			slog.Warn("dropping unreadable cached event view", "slug", shareSlug, "error", err)
			hit = false
		}
	}

	if hit {
		h.metrics.CacheResult("hit")
	} else {
		if err == nil {
			h.metrics.CacheResult("miss")
		}

		view, err = loadEventView(h.db, "share_slug", shareSlug)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
			return
		}
		if err != nil {
			slog.Error("failed to load event", "error", err, "slug", shareSlug)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		data, err = json.Marshal(view)
		if err != nil {
			slog.Error("failed to encode event view", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load event")
			return
		}
		if err := h.cache.Set(r.Context(), key, data); err != nil {
			slog.Warn("failed to cache event view", "slug", shareSlug, "error", err)
		}
	}

	stampRegistrationWindow(&view, time.Now())
	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetResults handles GET /events/{slug}/results
// Returns 403 until the event concludes, then the frozen ranking snapshot
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var eventID, status string
	var snapshotID sql.NullString
	err := h.db.QueryRow(`
		SELECT id, status, final_snapshot_id
		FROM event
		WHERE share_slug = $1
	`, shareSlug).Scan(&eventID, &status, &snapshotID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		slog.Error("failed to query event", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// results stay sealed while judging is running
	if status != models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the event concludes")
		return
	}

	if !snapshotID.Valid {
		slog.Error("concluded event has no snapshot", "slug", shareSlug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	var snapshot models.ResultSnapshot
	var payload string
	err = h.db.QueryRow(`
		SELECT id, event_id, method, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID.String).Scan(
		&snapshot.ID, &snapshot.EventID, &snapshot.Method,
		&snapshot.ComputedAt, &payload,
	)
	if err != nil {
		slog.Error("failed to query snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var stored snapshotPayload
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		slog.Error("failed to parse snapshot payload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}
	snapshot.Rankings = stored.Rankings
	snapshot.InputsHash = stored.InputsHash
	if snapshot.Rankings == nil {
		snapshot.Rankings = []models.SubmissionStats{}
	}

	view, err := loadEventView(h.db, "id", eventID)
	if err != nil {
		slog.Error("failed to load event for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"event":       view.Event,
		"rankings":    snapshot.Rankings,
		"computed_at": snapshot.ComputedAt,
		"inputs_hash": snapshot.InputsHash,
	})
}
