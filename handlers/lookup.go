// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

// eventRow is the slice of an event most handlers need
type eventRow struct {
	ID                   string
	Status               string
	Description          string
	TeamSizeMax          int
	ShareSlug            *string
	RegistrationClosesAt *time.Time
}

// form returns the sanitized question list stored in the description
func (e eventRow) form() []form.Question {
	return form.ParseDescription(e.Description).Questions
}

// acceptsRegistrations reports whether new registrations may be created at now
func (e eventRow) acceptsRegistrations(now time.Time) bool {
	if e.Status != models.StatusOpen {
		return false
	}
	return e.RegistrationClosesAt == nil || now.Before(*e.RegistrationClosesAt)
}

const eventRowColumns = `id, status, description, team_size_max, share_slug, registration_closes_at`

func scanEventRow(row *sql.Row) (eventRow, error) {
	var e eventRow
	err := row.Scan(&e.ID, &e.Status, &e.Description, &e.TeamSizeMax, &e.ShareSlug, &e.RegistrationClosesAt)
	return e, err
}

// loadEventBySlug returns sql.ErrNoRows when no published event has slug
func loadEventBySlug(db *sql.DB, slug string) (eventRow, error) {
	return scanEventRow(db.QueryRow(`SELECT `+eventRowColumns+` FROM event WHERE share_slug = $1`, slug))
}

func loadEventByID(db *sql.DB, id string) (eventRow, error) {
	return scanEventRow(db.QueryRow(`SELECT `+eventRowColumns+` FROM event WHERE id = $1`, id))
}

// participantID resolves a participant token to its registration in eventID.
// Returns sql.ErrNoRows for unknown tokens.
func participantID(db *sql.DB, eventID, token string) (string, error) {
	var id string
	err := db.QueryRow(`
		SELECT id FROM registration WHERE event_id = $1 AND participant_token = $2
	`, eventID, token).Scan(&id)
	return id, err
}

// teamOf returns the team a registration belongs to, or "" when it has none
func teamOf(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, registrationID string) (string, error) {
	var teamID string
	err := q.QueryRow(`SELECT team_id FROM team_member WHERE registration_id = $1`, registrationID).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return teamID, err
}

// claimOpenEvent locks the event row for the rest of tx and reports whether
// the event is still open. Writes that must not outlive the event's open
// phase call it first; ConcludeEvent takes the same lock to change status.
func claimOpenEvent(tx *sql.Tx, eventID string) (bool, error) {
	res, err := tx.Exec(`UPDATE event SET status = status WHERE id = $1 AND status = $2`, eventID, models.StatusOpen)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// isUniqueViolation recognizes unique constraint failures from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// invalidateEvent drops the cached public view of an event. Failures are
// logged only; the entry expires on its own.
func invalidateEvent(ctx context.Context, c cache.Cache, slug *string) {
	if slug == nil || *slug == "" {
		return
	}
	if err := c.Delete(ctx, cache.EventKey(*slug)); err != nil {
		slog.Warn("failed to invalidate event cache", "slug", *slug, "error", err)
	}
}

// requireEvent loads the event behind the {slug} path value and writes the
// error response itself when it cannot
func requireEvent(db *sql.DB, w http.ResponseWriter, r *http.Request) (eventRow, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return eventRow{}, false
	}

	ev, err := loadEventBySlug(db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Event not found")
		return ev, false
	}
	if err != nil {
		slog.Error("failed to query event", "error", err, "slug", shareSlug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return ev, false
	}
	return ev, true
}

// requireParticipant resolves the X-Participant-Token header to a
// registration of the event behind {slug}
func requireParticipant(db *sql.DB, w http.ResponseWriter, r *http.Request) (eventRow, string, bool) {
	token := r.Header.Get("X-Participant-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return eventRow{}, "", false
	}
	if err := auth.ValidateTokenFormat(token); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return eventRow{}, "", false
	}

	ev, ok := requireEvent(db, w, r)
	if !ok {
		return ev, "", false
	}

	registrationID, err := participantID(db, ev.ID, token)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token for this event")
		return ev, "", false
	}
	if err != nil {
		slog.Error("failed to verify participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return ev, "", false
	}
	return ev, registrationID, true
}
