// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/middleware"
	"github.com/danielhkuo/jamhub/models"
)

var (
	errTeamFull        = errors.New("team is full")
	errAlreadyInTeam   = errors.New("already in a team")
	errTeamNotFound    = errors.New("team not found")
	errTeamNameTaken   = errors.New("team name taken")
	errInviteCodeTaken = errors.New("invite code taken")
)

// inviteCodeAttempts bounds retries after invite code collisions
const inviteCodeAttempts = 3

type TeamHandler struct {
	db            *sql.DB
	cfg           cliparse.Config
	newInviteCode func() (string, error)
}

func NewTeamHandler(db *sql.DB, cfg cliparse.Config) *TeamHandler {
	return &TeamHandler{db: db, cfg: cfg, newInviteCode: auth.GenerateInviteCode}
}

// joinTeam adds a registration to a team inside tx, enforcing the size limit
func joinTeam(tx *sql.Tx, teamID, registrationID string, teamSizeMax int) error {
	// the no-op update holds the team row lock until tx ends, so concurrent
	// joins count and insert one at a time
	res, err := tx.Exec(`UPDATE team SET name = name WHERE id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("failed to lock team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errTeamNotFound
	}

	current, err := teamOf(tx, registrationID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if current != "" {
		return errAlreadyInTeam
	}

	var members int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM team_member WHERE team_id = $1`, teamID).Scan(&members); err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if members >= teamSizeMax {
		return errTeamFull
	}

	_, err = tx.Exec(`
		INSERT INTO team_member (team_id, registration_id, joined_at)
		VALUES ($1, $2, $3)
	`, teamID, registrationID, time.Now())
	if isUniqueViolation(err) {
		return errAlreadyInTeam
	}
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	// a registration in a team is no longer looking for one
	_, err = tx.Exec(`UPDATE registration SET seeking_team = $1 WHERE id = $2`, false, registrationID)
	if err != nil {
		return fmt.Errorf("failed to clear seeking flag: %w", err)
	}
	return nil
}

// joinErrorResponse maps joinTeam and insertTeam errors to HTTP responses
func joinErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errTeamFull):
		middleware.ErrorResponse(w, http.StatusConflict, "Team is full")
	case errors.Is(err, errAlreadyInTeam):
		middleware.ErrorResponse(w, http.StatusConflict, "Already in a team")
	case errors.Is(err, errTeamNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
	case errors.Is(err, errTeamNameTaken):
		middleware.ErrorResponse(w, http.StatusConflict, "Team name already taken")
	default:
		slog.Error("failed to join team", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join team")
	}
}

// insertTeam creates a team led by registrationID, drawing a fresh invite
// code whenever the previous one collided
func (h *TeamHandler) insertTeam(ev eventRow, registrationID, name string) (teamID, inviteCode string, err error) {
	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		teamID, inviteCode, err = h.tryInsertTeam(ev, registrationID, name)
		if !errors.Is(err, errInviteCodeTaken) {
			return teamID, inviteCode, err
		}
		slog.Warn("invite code collision", "event_id", ev.ID, "attempt", attempt)
	}
	return "", "", err
}

func (h *TeamHandler) tryInsertTeam(ev eventRow, registrationID, name string) (string, string, error) {
	inviteCode, err := h.newInviteCode()
	if err != nil {
		return "", "", err
	}
	teamID := uuid.NewString()

	tx, err := h.db.Begin()
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taken bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM team WHERE event_id = $1 AND name = $2)
	`, ev.ID, name).Scan(&taken)
	if err != nil {
		return "", "", fmt.Errorf("failed to check team name: %w", err)
	}
	if taken {
		return "", "", errTeamNameTaken
	}

	// the name was free a moment ago, so a unique violation here is either the
	// invite code or a racing insert of the same name. The retry's name check
	// tells them apart.
	_, err = tx.Exec(`
		INSERT INTO team (id, event_id, name, invite_code, leader_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, teamID, ev.ID, name, inviteCode, registrationID, time.Now())
	if isUniqueViolation(err) {
		return "", "", errInviteCodeTaken
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to insert team: %w", err)
	}

	if err := joinTeam(tx, teamID, registrationID, ev.TeamSizeMax); err != nil {
		return "", "", err
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return teamID, inviteCode, nil
}

// CreateTeam handles POST /events/{slug}/teams
// The caller becomes the leader and first member
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.CreateTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	teamID, inviteCode, err := h.insertTeam(ev, registrationID, req.Name)
	switch {
	case errors.Is(err, errTeamNameTaken), errors.Is(err, errAlreadyInTeam), errors.Is(err, errTeamFull):
		joinErrorResponse(w, err)
		return
	case err != nil:
		slog.Error("failed to create team", "error", err, "event_id", ev.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create team")
		return
	}

	slog.Info("team created", "event_id", ev.ID, "team_id", teamID, "leader", registrationID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTeamResponse{
		TeamID:     teamID,
		InviteCode: inviteCode,
	})
}

// ListTeams handles GET /events/{slug}/teams
// Invite codes are only shown to the caller's own team
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ev, ok := requireEvent(h.db, w, r)
	if !ok {
		return
	}

	var myTeam string
	if token := r.Header.Get("X-Participant-Token"); token != "" {
		if registrationID, err := participantID(h.db, ev.ID, token); err == nil {
			myTeam, _ = teamOf(h.db, registrationID)
		}
	}

	rows, err := h.db.Query(`
		SELECT id, event_id, name, invite_code, leader_id, created_at
		FROM team
		WHERE event_id = $1
		ORDER BY created_at, id
	`, ev.ID)
	if err != nil {
		slog.Error("failed to query teams", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	teams := []models.Team{}
	index := map[string]int{}
	for rows.Next() {
		var t models.Team
		var inviteCode string
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &inviteCode, &t.LeaderID, &t.CreatedAt); err != nil {
			rows.Close()
			slog.Error("failed to scan team", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if t.ID == myTeam {
			t.InviteCode = inviteCode
		}
		t.Members = []models.TeamMember{}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	rows.Close()

	members, err := h.db.Query(`
		SELECT tm.team_id, r.id, r.display_name, tm.joined_at
		FROM team_member tm
		JOIN team t ON t.id = tm.team_id
		JOIN registration r ON r.id = tm.registration_id
		WHERE t.event_id = $1
		ORDER BY tm.joined_at, r.id
	`, ev.ID)
	if err != nil {
		slog.Error("failed to query team members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer members.Close()

	for members.Next() {
		var teamID string
		var m models.TeamMember
		if err := members.Scan(&teamID, &m.RegistrationID, &m.DisplayName, &m.JoinedAt); err != nil {
			slog.Error("failed to scan team member", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		i, ok := index[teamID]
		if !ok {
			continue
		}
		m.IsLeader = teams[i].LeaderID == m.RegistrationID
		teams[i].Members = append(teams[i].Members, m)
	}

	for i := range teams {
		teams[i].OpenSlots = max(ev.TeamSizeMax-len(teams[i].Members), 0)
	}

	middleware.JSONResponse(w, http.StatusOK, teams)
}

// JoinTeam handles POST /events/{slug}/teams/join
func (h *TeamHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.JoinTeamRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	var teamID string
	err := h.db.QueryRow(`
		SELECT id FROM team WHERE event_id = $1 AND invite_code = $2
	`, ev.ID, strings.ToUpper(req.InviteCode)).Scan(&teamID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		slog.Error("failed to query team", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if err := joinTeam(tx, teamID, registrationID, ev.TeamSizeMax); err != nil {
		joinErrorResponse(w, err)
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join team")
		return
	}

	slog.Info("team joined", "event_id", ev.ID, "team_id", teamID, "registration_id", registrationID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Joined team"})
}

// LeaveTeam handles POST /events/{slug}/teams/leave
// The last member leaving deletes the team. A leaving leader hands over to
// the longest standing member.
func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	if ev.Status == models.StatusConcluded {
		middleware.ErrorResponse(w, http.StatusConflict, "Event has concluded")
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
		middleware.ErrorResponse(w, http.StatusConflict, "Not in a team")
		return
	}

	_, err = tx.Exec(`DELETE FROM team_member WHERE registration_id = $1`, registrationID)
	if err != nil {
		slog.Error("failed to remove member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to leave team")
		return
	}

	var successor string
	err = tx.QueryRow(`
		SELECT registration_id FROM team_member
		WHERE team_id = $1
		ORDER BY joined_at, registration_id
		LIMIT 1
	`, teamID).Scan(&successor)

	message := "Left team"
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`DELETE FROM team WHERE id = $1`, teamID)
		message = "Left team; team disbanded"
	case err == nil:
		_, err = tx.Exec(`
			UPDATE team SET leader_id = $1 WHERE id = $2 AND leader_id = $3
		`, successor, teamID, registrationID)
	}
	if err != nil {
		slog.Error("failed to update team after leave", "error", err, "team_id", teamID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to leave team")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to leave team")
		return
	}

	slog.Info("team left", "event_id", ev.ID, "team_id", teamID, "registration_id", registrationID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: message})
}

// InviteMember handles POST /events/{slug}/teams/{team_id}/invites
// Only the team leader may invite
func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.InviteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	teamID := r.PathValue("team_id")
	var leaderID string
	err := h.db.QueryRow(`
		SELECT leader_id FROM team WHERE id = $1 AND event_id = $2
	`, teamID, ev.ID).Scan(&leaderID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		slog.Error("failed to query team", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if leaderID != registrationID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the team leader can invite")
		return
	}

	var eligible bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM registration r
			LEFT JOIN team_member tm ON tm.registration_id = r.id
			WHERE r.id = $1 AND r.event_id = $2 AND tm.team_id IS NULL
		)
	`, req.RegistrationID, ev.ID).Scan(&eligible)
	if err != nil {
		slog.Error("failed to check invitee", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !eligible {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration is not available for invites")
		return
	}

	var pending bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM team_invite
			WHERE team_id = $1 AND registration_id = $2 AND status = $3
		)
	`, teamID, req.RegistrationID, models.InvitePending).Scan(&pending)
	if err != nil {
		slog.Error("failed to check pending invites", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if pending {
		middleware.ErrorResponse(w, http.StatusConflict, "Invite already pending")
		return
	}

	inviteID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO team_invite (id, team_id, registration_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, inviteID, teamID, req.RegistrationID, models.InvitePending, time.Now())
	if err != nil {
		slog.Error("failed to insert invite", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send invite")
		return
	}

	slog.Info("invite sent", "team_id", teamID, "invite_id", inviteID)

	middleware.JSONResponse(w, http.StatusCreated, models.InviteResponse{InviteID: inviteID})
}

// MyInvites handles GET /events/{slug}/invites/me
func (h *TeamHandler) MyInvites(w http.ResponseWriter, r *http.Request) {
	_, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT i.id, i.team_id, t.name, i.status, i.created_at
		FROM team_invite i
		JOIN team t ON t.id = i.team_id
		WHERE i.registration_id = $1 AND i.status = $2
		ORDER BY i.created_at, i.id
	`, registrationID, models.InvitePending)
	if err != nil {
		slog.Error("failed to query invites", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	invites := []models.Invite{}
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.TeamName, &inv.Status, &inv.CreatedAt); err != nil {
			slog.Error("failed to scan invite", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		invites = append(invites, inv)
	}

	middleware.JSONResponse(w, http.StatusOK, invites)
}

// RespondInvite handles POST /events/{slug}/invites/{invite_id}/respond
// Accepting joins the team, subject to the same limits as joining by code
func (h *TeamHandler) RespondInvite(w http.ResponseWriter, r *http.Request) {
	ev, registrationID, ok := requireParticipant(h.db, w, r)
	if !ok {
		return
	}

	var req models.RespondInviteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if ev.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not open")
		return
	}

	inviteID := r.PathValue("invite_id")

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var teamID string
	err = tx.QueryRow(`
		SELECT team_id FROM team_invite
		WHERE id = $1 AND registration_id = $2 AND status = $3
	`, inviteID, registrationID, models.InvitePending).Scan(&teamID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Invite not found")
		return
	}
	if err != nil {
		slog.Error("failed to query invite", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	status := models.InviteDeclined
	if req.Accept {
		if err := joinTeam(tx, teamID, registrationID, ev.TeamSizeMax); err != nil {
			joinErrorResponse(w, err)
			return
		}
		status = models.InviteAccepted
	}

	_, err = tx.Exec(`
		UPDATE team_invite SET status = $1, responded_at = $2 WHERE id = $3
	`, status, time.Now(), inviteID)
	if err != nil {
		slog.Error("failed to update invite", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to respond to invite")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to respond to invite")
		return
	}

	slog.Info("invite answered", "invite_id", inviteID, "status", status)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Invite " + status})
}
