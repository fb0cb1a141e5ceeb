// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/db"
	"github.com/danielhkuo/jamhub/form"
)

// SetupTestDB opens a private in-memory sqlite database with the full schema.
// It is closed when the test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(cliparse.Config{DatabaseType: "sqlite", DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  "sqlite",
		AdminKeySalt:  "test-admin-salt",
		EventSlugSalt: "test-slug-salt",
		CacheTTL:      30 * time.Second,
		BaseURL:       "https://jamhub.test",
	}
}

// CreateTestEvent creates an event with the given registration form and
// returns its ID, admin key and share slug (empty for drafts).
// status should be "draft", "open", or "concluded"
func CreateTestEvent(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, questions []form.Question) (eventID, adminKey, shareSlug string) {
	t.Helper()

	eventID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(eventID, cfg.AdminKeySalt)

	var slug *string
	if status != "draft" {
		s := auth.GenerateShareSlug(eventID, cfg.EventSlugSalt)
		slug = &s
		shareSlug = s
	}

	description, err := form.Description{Summary: "A test jam", Questions: questions}.Encode()
	if err != nil {
		t.Fatalf("Failed to encode description: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO event (id, title, description, organizer_name, status, share_slug, team_size_max, created_at)
		VALUES ($1, 'Test Jam', $2, 'TestOrganizer', $3, $4, 3, $5)
	`, eventID, description, status, slug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return eventID, adminKey, shareSlug
}

// CreateTestRegistration registers a participant with a stored response and
// returns the registration ID and participant token
func CreateTestRegistration(t *testing.T, conn *sql.DB, eventID, displayName string, response form.Response) (registrationID, token string) {
	t.Helper()

	if response == nil {
		response = form.Response{}
	}
	stored, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("Failed to encode response: %v", err)
	}

	registrationID = uuid.NewString()
	token, _ = auth.GenerateToken()
	_, err = conn.Exec(`
		INSERT INTO registration (id, event_id, participant_token, display_name, response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, registrationID, eventID, token, displayName, string(stored), time.Now())
	if err != nil {
		t.Fatalf("Failed to create test registration: %v", err)
	}

	return registrationID, token
}

// CreateTestTeam creates a team led by leaderID and returns its ID and invite code
func CreateTestTeam(t *testing.T, conn *sql.DB, eventID, name, leaderID string) (teamID, inviteCode string) {
	t.Helper()

	teamID = uuid.NewString()
	inviteCode, _ = auth.GenerateInviteCode()
	_, err := conn.Exec(`
		INSERT INTO team (id, event_id, name, invite_code, leader_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, teamID, eventID, name, inviteCode, leaderID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test team: %v", err)
	}

	AddTestMember(t, conn, teamID, leaderID)
	return teamID, inviteCode
}

// AddTestMember puts a registration on a team
func AddTestMember(t *testing.T, conn *sql.DB, teamID, registrationID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO team_member (team_id, registration_id, joined_at)
		VALUES ($1, $2, $3)
	`, teamID, registrationID, time.Now())
	if err != nil {
		t.Fatalf("Failed to add test member: %v", err)
	}
}

// CreateTestSubmission stores a project for a team and returns its ID
func CreateTestSubmission(t *testing.T, conn *sql.DB, eventID, teamID, title string) string {
	t.Helper()

	submissionID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO submission (id, event_id, team_id, title, link, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, 'https://example.com/game', $5, $5)
	`, submissionID, eventID, teamID, title, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test submission: %v", err)
	}

	return submissionID
}

// CreateTestJudge adds a judge to an event and returns the judge token
func CreateTestJudge(t *testing.T, conn *sql.DB, eventID, name string) string {
	t.Helper()

	token, _ := auth.GenerateToken()
	_, err := conn.Exec(`
		INSERT INTO judge (event_id, name, judge_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, eventID, name, token, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test judge: %v", err)
	}

	return token
}

// SubmitTestScores stores one judge's scores
func SubmitTestScores(t *testing.T, conn *sql.DB, eventID, judgeToken string, scores map[string]float64) {
	t.Helper()

	for submissionID, value := range scores {
		_, err := conn.Exec(`
			INSERT INTO judge_score (event_id, judge_token, submission_id, value01, scored_at)
			VALUES ($1, $2, $3, $4, $5)
		`, eventID, judgeToken, submissionID, value, time.Now())
		if err != nil {
			t.Fatalf("Failed to create test score: %v", err)
		}
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
