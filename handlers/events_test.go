// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/jamhub/auth"
	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/models"
	"github.com/danielhkuo/jamhub/testutil"
)

func TestCreateEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid event",
			body:       models.CreateEventRequest{Title: "Cat Jam", Summary: "Make a cat game", OrganizerName: "Ada"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing title",
			body:       models.CreateEventRequest{OrganizerName: "Ada"},
			wantStatus: http.StatusBadRequest,
			wantError:  "title is required",
		},
		{
			name:       "missing organizer",
			body:       models.CreateEventRequest{Title: "Cat Jam"},
			wantStatus: http.StatusBadRequest,
			wantError:  "organizer_name is required",
		},
		{
			name:       "team size too large",
			body:       models.CreateEventRequest{Title: "Cat Jam", OrganizerName: "Ada", TeamSizeMax: 99},
			wantStatus: http.StatusBadRequest,
			wantError:  "team_size_max must be at most 20",
		},
		{
			name:       "invalid JSON",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(handler.CreateEvent, "POST", "/events", tt.body, nil, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantError != "" {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				assert.Equal(t, tt.wantError, resp.Message)
				return
			}

			var resp models.CreateEventResponse
			testutil.AssertJSON(t, w, &resp)
			require.NotEmpty(t, resp.EventID)
			assert.Equal(t, auth.GenerateAdminKey(resp.EventID, cfg.AdminKeySalt), resp.AdminKey)

			var status, description string
			var teamSize int
			err := db.QueryRow(`SELECT status, description, team_size_max FROM event WHERE id = $1`, resp.EventID).
				Scan(&status, &description, &teamSize)
			require.NoError(t, err)
			assert.Equal(t, models.StatusDraft, status)
			assert.Equal(t, 4, teamSize)
			assert.Equal(t, "Make a cat game", form.ParseDescription(description).Summary)
		})
	}
}

func TestGetEventAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", jamForm())

	t.Run("valid key", func(t *testing.T) {
		w := serve(handler.GetEventAdmin, "GET", "/events/"+eventID+"/admin", nil,
			map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var view models.EventView
		testutil.AssertJSON(t, w, &view)
		assert.Equal(t, eventID, view.Event.ID)
		assert.Equal(t, "A test jam", view.Summary)
		assert.Len(t, view.Questions, 4)
		assert.False(t, view.RegistrationOpen)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := serve(handler.GetEventAdmin, "GET", "/events/"+eventID+"/admin", nil,
			map[string]string{"X-Admin-Key": "nope"}, map[string]string{"id": eventID})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown event", func(t *testing.T) {
		missing := "missingevent0001"
		w := serve(handler.GetEventAdmin, "GET", "/events/"+missing+"/admin", nil,
			map[string]string{"X-Admin-Key": auth.GenerateAdminKey(missing, cfg.AdminKeySalt)},
			map[string]string{"id": missing})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	c := newMemCache()
	handler := NewEventHandler(db, cfg, c)

	eventID, adminKey, slug := testutil.CreateTestEvent(t, db, cfg, "open", jamForm())
	c.Set(t.Context(), cache.EventKey(slug), []byte(`{}`))

	closes := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	body := models.UpdateEventRequest{Title: "Dog Jam", Summary: "Now with dogs", TeamSizeMax: 5, RegistrationClosesAt: &closes}
	w := serve(handler.UpdateEvent, "PUT", "/events/"+eventID, body,
		map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var title, description string
	var teamSize int
	err := db.QueryRow(`SELECT title, description, team_size_max FROM event WHERE id = $1`, eventID).
		Scan(&title, &description, &teamSize)
	require.NoError(t, err)
	assert.Equal(t, "Dog Jam", title)
	assert.Equal(t, 5, teamSize)

	// the form survives a summary edit
	desc := form.ParseDescription(description)
	assert.Equal(t, "Now with dogs", desc.Summary)
	assert.Len(t, desc.Questions, 4)

	assert.False(t, c.has(cache.EventKey(slug)), "public view should be invalidated")
}

func TestUpdateForm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	t.Run("dependencies are sanitized", func(t *testing.T) {
		eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", nil)

		questions := []form.Question{
			{ID: "languages", Type: form.TypeText, Title: "Languages",
				DependsOn: &form.Dependency{QuestionID: "role", OptionID: "prog"}},
			{ID: "role", Type: form.TypeSingle, Title: "Role",
				Options: []form.Option{{ID: "prog", Label: "Programmer"}}},
			{ID: "editor", Type: form.TypeText, Title: "Editor",
				DependsOn: &form.Dependency{QuestionID: "role", OptionID: "prog"}},
			{ID: "bio", Type: form.TypeTextarea, Title: "Bio",
				DependsOn: &form.Dependency{QuestionID: "role", OptionID: "gone"}},
		}

		w := serve(handler.UpdateForm, "PUT", "/events/"+eventID+"/form", models.UpdateFormRequest{Questions: questions},
			map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp models.UpdateFormResponse
		testutil.AssertJSON(t, w, &resp)
		require.Len(t, resp.Questions, 4)
		assert.Nil(t, resp.Questions[0].DependsOn, "forward reference must be cleared")
		require.NotNil(t, resp.Questions[2].DependsOn)
		assert.Equal(t, "role", resp.Questions[2].DependsOn.QuestionID)
		assert.Nil(t, resp.Questions[3].DependsOn, "unknown option must be cleared")

		ev, err := loadEventByID(db, eventID)
		require.NoError(t, err)
		assert.Equal(t, resp.Questions, ev.form())
	})

	t.Run("broken definition", func(t *testing.T) {
		eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", nil)

		questions := []form.Question{
			{ID: "a", Type: form.TypeText, Title: "A"},
			{ID: "a", Type: form.TypeText, Title: "Again"},
		}
		w := serve(handler.UpdateForm, "PUT", "/events/"+eventID+"/form", models.UpdateFormRequest{Questions: questions},
			map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("published form is frozen", func(t *testing.T) {
		eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "open", jamForm())

		w := serve(handler.UpdateForm, "PUT", "/events/"+eventID+"/form", models.UpdateFormRequest{Questions: nil},
			map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDeleteOption_ClearsDependents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", jamForm())
	headers := map[string]string{"X-Admin-Key": adminKey}

	w := serve(handler.DeleteOption, "DELETE", "/events/"+eventID+"/form/questions/role/options/prog", nil, headers,
		map[string]string{"id": eventID, "qid": "role", "oid": "prog"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.UpdateFormResponse
	testutil.AssertJSON(t, w, &resp)
	require.Len(t, resp.Questions, 4)
	assert.Equal(t, []form.Option{{ID: "art", Label: "Artist"}}, resp.Questions[0].Options)
	assert.Nil(t, resp.Questions[2].DependsOn)

	t.Run("unknown option", func(t *testing.T) {
		w := serve(handler.DeleteOption, "DELETE", "/events/"+eventID+"/form/questions/role/options/prog", nil, headers,
			map[string]string{"id": eventID, "qid": "role", "oid": "prog"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", jamForm())
	headers := map[string]string{"X-Admin-Key": adminKey}

	w := serve(handler.DeleteQuestion, "DELETE", "/events/"+eventID+"/form/questions/role", nil, headers,
		map[string]string{"id": eventID, "qid": "role"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.UpdateFormResponse
	testutil.AssertJSON(t, w, &resp)
	require.Len(t, resp.Questions, 3)
	assert.Equal(t, "languages", resp.Questions[1].ID)
	assert.Nil(t, resp.Questions[1].DependsOn)

	w = serve(handler.DeleteQuestion, "DELETE", "/events/"+eventID+"/form/questions/role", nil, headers,
		map[string]string{"id": eventID, "qid": "role"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "draft", jamForm())
	headers := map[string]string{"X-Admin-Key": adminKey}
	path := map[string]string{"id": eventID}

	w := serve(handler.PublishEvent, "POST", "/events/"+eventID+"/publish", nil, headers, path)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.PublishEventResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, auth.GenerateShareSlug(eventID, cfg.EventSlugSalt), resp.ShareSlug)
	assert.Equal(t, cfg.BaseURL+"/events/"+resp.ShareSlug, resp.ShareURL)

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM event WHERE id = $1`, eventID).Scan(&status))
	assert.Equal(t, models.StatusOpen, status)

	w = serve(handler.PublishEvent, "POST", "/events/"+eventID+"/publish", nil, headers, path)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConcludeEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	c := newMemCache()
	handler := NewEventHandler(db, cfg, c)

	eventID, adminKey, slug := testutil.CreateTestEvent(t, db, cfg, "open", nil)
	leader, _ := testutil.CreateTestRegistration(t, db, eventID, "Lead", nil)
	teamID, _ := testutil.CreateTestTeam(t, db, eventID, "Team One", leader)
	submissionID := testutil.CreateTestSubmission(t, db, eventID, teamID, "Neko Quest")
	judge := testutil.CreateTestJudge(t, db, eventID, "Judy")
	testutil.SubmitTestScores(t, db, eventID, judge, map[string]float64{submissionID: 0.9})
	c.Set(t.Context(), cache.EventKey(slug), []byte(`{}`))

	headers := map[string]string{"X-Admin-Key": adminKey}
	path := map[string]string{"id": eventID}

	w := serve(handler.ConcludeEvent, "POST", "/events/"+eventID+"/conclude", nil, headers, path)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ConcludeEventResponse
	testutil.AssertJSON(t, w, &resp)
	require.Len(t, resp.Snapshot.Rankings, 1)
	assert.Equal(t, submissionID, resp.Snapshot.Rankings[0].SubmissionID)
	assert.InDelta(t, 0.8, resp.Snapshot.Rankings[0].Median, 1e-9)
	assert.Equal(t, models.MethodBMJ, resp.Snapshot.Method)

	var status string
	var snapshotID *string
	require.NoError(t, db.QueryRow(`SELECT status, final_snapshot_id FROM event WHERE id = $1`, eventID).
		Scan(&status, &snapshotID))
	assert.Equal(t, models.StatusConcluded, status)
	require.NotNil(t, snapshotID)
	assert.Equal(t, resp.Snapshot.ID, *snapshotID)
	assert.False(t, c.has(cache.EventKey(slug)))

	w = serve(handler.ConcludeEvent, "POST", "/events/"+eventID+"/conclude", nil, headers, path)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListRegistrations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "open", jamForm())
	alice, _ := testutil.CreateTestRegistration(t, db, eventID, "Alice", form.Response{"role": form.String("art")})
	testutil.CreateTestRegistration(t, db, eventID, "Bob", nil)
	teamID, _ := testutil.CreateTestTeam(t, db, eventID, "Cats", alice)

	w := serve(handler.ListRegistrations, "GET", "/events/"+eventID+"/registrations", nil,
		map[string]string{"X-Admin-Key": adminKey}, map[string]string{"id": eventID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var regs []models.Registration
	testutil.AssertJSON(t, w, &regs)
	require.Len(t, regs, 2)

	byName := map[string]models.Registration{}
	for _, r := range regs {
		byName[r.DisplayName] = r
	}
	assert.Equal(t, "art", byName["Alice"].Response["role"].Str())
	require.NotNil(t, byName["Alice"].TeamID)
	assert.Equal(t, teamID, *byName["Alice"].TeamID)
	assert.Nil(t, byName["Bob"].TeamID)
}

func TestAddJudge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewEventHandler(db, cfg, cache.Noop{})

	eventID, adminKey, _ := testutil.CreateTestEvent(t, db, cfg, "open", nil)
	headers := map[string]string{"X-Admin-Key": adminKey}
	path := map[string]string{"id": eventID}

	w := serve(handler.AddJudge, "POST", "/events/"+eventID+"/judges", models.AddJudgeRequest{Name: "Judy"}, headers, path)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AddJudgeResponse
	testutil.AssertJSON(t, w, &resp)
	assert.NoError(t, auth.ValidateTokenFormat(resp.JudgeToken))

	w = serve(handler.AddJudge, "POST", "/events/"+eventID+"/judges", models.AddJudgeRequest{Name: "Judy"}, headers, path)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(handler.AddJudge, "POST", "/events/"+eventID+"/judges", models.AddJudgeRequest{Name: "J"}, headers, path)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
