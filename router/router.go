// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/jamhub/cache"
	"github.com/danielhkuo/jamhub/cliparse"
	"github.com/danielhkuo/jamhub/handlers"
	"github.com/danielhkuo/jamhub/metrics"
	"github.com/danielhkuo/jamhub/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, c cache.Cache, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// every API route is logged and measured under its pattern
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(m, pattern, h)))
	}

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(db, cfg, c)
	registrationHandler := handlers.NewRegistrationHandler(db, cfg, c)
	teamHandler := handlers.NewTeamHandler(db, cfg)
	submissionHandler := handlers.NewSubmissionHandler(db, cfg)
	judgingHandler := handlers.NewJudgingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg, c, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// Event management (admin operations)
	handle("POST /events", eventHandler.CreateEvent)
	handle("GET /events/{id}/admin", eventHandler.GetEventAdmin)
	handle("PUT /events/{id}", eventHandler.UpdateEvent)
	handle("PUT /events/{id}/form", eventHandler.UpdateForm)
	handle("DELETE /events/{id}/form/questions/{qid}", eventHandler.DeleteQuestion)
	handle("DELETE /events/{id}/form/questions/{qid}/options/{oid}", eventHandler.DeleteOption)
	handle("POST /events/{id}/publish", eventHandler.PublishEvent)
	handle("POST /events/{id}/conclude", eventHandler.ConcludeEvent)
	handle("GET /events/{id}/registrations", eventHandler.ListRegistrations)
	handle("POST /events/{id}/judges", eventHandler.AddJudge)

	// Registration (public, uses share slug)
	handle("POST /events/{slug}/registrations", registrationHandler.Register)
	handle("GET /events/{slug}/registrations/me", registrationHandler.GetMyRegistration)
	handle("PUT /events/{slug}/registrations/me", registrationHandler.UpdateMyRegistration)
	handle("PUT /events/{slug}/registrations/me/seeking", registrationHandler.SetSeeking)
	handle("GET /events/{slug}/seekers", registrationHandler.ListSeekers)

	// Teams
	handle("POST /events/{slug}/teams", teamHandler.CreateTeam)
	handle("GET /events/{slug}/teams", teamHandler.ListTeams)
	handle("POST /events/{slug}/teams/join", teamHandler.JoinTeam)
	handle("POST /events/{slug}/teams/leave", teamHandler.LeaveTeam)
	handle("POST /events/{slug}/teams/{team_id}/invites", teamHandler.InviteMember)
	handle("GET /events/{slug}/invites/me", teamHandler.MyInvites)
	handle("POST /events/{slug}/invites/{invite_id}/respond", teamHandler.RespondInvite)

	// Submissions and judging
	handle("PUT /events/{slug}/submission", submissionHandler.UpsertSubmission)
	handle("GET /events/{slug}/submissions", submissionHandler.ListSubmissions)
	handle("POST /events/{slug}/scores", judgingHandler.SubmitScores)
	handle("GET /events/{slug}/scores/me", judgingHandler.MyScores)

	// Public event page and sealed results
	handle("GET /events/{slug}", resultsHandler.GetEvent)
	handle("GET /events/{slug}/results", resultsHandler.GetResults)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jamhub API v1"))
	})

	return mux
}
