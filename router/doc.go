// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the JamHub API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, cache.Noop{}, metrics.New())

Every API route is wrapped in middleware.WithLogging and middleware.WithMetrics,
with the route pattern as the metrics label.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Event management (admin, requires X-Admin-Key):

	POST   /events                                      - Create event
	GET    /events/{id}/admin                           - Get event details
	PUT    /events/{id}                                 - Update title, summary, limits
	PUT    /events/{id}/form                            - Replace the registration form (draft)
	DELETE /events/{id}/form/questions/{qid}            - Delete a question (draft)
	DELETE /events/{id}/form/questions/{qid}/options/{oid} - Delete an option (draft)
	POST   /events/{id}/publish                         - Open registration
	POST   /events/{id}/conclude                        - Freeze judging and rank
	GET    /events/{id}/registrations                   - List registrations
	POST   /events/{id}/judges                          - Add a judge

Participants (public, uses share slug, X-Participant-Token where noted):

	POST /events/{slug}/registrations                  - Register
	GET  /events/{slug}/registrations/me               - Load own answers (token)
	PUT  /events/{slug}/registrations/me               - Update own answers (token)
	PUT  /events/{slug}/registrations/me/seeking       - Looking for a team (token)
	GET  /events/{slug}/seekers                        - Participants without a team
	POST /events/{slug}/teams                          - Create team (token)
	GET  /events/{slug}/teams                          - List teams
	POST /events/{slug}/teams/join                     - Join by invite code (token)
	POST /events/{slug}/teams/leave                    - Leave team (token)
	POST /events/{slug}/teams/{team_id}/invites        - Invite a participant (leader)
	GET  /events/{slug}/invites/me                     - Pending invites (token)
	POST /events/{slug}/invites/{invite_id}/respond    - Accept or decline (token)
	PUT  /events/{slug}/submission                     - Create or replace team project (token)
	GET  /events/{slug}/submissions                    - List projects

Judging (requires X-Judge-Token):

	POST /events/{slug}/scores    - Score submissions
	GET  /events/{slug}/scores/me - Own scores

Public:

	GET /events/{slug}         - Event page with registration form (cached)
	GET /events/{slug}/results - Final rankings (concluded only)
*/
package router
