// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON. Each carries validate tags checked by
middleware.Validate:

  - CreateEventRequest / UpdateEventRequest: title, summary, team size, deadline
  - UpdateFormRequest: registration form questions
  - RegisterRequest / UpdateRegistrationRequest: answers and other texts
  - SeekingRequest: looking-for-team flag
  - CreateTeamRequest, JoinTeamRequest, InviteRequest, RespondInviteRequest
  - SubmissionRequest: project title, description, link
  - AddJudgeRequest, SubmitScoresRequest (map[string]float64)

# Response Types

  - CreateEventResponse: event_id, admin_key
  - PublishEventResponse: share_slug, share_url
  - RegisterResponse: registration_id, participant_token
  - MyRegistrationResponse: answers rebuilt for editing
  - CreateTeamResponse: team_id, invite_code
  - AddJudgeResponse: judge_token
  - ConcludeEventResponse: concluded_at, snapshot
  - ErrorResponse: error, message, fields (question id → message)

# Domain Types

  - Event / EventView: event metadata, parsed summary and form
  - Registration, Seeker
  - Team, TeamMember, Invite
  - Submission
  - SubmissionStats, ResultSnapshot: judged BMJ rankings

# Constants

Status values:

	StatusDraft     = "draft"
	StatusOpen      = "open"
	StatusConcluded = "concluded"

Ranking method:

	MethodBMJ = "bmj"

Invite status:

	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
*/
package models
