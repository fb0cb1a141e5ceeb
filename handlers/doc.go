// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the JamHub API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - EventHandler: Event lifecycle and registration form editing
  - RegistrationHandler: Registering, editing answers, looking for a team
  - TeamHandler: Teams, invite codes and invites
  - SubmissionHandler: Team projects
  - JudgingHandler: Judge scores
  - ResultsHandler: Public event page and final rankings

Handlers are created via constructor functions that accept *sql.DB and Config,
plus the event cache and metrics where they use them:

	eventHandler := handlers.NewEventHandler(db, cfg, c)

# Event Lifecycle

Events progress through three states: draft → open → concluded

	POST /events                → CreateEvent (returns admin_key)
	PUT  /events/{id}/form      → UpdateForm (draft only)
	POST /events/{id}/publish   → PublishEvent (generates share_slug)
	POST /events/{id}/conclude  → ConcludeEvent (computes BMJ results)

Admin operations require the X-Admin-Key header.

# Registration

The form lives in the event description (see package form). Registering
validates only the questions the answers make visible, drops hidden answers,
and stores the free text of an "other" choice in place of the sentinel.

	POST /events/{slug}/registrations    → Register (returns participant_token)
	GET  /events/{slug}/registrations/me → GetMyRegistration

Participant operations require the X-Participant-Token header. Invalid
answers come back as 422 with a per-question fields map.

# BMJ Algorithm

The Balanced Majority Judgment algorithm is implemented in bmj.go:

	rankings, inputsHash, err := ComputeBMJRankings(db, eventID)

This computes median, P10, P90, mean, negative share, and veto status
for each submission, then ranks them lexicographically.

# Databases

Handlers write portable SQL for both postgres and sqlite. The sqlite pool
has a single connection, so no handler queries through the pool while it
holds a transaction or open rows.
*/
package handlers
