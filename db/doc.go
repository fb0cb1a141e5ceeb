// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open picks the driver from the config (lib/pq for postgres, modernc.org/sqlite
for local development) and pings the connection:

	conn, err := db.Open(cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Defaults use CURRENT_TIMESTAMP so the same schema loads on both drivers.

# Tables

  - event: event metadata, description document (summary + registration form), lifecycle state
  - registration: one participant per event, persisted form response
  - team: teams with invite codes and a leader
  - team_member: team membership, one team per registration
  - team_invite: leader invites with pending/accepted/declined status
  - submission: one project per team
  - judge: judges and their tokens
  - judge_score: judge scores (0-1) per submission
  - result_snapshot: immutable ranking computed when the event concludes

# Relationships

	event 1──* registration
	event 1──* team 1──* team_member *──1 registration
	team 1──* team_invite *──1 registration
	team 1──1 submission 1──* judge_score
	event 1──* judge
	event 1──* result_snapshot

Foreign keys to events cascade on delete.
*/
package db
