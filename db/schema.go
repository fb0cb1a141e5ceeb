// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/jamhub/cliparse"
)

// Open connects to the configured database and verifies the connection
func Open(cfg cliparse.Config) (*sql.DB, error) {
	driver := "postgres"
	if cfg.DatabaseType == "sqlite" {
		driver = "sqlite"
	}

	dsn := cfg.DatabaseURL
	if driver == "sqlite" {
		dsn = sqliteDSN(dsn)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// one writer at a time
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	return conn, nil
}

// sqliteDSN turns foreign keys on for every connection the pool opens.
// sqlite leaves them off by default and the setting is per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	// sqlite's driver runs one statement per Exec
	for _, stmt := range strings.Split(schema, ";\n") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

const schema = `
-- Events
CREATE TABLE IF NOT EXISTS event (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    organizer_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'concluded')),
    share_slug TEXT UNIQUE,
    team_size_max INTEGER NOT NULL DEFAULT 4,
    registration_closes_at TIMESTAMP,
    concluded_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_event_share_slug ON event(share_slug);
CREATE INDEX IF NOT EXISTS idx_event_status ON event(status);

-- Registrations
CREATE TABLE IF NOT EXISTS registration (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    participant_token TEXT NOT NULL,
    display_name TEXT NOT NULL,
    response TEXT NOT NULL DEFAULT '{}',
    seeking_team BOOLEAN NOT NULL DEFAULT FALSE,
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, participant_token),
    UNIQUE (event_id, display_name)
);

CREATE INDEX IF NOT EXISTS idx_registration_event_id ON registration(event_id);
CREATE INDEX IF NOT EXISTS idx_registration_token ON registration(event_id, participant_token);

-- Teams
CREATE TABLE IF NOT EXISTS team (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    invite_code TEXT NOT NULL,
    leader_id TEXT NOT NULL REFERENCES registration(id),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (event_id, name),
    UNIQUE (event_id, invite_code)
);

CREATE INDEX IF NOT EXISTS idx_team_event_id ON team(event_id);

-- Team members, one team per registration
CREATE TABLE IF NOT EXISTS team_member (
    team_id TEXT NOT NULL REFERENCES team(id) ON DELETE CASCADE,
    registration_id TEXT NOT NULL UNIQUE REFERENCES registration(id) ON DELETE CASCADE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (team_id, registration_id)
);

CREATE INDEX IF NOT EXISTS idx_team_member_team_id ON team_member(team_id);

-- Team invites
CREATE TABLE IF NOT EXISTS team_invite (
    id TEXT PRIMARY KEY,
    team_id TEXT NOT NULL REFERENCES team(id) ON DELETE CASCADE,
    registration_id TEXT NOT NULL REFERENCES registration(id) ON DELETE CASCADE,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'declined')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    responded_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_team_invite_registration ON team_invite(registration_id, status);

-- Submissions, one per team
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    team_id TEXT NOT NULL UNIQUE REFERENCES team(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    link TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submission_event_id ON submission(event_id);

-- Judges
CREATE TABLE IF NOT EXISTS judge (
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    judge_token TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (event_id, judge_token),
    UNIQUE (event_id, name)
);

-- Judge scores (0-1 per submission)
CREATE TABLE IF NOT EXISTS judge_score (
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    judge_token TEXT NOT NULL,
    submission_id TEXT NOT NULL REFERENCES submission(id) ON DELETE CASCADE,
    value01 REAL NOT NULL CHECK (value01 >= 0 AND value01 <= 1),
    scored_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (judge_token, submission_id)
);

CREATE INDEX IF NOT EXISTS idx_judge_score_submission_id ON judge_score(submission_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(id) ON DELETE CASCADE,
    method TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_event_id ON result_snapshot(event_id);
`
