// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the JamHub API server.

JamHub runs game jams: organizers publish an event with a configurable
registration form, participants register and form teams, teams submit their
projects, and judges score them on a 0..1 slider. Concluding an event ranks
the submissions with Balanced Majority Judgment (BMJ).

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run .

Or with flags, here against a local sqlite file:

	go run . -p 3318 -t sqlite -d jamhub.db

A .env file in the working directory is loaded when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or sqlite path
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - EVENT_SLUG_SALT (--slug-salt): Secret for share slug generation

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres (default) or sqlite
  - REDIS_URL (--redis): Redis cache for public event pages
  - CACHE_TTL (--cache-ttl): Event cache entry lifetime (default: 30s)
  - BASE_URL (--base-url): Public URL used in share links

# Architecture

The server uses a handler-based architecture with dependency injection:

  - form: Registration form rules (visibility, validation, persistence)
  - handlers: HTTP request handlers (events, registrations, teams, submissions, judging, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, validation, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - cache: Redis-backed event page cache
  - metrics: Prometheus collectors
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
