// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: postgres or sqlite (default: postgres)
  - AdminKeySalt: Secret for organizer admin key HMAC (required)
  - EventSlugSalt: Secret for share slug generation (required)
  - RedisURL: Redis connection URL for the event cache (optional)
  - CacheTTL: How long public event views stay cached (default: 30s)
  - BaseURL: Public site URL used in share links

# CLI Flags

	-p           Server port
	-d           Database URL
	-t           Database type
	--redis      Redis URL
	--cache-ttl  Event cache TTL
	--base-url   Public base URL
	--admin-salt Admin key salt
	--slug-salt  Event slug salt

# Environment Variables

A .env file in the working directory is loaded first if present. Variables
already set in the environment are not overridden by it.

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	REDIS_URL       → --redis
	CACHE_TTL       → --cache-ttl
	BASE_URL        → --base-url
	ADMIN_KEY_SALT  → --admin-salt
	EVENT_SLUG_SALT → --slug-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - EVENT_SLUG_SALT must be provided
  - PORT and CACHE_TTL must parse
*/
package cliparse
