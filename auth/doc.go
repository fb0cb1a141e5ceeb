// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Organizers manage an event with an HMAC-SHA256 admin key:

	adminKey := auth.GenerateAdminKey(eventID, salt)
	err := auth.ValidateAdminKey(eventID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same event ID and salt always produce the same key. This allows validation
without storing the key in the database.

# Participant and Judge Tokens

Participants receive a token when they register, judges when the organizer
adds them. Both are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateToken()

ValidateTokenFormat cheaply rejects malformed header values before any
database lookup.

# Share Slugs

Share slugs create URL-friendly identifiers for published events:

	slug := auth.GenerateShareSlug(eventID, salt)

Slugs are base62 encoded (alphanumeric only) for easy sharing. Like admin keys,
they're deterministic from the event ID and salt.

# Invite Codes

Teams are joined with a short upper-case code:

	code, err := auth.GenerateInviteCode()

# ID Generation

Random hex IDs for events:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

Registrations store a salted hash of the client address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
