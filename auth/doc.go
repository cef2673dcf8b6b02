// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth derives and checks the secrets a poll hands out.

Every derived value is an HMAC-SHA256 over a purpose label and its inputs,
so an admin key, a share slug and an IP fingerprint never collide even when
the same salt is configured for all three.

# Admin Keys

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

Keys are unpadded URL-safe base64 and are not stored; they are recomputed
on each admin request.

# Voter Tokens

	token, err := auth.GenerateVoterToken()
	err = auth.CheckVoterToken(token) // ErrInvalidToken if malformed

Tokens carry 192 random bits and authenticate ballot submissions.

# Share Slugs

	slug := auth.GenerateShareSlug(pollID, salt)

Slugs are base62, at most 11 characters.

# IP Fingerprints

	hash := auth.HashIP(pollID, ip, salt)

Fingerprints are scoped to one poll and stored with each ballot.
*/
package auth
