// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

// voterTokenBytes is the entropy of a voter token (192 bits)
const voterTokenBytes = 24

// Purpose labels keep MACs for different uses distinct even when salts are shared.
const (
	purposeAdmin = "admin"
	purposeSlug  = "slug"
	purposeIP    = "ip"
)

var b64 = base64.RawURLEncoding

// mac computes HMAC-SHA256 over purpose and parts, NUL separated.
func mac(salt, purpose string, parts ...string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(purpose))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return h.Sum(nil)
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey derives the admin key for a poll. Keys are never stored;
// they are recomputed from the poll ID on every admin request.
func GenerateAdminKey(pollID, salt string) string {
	return b64.EncodeToString(mac(salt, purposeAdmin, pollID))
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrInvalidAdminKey
	}
	if !hmac.Equal([]byte(adminKey), []byte(GenerateAdminKey(pollID, salt))) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateVoterToken creates a random bearer token for a voter
func GenerateVoterToken() (string, error) {
	b := make([]byte, voterTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return b64.EncodeToString(b), nil
}

// CheckVoterToken rejects tokens that GenerateVoterToken could not have
// produced, so malformed headers never reach the database.
func CheckVoterToken(token string) error {
	b, err := b64.DecodeString(token)
	if err != nil || len(b) != voterTokenBytes {
		return ErrInvalidToken
	}
	return nil
}

// GenerateShareSlug creates a short, deterministic base62 slug for a poll
func GenerateShareSlug(pollID, salt string) string {
	sum := mac(salt, purposeSlug, pollID)
	var n uint64
	for _, c := range sum[:8] {
		n = n<<8 | uint64(c)
	}
	return base62(n)
}

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// base62 encodes n using 0-9, a-z, A-Z
func base62(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [11]byte // ceil(64 / log2(62))
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

// HashIP returns a 16 hex char fingerprint of ip scoped to one poll, so the
// same address cannot be linked across polls.
func HashIP(pollID, ip, salt string) string {
	return hex.EncodeToString(mac(salt, purposeIP, pollID, ip)[:8])
}
