// Package entity contains the core business objects of the project.
package entity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalization rules. These define the uniqueness invariants, so they are
// deliberately explicit:
//
//   - Usernames are NFKD-decomposed, stripped of combining marks (so "José"
//     and "Jose" collide) and lower-cased.
//   - Emails are trimmed and lower-cased in full (local part included), and
//     "+tag" sub-addressing is dropped from the local part, so
//     "Alice+spam@X.com" and "alice@x.com" collide.
//
// Lower-casing the local part and dropping sub-addressing are stricter than
// RFC 5321 allows, but match how every major provider treats addresses.

var markStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeUsername returns the canonical form of a username used for
// uniqueness comparison, distinct from the display value.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if stripped, _, err := transform.String(markStripper, username); err == nil {
		username = stripped
	}

	return strings.ToLower(username)
}

// NormalizeEmail returns the canonical form of an email address used for
// uniqueness comparison.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	local, domain := email[:at], email[at+1:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}

	return local + "@" + domain
}
