// Package canonical derives the content-addressed identity of an event.
//
// Two records describing the same event (same name, start instant and country)
// always produce the same hash, so ingestion can upsert by hash and replays
// converge on a single row. Matching is exact: "Bear Week" and "Bearweek" are
// distinct events.
package canonical

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"time"
)

// InstantLayout is ISO-8601 in UTC with millisecond precision
const InstantLayout = "2006-01-02T15:04:05.000Z"

const day = 24 * time.Hour

// FormatInstant formats t as used in the identity triple
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// Hash returns the hex SHA-1 of "name-startsAt-country".
// The delimiter and instant format are part of the persisted identity and must not change.
func Hash(name string, startsAt time.Time, country string) string {
	sum := sha1.Sum([]byte(name + "-" + FormatInstant(startsAt) + "-" + country))
	return hex.EncodeToString(sum[:])
}

// DurationDays returns the number of days spanned, rounded up, never less than 1
func DurationDays(startsAt, endsAt time.Time) int {
	days := int(math.Ceil(float64(endsAt.Sub(startsAt)) / float64(day)))
	return max(1, days)
}
