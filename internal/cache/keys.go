package cache

import (
	"fmt"
	"net/url"

	"csa/internal/domain"
	"csa/internal/query"
)

// Station labels are escaped so a ':' inside a label cannot collide
// with the key separator.
func KeyJourney(fingerprint, origin, destination, departure string) string {
	return fmt.Sprintf("journey:%s:%s:%s:%s",
		shortFingerprint(fingerprint),
		url.QueryEscape(origin),
		url.QueryEscape(destination),
		departure,
	)
}

// KeyForQuery keys q by its parsed departure, so "6:00" and "06:00" share
// an entry. It reports false when the departure is not a clock time; such
// queries are not cached.
func KeyForQuery(fingerprint string, q query.Query) (string, bool) {
	dep, err := domain.ParseTime(q.Departure)
	if err != nil || !dep.Reached() {
		return "", false
	}
	return KeyJourney(fingerprint, q.Origin, q.Destination, domain.FormatTime(dep)), true
}

func PatternJourneys(fingerprint string) string {
	return fmt.Sprintf("journey:%s:*", shortFingerprint(fingerprint))
}

func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}
