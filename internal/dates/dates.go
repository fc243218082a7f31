// Package dates parses loose deadline strings and answers expiry questions
// relative to today. All values are calendar dates at UTC midnight.
package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the canonical wire format for dates.
const Layout = "2006-01-02"

var now = time.Now

// Parse parses a loose date string. It reports false for empty or unparseable input.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(Layout, value); err == nil {
		return t, true
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}

	return Truncate(t), true
}

// Truncate drops the clock part of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date.
func Today() time.Time {
	return Truncate(now())
}

// IsExpired reports whether the deadline lies strictly before today.
func IsExpired(deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	return Truncate(deadline).Before(Today())
}

// IsExpiredString is IsExpired for an unparsed value. Unparseable dates are never expired.
func IsExpiredString(value string) bool {
	t, ok := Parse(value)
	if !ok {
		return false
	}
	return IsExpired(t)
}

// DaysUntil returns whole days from today to the deadline; negative when past.
func DaysUntil(deadline time.Time) int {
	return int(Truncate(deadline).Sub(Today()).Hours() / 24)
}
