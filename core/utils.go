package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// AllPresent reports whether none of `vals` is blank.
func AllPresent(vals ...string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// NewID returns a new random entity ID.
func NewID() string {
	return uuid.NewString()
}

// NowUTC returns the current UTC time truncated to the microsecond (postgres precision).
func NowUTC() time.Time {
	return NowFunc().UTC().Truncate(time.Microsecond)
}
