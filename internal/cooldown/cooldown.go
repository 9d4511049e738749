// Package cooldown computes the wait between an account's greetings.
package cooldown

import (
	"fmt"
	"math"
	"time"
)

// Seconds is the minimum interval between two greetings of one account.
const Seconds uint64 = 24 * 60 * 60

// Remaining returns the seconds left before last+Seconds, or zero.
func Remaining(last *uint64, now time.Time) uint64 {
	if last == nil {
		return 0
	}
	unix := now.Unix()
	if unix < 0 {
		unix = 0
	}
	current := uint64(unix)
	if current >= *last {
		if elapsed := current - *last; elapsed < Seconds {
			return Seconds - elapsed
		}
		return 0
	}
	// Timestamps ahead of the local clock saturate instead of wrapping.
	ahead := *last - current
	if ahead > math.MaxUint64-Seconds {
		return math.MaxUint64
	}
	return ahead + Seconds
}

// Ready reports whether a new greeting is allowed at now.
func Ready(last *uint64, now time.Time) bool {
	return Remaining(last, now) == 0
}

// Format renders seconds as "1h 2m 3s", dropping leading zero units.
func Format(seconds uint64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
