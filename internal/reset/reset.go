// Package reset decides when the recurring weekly un-check of all lists is
// due and drives it on a polling loop.
package reset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTime parses a reset time in strict HH:MM form. Hour must be in
// [0,23] and minute in [0,59].
func ParseTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid reset time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid reset hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reset minute %q", parts[1])
	}
	return hour, minute, nil
}

// ShouldTrigger reports whether a reset is due at now. It is pure and fires
// at most once per qualifying day: an unparsable time or a weekday outside
// days is never due, and once a reset advances lastReset past today's reset
// instant the predicate stays false until the next qualifying instant.
func ShouldTrigger(days []int, resetTime string, lastReset, now time.Time) bool {
	hour, minute, err := ParseTime(resetTime)
	if err != nil {
		return false
	}

	weekday := int(now.Weekday())
	inDays := false
	for _, d := range days {
		if d == weekday {
			inDays = true
			break
		}
	}
	if !inDays {
		return false
	}

	instant := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return !now.Before(instant) && lastReset.Before(instant)
}

// Next returns the first reset instant strictly after now, for display
// purposes. ok is false when the time string is invalid or days is empty.
func Next(days []int, resetTime string, now time.Time) (next time.Time, ok bool) {
	hour, minute, err := ParseTime(resetTime)
	if err != nil || len(days) == 0 {
		return time.Time{}, false
	}

	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		weekday := int(day.Weekday())
		for _, d := range days {
			if d != weekday {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
			if candidate.After(now) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}
