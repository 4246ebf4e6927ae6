package reset

import (
	"testing"
	"time"
)

// Saturday in a fixed week; weekday index 6.
var saturday = time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"07:05", 7, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"-1:00", 0, 0, true},
		{"12", 0, 0, true},
		{"12:00:00", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		hour, minute, err := ParseTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTime(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTime(%q): %v", tt.in, err)
			continue
		}
		if hour != tt.hour || minute != tt.minute {
			t.Errorf("ParseTime(%q) = %d:%d, want %d:%d", tt.in, hour, minute, tt.hour, tt.minute)
		}
	}
}

func TestShouldTriggerAtResetInstant(t *testing.T) {
	days := []int{6}

	// One minute before midnight Saturday: not yet due.
	before := saturday.Add(-time.Minute)
	if ShouldTrigger(days, "00:00", time.Time{}, before) {
		t.Error("should not trigger before the reset instant (and on the wrong weekday)")
	}

	// Exactly at the instant.
	if !ShouldTrigger(days, "00:00", time.Time{}, saturday) {
		t.Error("should trigger exactly at the reset instant")
	}

	// Hours later the same day, still never reset: due.
	if !ShouldTrigger(days, "00:00", time.Time{}, saturday.Add(14*time.Hour)) {
		t.Error("should trigger later the same day when no reset happened yet")
	}
}

func TestShouldTriggerOncePerDay(t *testing.T) {
	days := []int{6}

	// A reset already ran at today's instant.
	lastReset := saturday
	if ShouldTrigger(days, "00:00", lastReset, saturday.Add(2*time.Hour)) {
		t.Error("must not re-trigger after a reset on the same day")
	}

	// A reset from last week does not block this week.
	lastWeek := saturday.AddDate(0, 0, -7)
	if !ShouldTrigger(days, "00:00", lastWeek, saturday.Add(time.Hour)) {
		t.Error("last week's reset must not block this week's")
	}
}

func TestShouldTriggerWrongWeekday(t *testing.T) {
	sunday := saturday.AddDate(0, 0, 1)
	if ShouldTrigger([]int{6}, "00:00", time.Time{}, sunday) {
		t.Error("must not trigger on a weekday outside the set")
	}
}

func TestShouldTriggerMultipleDays(t *testing.T) {
	days := []int{3, 6} // Wednesday and Saturday
	wednesday := time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)

	if !ShouldTrigger(days, "08:30", time.Time{}, wednesday) {
		t.Error("should trigger on Wednesday after 08:30")
	}

	// Reset ran Wednesday; Saturday is due again.
	if !ShouldTrigger(days, "08:30", wednesday, saturday.Add(9*time.Hour)) {
		t.Error("Saturday should be due after Wednesday's reset")
	}
}

func TestShouldTriggerInvalidTime(t *testing.T) {
	if ShouldTrigger([]int{6}, "25:99", time.Time{}, saturday) {
		t.Error("invalid time must never trigger")
	}
	if ShouldTrigger([]int{6}, "", time.Time{}, saturday) {
		t.Error("empty time must never trigger")
	}
}

func TestShouldTriggerIdempotent(t *testing.T) {
	days := []int{6}
	now := saturday.Add(time.Hour)

	if !ShouldTrigger(days, "00:00", time.Time{}, now) {
		t.Fatal("expected first evaluation to be due")
	}
	// Simulate the reset advancing the stamp to now.
	if ShouldTrigger(days, "00:00", now, now) {
		t.Error("predicate must be false immediately after the stamp advances")
	}
	if ShouldTrigger(days, "00:00", now, now.Add(time.Minute)) {
		t.Error("predicate must stay false for the rest of the day")
	}
}

func TestNext(t *testing.T) {
	// Wednesday noon; next Saturday 00:00 is three days later.
	wednesday := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	next, ok := Next([]int{6}, "00:00", wednesday)
	if !ok {
		t.Fatal("expected a next instant")
	}
	want := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	// At the instant itself, the next one is a week out.
	next, ok = Next([]int{6}, "00:00", want)
	if !ok {
		t.Fatal("expected a next instant")
	}
	if !next.Equal(want.AddDate(0, 0, 7)) {
		t.Errorf("next = %v, want a week later", next)
	}

	if _, ok := Next(nil, "00:00", wednesday); ok {
		t.Error("no days means no next instant")
	}
	if _, ok := Next([]int{6}, "bad", wednesday); ok {
		t.Error("invalid time means no next instant")
	}
}
