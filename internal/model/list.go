package model

import (
	"sort"
	"time"
)

// Limits applied to user-supplied list and item fields.
const (
	MaxListNameLen = 30
	MaxItemNameLen = 30
	MaxAmountLen   = 15

	// DefaultAmount is used when an item is added or edited with a blank amount.
	DefaultAmount = "1 Stück"
)

type Item struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Checked bool   `json:"checked"`
}

type ShoppingList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers can hand lists across API boundaries
// without aliasing the store's items slice.
func (l ShoppingList) Clone() ShoppingList {
	out := l
	out.Items = make([]Item, len(l.Items))
	copy(out.Items, l.Items)
	return out
}

// AutoResetConfig controls the recurring weekly un-check schedule.
// ResetDays uses time.Weekday indices, 0=Sunday through 6=Saturday.
type AutoResetConfig struct {
	Enabled       bool      `json:"enabled"`
	ResetDays     []int     `json:"resetDays"`
	ResetTime     string    `json:"resetTime"`
	LastResetDate time.Time `json:"lastResetDate"`
}

// DefaultResetDays is Saturday, matching the default schedule.
var DefaultResetDays = []int{6}

const DefaultResetTime = "00:00"

// Normalize sorts the weekday set, drops duplicates and out-of-range indices,
// and falls back to the default single day when nothing valid remains.
func (c *AutoResetConfig) Normalize() {
	var days []int
	seen := make(map[int]bool)
	for _, d := range c.ResetDays {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	if len(days) == 0 {
		days = append([]int(nil), DefaultResetDays...)
	}
	sort.Ints(days)
	c.ResetDays = days
}
