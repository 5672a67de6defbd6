package domain

import (
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Activity is a planned activity with a one-time start reminder.
type Activity struct {
	ID           string
	Name         string
	StartsAt     time.Time
	Creator      string
	Participants []string
}

// Recipients returns creator and participants, without blanks or duplicates.
func (a Activity) Recipients() []string {
	all := append([]string{a.Creator}, a.Participants...)
	all = lo.Map(all, func(u string, _ int) string { return strings.TrimSpace(u) })
	return lo.Uniq(lo.Compact(all))
}

// Note is a personal note with a one-time reminder for its owner.
type Note struct {
	ID      string
	Owner   string
	DueAt   time.Time
	Comment string
}

// MinutesUntil returns the whole minutes left until t, rounded up and clamped to zero.
func MinutesUntil(t, now time.Time) int {
	left := t.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}
