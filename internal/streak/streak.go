// Package streak derives practice streak statistics from a practice log.
package streak

import (
	"time"

	"github.com/ksebe/streakd/internal/datekey"
)

// Stats is a transient summary of a practice log as seen at a given instant.
type Stats struct {
	Today    datekey.Key `json:"today"`
	HasToday bool        `json:"hasToday"`
	// CurrentStreak counts consecutive days ending today when today is logged,
	// otherwise ending yesterday.
	CurrentStreak int          `json:"currentStreak"`
	LongestStreak int          `json:"longestStreak"`
	LastDay       *datekey.Key `json:"lastDay,omitempty"`
}

// Compute returns the streak statistics of days as seen at now. now is read in
// its own location, so pass the user's wall-clock time.
func Compute(days []datekey.Key, now time.Time) Stats {
	normalized := datekey.UniqueSorted(days)
	today := datekey.FromTime(now)

	set := make(map[datekey.Key]struct{}, len(normalized))
	for _, d := range normalized {
		set[d] = struct{}{}
	}
	_, hasToday := set[today]

	anchor := today
	if !hasToday {
		anchor = today.AddDays(-1)
	}
	current := 0
	for cursor := anchor; ; cursor = cursor.AddDays(-1) {
		if _, ok := set[cursor]; !ok {
			break
		}
		current++
	}

	longest, run := 0, 0
	for i, day := range normalized {
		if i > 0 && day == normalized[i-1].AddDays(1) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	stats := Stats{
		Today:         today,
		HasToday:      hasToday,
		CurrentStreak: current,
		LongestStreak: longest,
	}
	if n := len(normalized); n > 0 {
		last := normalized[n-1]
		stats.LastDay = &last
	}
	return stats
}

// Append adds day to days and returns the normalized result. days is not
// modified.
func Append(days []datekey.Key, day datekey.Key) []datekey.Key {
	next := make([]datekey.Key, 0, len(days)+1)
	next = append(next, days...)
	next = append(next, day)
	return datekey.UniqueSorted(next)
}
