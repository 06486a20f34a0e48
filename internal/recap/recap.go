// Package recap summarizes practice within the current Monday-to-Sunday week.
package recap

import (
	"fmt"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/streak"
)

// Window is an inclusive range of days.
type Window struct {
	Start datekey.Key `json:"start"`
	End   datekey.Key `json:"end"`
}

// Contains reports whether k lies inside w, bounds included.
func (w Window) Contains(k datekey.Key) bool {
	return !k.Before(w.Start) && !w.End.Before(k)
}

// WeekWindow returns the Monday-to-Sunday week containing now, in now's
// location. Monday always starts the week regardless of locale.
func WeekWindow(now time.Time) Window {
	today := datekey.FromTime(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	start := today.AddDays(-sinceMonday)
	return Window{Start: start, End: start.AddDays(6)}
}

// CountInWeek counts the days of a normalized log that fall in the week of now.
func CountInWeek(days []datekey.Key, now time.Time) int {
	w := WeekWindow(now)
	n := 0
	for _, d := range days {
		if w.Contains(d) {
			n++
		}
	}
	return n
}

var ruShortMonths = [...]string{
	"янв.", "февр.", "мар.", "апр.", "мая", "июн.",
	"июл.", "авг.", "сент.", "окт.", "нояб.", "дек.",
}

// FormatDay renders k the way ru-RU short dates look, e.g. "24 нояб.".
func FormatDay(k datekey.Key) string {
	return fmt.Sprintf("%d %s", k.Day(), ruShortMonths[k.Month()-1])
}

// FormatWeekLabel renders the week of now, e.g. "24 нояб. — 30 нояб.".
func FormatWeekLabel(now time.Time) string {
	w := WeekWindow(now)
	return FormatDay(w.Start) + " — " + FormatDay(w.End)
}

// Summary is the weekly recap card.
type Summary struct {
	Window           Window `json:"window"`
	Label            string `json:"label"`
	Count            int    `json:"count"`
	CurrentStreak    int    `json:"currentStreak"`
	EstimatedMinutes *int   `json:"estimatedMinutes,omitempty"`
	Text             string `json:"text"`
}

// Summarize builds the recap for the week of now. minutesPerPractice comes from
// the user's onboarding answers; zero or less leaves EstimatedMinutes unset.
func Summarize(days []datekey.Key, now time.Time, minutesPerPractice int) Summary {
	normalized := datekey.UniqueSorted(days)
	count := CountInWeek(normalized, now)
	s := Summary{
		Window:        WeekWindow(now),
		Label:         FormatWeekLabel(now),
		Count:         count,
		CurrentStreak: streak.Compute(normalized, now).CurrentStreak,
		Text:          summaryText(count),
	}
	if minutesPerPractice > 0 {
		est := minutesPerPractice * count
		s.EstimatedMinutes = &est
	}
	return s
}

func summaryText(count int) string {
	if count == 0 {
		return "Неделя только началась — выбери практику и отметь её после завершения."
	}
	return fmt.Sprintf("На этой неделе у тебя %d %s.", count, practiceNoun(count))
}

func practiceNoun(n int) string {
	switch {
	case n == 1:
		return "практика"
	case n < 5:
		return "практики"
	default:
		return "практик"
	}
}
