// Package reminder decides when to surface the evening "you haven't practiced
// today" nudge. The nudge is shown at most once per calendar day.
package reminder

import (
	"context"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/streak"
)

const (
	// KeyPrefix is followed by the day's date key.
	KeyPrefix = "ksebe_practice_reminder_shown:"
	// DefaultHour is the local hour from which the reminder may show.
	DefaultHour = 18

	shownValue = "true"
)

// FlagKey returns the store key of day's reminder flag.
func FlagKey(day datekey.Key) string {
	return KeyPrefix + string(day)
}

// ShouldShow is the pure decision: the local hour of now is at least hour, the
// user has not practiced today and the reminder has not been shown today.
func ShouldShow(now time.Time, stats streak.Stats, shownToday bool, hour int) bool {
	return now.Hour() >= hour && !stats.HasToday && !shownToday
}

// Flags stores per-day "reminder shown" markers.
type Flags struct {
	store repository.KVStore
	hour  int
	log   *logger.Logger
}

// NewFlags returns Flags on store. hour is a local hour from 0 to 23; anything
// outside that range selects DefaultHour.
func NewFlags(store repository.KVStore, hour int, log *logger.Logger) *Flags {
	if hour < 0 || hour > 23 {
		hour = DefaultHour
	}
	if log == nil {
		log = logger.Default()
	}
	return &Flags{store: store, hour: hour, log: log.WithPrefix("reminder")}
}

// Hour returns the configured reminder hour.
func (f *Flags) Hour() int { return f.hour }

// Shown reports whether the reminder for day was already surfaced. A store
// error reads as not shown.
func (f *Flags) Shown(ctx context.Context, day datekey.Key) bool {
	v, ok, err := f.store.Get(ctx, FlagKey(day))
	if err != nil {
		f.log.Warn("read reminder flag for %s: %v", day, err)
		return false
	}
	return ok && v == shownValue
}

// Check applies ShouldShow for the day of stats.
func (f *Flags) Check(ctx context.Context, now time.Time, stats streak.Stats) bool {
	if !ShouldShow(now, stats, false, f.hour) {
		return false
	}
	return !f.Shown(ctx, stats.Today)
}

// MarkShown records that day's reminder was surfaced. A store failure is
// logged; the reminder may then show again later that day.
func (f *Flags) MarkShown(ctx context.Context, day datekey.Key) {
	if err := f.store.Set(ctx, FlagKey(day), shownValue); err != nil {
		f.log.Warn("write reminder flag for %s: %v", day, err)
	}
}

// Clear removes day's flag. Failures are ignored.
func (f *Flags) Clear(ctx context.Context, day datekey.Key) {
	if err := f.store.Remove(ctx, FlagKey(day)); err != nil {
		f.log.Debug("remove reminder flag for %s: %v", day, err)
	}
}
