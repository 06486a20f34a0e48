package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/jobs"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/recap"
	"github.com/ksebe/streakd/internal/streak"
	"github.com/ksebe/streakd/internal/worker"
)

// ReminderStatus is the reminder decision for a user at a given instant.
type ReminderStatus struct {
	Today      datekey.Key `json:"today"`
	Show       bool        `json:"show"`
	Hour       int         `json:"hour"`
	HasToday   bool        `json:"hasToday"`
	ShownToday bool        `json:"shownToday"`
}

// StreakService handles practice logging and everything derived from it
type StreakService interface {
	Days(ctx context.Context, userID string) ([]datekey.Key, error)
	// LogDay records day for userID. An empty day means today.
	LogDay(ctx context.Context, userID, day string) ([]datekey.Key, error)
	Stats(ctx context.Context, userID string) (streak.Stats, error)
	Recap(ctx context.Context, userID string, minutesPerPractice int) (recap.Summary, error)
	Reminder(ctx context.Context, userID string) (ReminderStatus, error)
	MarkReminderShown(ctx context.Context, userID string) (ReminderStatus, error)
	RequestSync(ctx context.Context, userID string) error
}

// EventLogger records analytics events. Failures are the logger's concern.
type EventLogger interface {
	LogEvent(ctx context.Context, userID, name string, props map[string]any)
}

type streakService struct {
	users  *Registry
	queue  jobs.JobQueue
	events EventLogger
	now    func() time.Time
	loc    *time.Location
}

// StreakOption configures a StreakService.
type StreakOption func(*streakService)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) StreakOption {
	return func(s *streakService) { s.now = now }
}

// WithLocation sets the zone in which calendar days are read. Defaults to
// time.Local.
func WithLocation(loc *time.Location) StreakOption {
	return func(s *streakService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithEventLogger records practice and reminder events.
func WithEventLogger(events EventLogger) StreakOption {
	return func(s *streakService) { s.events = events }
}

// NewStreakService creates a new StreakService. queue may be nil, in which
// case logged days are kept locally only and RequestSync is unavailable.
func NewStreakService(users *Registry, queue jobs.JobQueue, opts ...StreakOption) StreakService {
	s := &streakService{
		users: users,
		queue: queue,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if queue != nil {
		users.Watch(s.enqueuePushes)
	}
	return s
}

func (s *streakService) localNow() time.Time {
	return s.now().In(s.loc)
}

func (s *streakService) enqueuePushes(ctx context.Context, userID string, added []datekey.Key) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"user_id": userID})
	for _, day := range added {
		if err := s.queue.EnqueuePush(ctx, userID, day); err != nil {
			// The day stays in the local log; the next sync uploads it.
			log.Warn("could not queue push for %s: %v", day, err)
		}
	}
}

func (s *streakService) Days(ctx context.Context, userID string) ([]datekey.Key, error) {
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Log.Read(ctx), nil
}

func (s *streakService) LogDay(ctx context.Context, userID, day string) ([]datekey.Key, error) {
	log := logger.FromContext(ctx)

	u, err := s.users.For(ctx, userID)
	if err != nil {
		return nil, err
	}

	var key datekey.Key
	if day == "" {
		key = datekey.FromTime(s.localNow())
	} else {
		key, err = datekey.Parse(day)
		if err != nil {
			return nil, errors.WrapValidationError("day", err)
		}
	}

	log.Debug("logging practice: user_id=%s, day=%s", userID, key)
	days := u.Log.LogDay(ctx, key)
	if s.events != nil {
		s.events.LogEvent(ctx, userID, models.EventPracticeCompleted, map[string]any{"day": string(key)})
	}
	return days, nil
}

func (s *streakService) Stats(ctx context.Context, userID string) (streak.Stats, error) {
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return streak.Stats{}, err
	}
	return streak.Compute(u.Log.Read(ctx), s.localNow()), nil
}

func (s *streakService) Recap(ctx context.Context, userID string, minutesPerPractice int) (recap.Summary, error) {
	if minutesPerPractice < 0 {
		return recap.Summary{}, errors.NewValidationError("minutes", "cannot be negative")
	}
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return recap.Summary{}, err
	}
	return recap.Summarize(u.Log.Read(ctx), s.localNow(), minutesPerPractice), nil
}

func (s *streakService) Reminder(ctx context.Context, userID string) (ReminderStatus, error) {
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return ReminderStatus{}, err
	}
	now := s.localNow()
	stats := streak.Compute(u.Log.Read(ctx), now)
	shown := u.Flags.Shown(ctx, stats.Today)
	return ReminderStatus{
		Today:      stats.Today,
		Show:       u.Flags.Check(ctx, now, stats),
		Hour:       u.Flags.Hour(),
		HasToday:   stats.HasToday,
		ShownToday: shown,
	}, nil
}

func (s *streakService) MarkReminderShown(ctx context.Context, userID string) (ReminderStatus, error) {
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return ReminderStatus{}, err
	}
	today := datekey.FromTime(s.localNow())
	u.Flags.MarkShown(ctx, today)
	if s.events != nil {
		s.events.LogEvent(ctx, userID, models.EventReminderShown, map[string]any{"day": string(today)})
	}
	return s.Reminder(ctx, userID)
}

func (s *streakService) RequestSync(ctx context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	if s.queue == nil {
		return errors.NewUnavailableError("sync is not configured", nil)
	}
	if err := s.queue.EnqueueSync(ctx, userID); err != nil {
		if stderrors.Is(err, worker.ErrQueueFull) || stderrors.Is(err, worker.ErrPoolStopped) {
			return errors.NewUnavailableError("sync queue is busy, try again later", err)
		}
		return errors.NewInternalError(err)
	}
	logger.FromContext(ctx).Info("sync queued: user_id=%s", userID)
	return nil
}
