package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	apperrors "github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/reminder"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/services"
	"github.com/ksebe/streakd/internal/testutil"
	"github.com/ksebe/streakd/internal/testutil/mocks"
	"github.com/ksebe/streakd/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var msk = time.FixedZone("MSK", 3*60*60)

type recordedEvent struct {
	userID string
	name   string
	props  map[string]any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) LogEvent(_ context.Context, userID, name string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{userID: userID, name: name, props: props})
}

type StreakServiceSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *testutil.Clock
	store  *repository.MemoryStore
	users  *services.Registry
	queue  *mocks.MockJobQueue
	events *recordingEvents
	svc    services.StreakService
}

func (s *StreakServiceSuite) SetupTest() {
	logger.SetDefault(logger.Discard())
	s.ctx = context.Background()
	// 19:00 in Moscow.
	s.clock = &testutil.Clock{T: time.Date(2025, 12, 27, 16, 0, 0, 0, time.UTC)}
	s.store = repository.NewMemoryStore()
	s.users = services.NewRegistry(s.store, 18)
	s.queue = new(mocks.MockJobQueue)
	s.events = &recordingEvents{}
	s.svc = services.NewStreakService(s.users, s.queue,
		services.WithClock(s.clock.Now),
		services.WithLocation(msk),
		services.WithEventLogger(s.events),
	)
}

func (s *StreakServiceSuite) TearDownTest() {
	s.users.Close()
	s.queue.AssertExpectations(s.T())
}

func (s *StreakServiceSuite) expectPush(userID string, day datekey.Key) {
	s.queue.On("EnqueuePush", mock.Anything, userID, day).Return(nil).Once()
}

func (s *StreakServiceSuite) TestLogDay_DefaultsToToday() {
	s.expectPush("u1", "2025-12-27")

	days, err := s.svc.LogDay(s.ctx, "u1", "")

	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-27"}, days)
	s.Require().Len(s.events.events, 1)
	s.Assert().Equal(models.EventPracticeCompleted, s.events.events[0].name)
	s.Assert().Equal("2025-12-27", s.events.events[0].props["day"])
}

func (s *StreakServiceSuite) TestLogDay_TodayFollowsLocation() {
	// 22:30 UTC is already the next day in Moscow.
	s.clock.T = time.Date(2025, 12, 27, 22, 30, 0, 0, time.UTC)
	s.expectPush("u1", "2025-12-28")

	days, err := s.svc.LogDay(s.ctx, "u1", "")

	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-28"}, days)
}

func (s *StreakServiceSuite) TestLogDay_PushesOnlyNewDays() {
	s.expectPush("u1", "2025-12-26")
	s.expectPush("u1", "2025-12-27")

	_, err := s.svc.LogDay(s.ctx, "u1", "2025-12-26")
	s.Require().NoError(err)
	_, err = s.svc.LogDay(s.ctx, "u1", "2025-12-27")
	s.Require().NoError(err)
	days, err := s.svc.LogDay(s.ctx, "u1", "2025-12-27")
	s.Require().NoError(err)

	s.Assert().Equal([]datekey.Key{"2025-12-26", "2025-12-27"}, days)
}

func (s *StreakServiceSuite) TestLogDay_QueueFailureKeepsDay() {
	s.queue.On("EnqueuePush", mock.Anything, "u1", datekey.Key("2025-12-27")).Return(worker.ErrQueueFull).Once()

	days, err := s.svc.LogDay(s.ctx, "u1", "2025-12-27")

	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-27"}, days)
}

func (s *StreakServiceSuite) TestLogDay_RejectsMalformedDay() {
	for _, raw := range []string{"2025-13-01", "27.12.2025", "2025-02-29", "yesterday"} {
		_, err := s.svc.LogDay(s.ctx, "u1", raw)

		var appErr *apperrors.AppError
		s.Require().ErrorAs(err, &appErr, raw)
		s.Assert().Equal(apperrors.ErrCodeValidation, appErr.Code)
		s.Assert().Equal(400, appErr.Status)
		s.Assert().ErrorIs(err, datekey.ErrInvalid)
	}
	days, err := s.svc.Days(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().Empty(days)
}

func (s *StreakServiceSuite) TestRejectsBadUserID() {
	for _, id := range []string{"", "a:b", "with space", string(make([]byte, 200))} {
		_, err := s.svc.Days(s.ctx, id)

		var appErr *apperrors.AppError
		s.Require().ErrorAs(err, &appErr)
		s.Assert().Equal(apperrors.ErrCodeValidation, appErr.Code)
	}
}

func (s *StreakServiceSuite) TestUsersAreIsolated() {
	s.expectPush("u1", "2025-12-27")
	_, err := s.svc.LogDay(s.ctx, "u1", "2025-12-27")
	s.Require().NoError(err)

	days, err := s.svc.Days(s.ctx, "u2")
	s.Require().NoError(err)
	s.Assert().Empty(days)

	_, ok, err := s.store.Get(s.ctx, repository.UserNamespace("u1")+"ksebe_practice_completions")
	s.Require().NoError(err)
	s.Assert().True(ok)
}

func (s *StreakServiceSuite) TestStats() {
	s.expectPush("u1", "2025-12-25")
	s.expectPush("u1", "2025-12-26")
	for _, d := range []string{"2025-12-25", "2025-12-26"} {
		_, err := s.svc.LogDay(s.ctx, "u1", d)
		s.Require().NoError(err)
	}

	stats, err := s.svc.Stats(s.ctx, "u1")

	s.Require().NoError(err)
	s.Assert().Equal(datekey.Key("2025-12-27"), stats.Today)
	s.Assert().False(stats.HasToday)
	s.Assert().Equal(2, stats.CurrentStreak)
	s.Assert().Equal(2, stats.LongestStreak)
	s.Require().NotNil(stats.LastDay)
	s.Assert().Equal(datekey.Key("2025-12-26"), *stats.LastDay)
}

func (s *StreakServiceSuite) TestRecap() {
	s.queue.On("EnqueuePush", mock.Anything, "u1", mock.Anything).Return(nil)
	for _, d := range []string{"2025-12-20", "2025-12-22", "2025-12-24", "2025-12-27"} {
		_, err := s.svc.LogDay(s.ctx, "u1", d)
		s.Require().NoError(err)
	}

	summary, err := s.svc.Recap(s.ctx, "u1", 20)

	s.Require().NoError(err)
	s.Assert().Equal(3, summary.Count)
	s.Require().NotNil(summary.EstimatedMinutes)
	s.Assert().Equal(60, *summary.EstimatedMinutes)
	s.Assert().Equal(datekey.Key("2025-12-22"), summary.Window.Start)

	_, err = s.svc.Recap(s.ctx, "u1", -5)
	s.Assert().Error(err)
}

func (s *StreakServiceSuite) TestReminderFlow() {
	st, err := s.svc.Reminder(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().True(st.Show)
	s.Assert().Equal(18, st.Hour)

	st, err = s.svc.MarkReminderShown(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().False(st.Show)
	s.Assert().True(st.ShownToday)
	s.Require().Len(s.events.events, 1)
	s.Assert().Equal(models.EventReminderShown, s.events.events[0].name)

	// Next evening the flag of the previous day no longer applies.
	s.clock.Advance(24 * time.Hour)
	st, err = s.svc.Reminder(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().True(st.Show)
	s.Assert().False(st.ShownToday)
}

func (s *StreakServiceSuite) TestReminder_NotBeforeHourOrAfterPractice() {
	s.clock.T = time.Date(2025, 12, 27, 14, 59, 0, 0, time.UTC)
	st, err := s.svc.Reminder(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().False(st.Show, "17:59 local is too early")

	s.clock.T = time.Date(2025, 12, 27, 15, 0, 0, 0, time.UTC)
	s.expectPush("u1", "2025-12-27")
	_, err = s.svc.LogDay(s.ctx, "u1", "")
	s.Require().NoError(err)

	st, err = s.svc.Reminder(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().True(st.HasToday)
	s.Assert().False(st.Show)
}

func (s *StreakServiceSuite) TestRequestSync() {
	s.queue.On("EnqueueSync", mock.Anything, "u1").Return(nil).Once()
	s.Require().NoError(s.svc.RequestSync(s.ctx, "u1"))

	s.queue.On("EnqueueSync", mock.Anything, "u2").Return(worker.ErrQueueFull).Once()
	err := s.svc.RequestSync(s.ctx, "u2")

	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Assert().Equal(apperrors.ErrCodeUnavailable, appErr.Code)
	s.Assert().Equal(503, appErr.Status)
}

func TestStreakServiceSuite(t *testing.T) {
	suite.Run(t, new(StreakServiceSuite))
}

func TestStreakService_WithoutQueue(t *testing.T) {
	logger.SetDefault(logger.Discard())
	users := services.NewRegistry(repository.NewMemoryStore(), reminder.DefaultHour)
	svc := services.NewStreakService(users, nil)

	days, err := svc.LogDay(context.Background(), "u1", "2025-12-27")
	require.NoError(t, err)
	assert.Equal(t, []datekey.Key{"2025-12-27"}, days)

	err = svc.RequestSync(context.Background(), "u1")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeUnavailable, appErr.Code)
}
