package services_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/reminder"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/repository/sqlite"
	"github.com/ksebe/streakd/internal/services"
	"github.com/ksebe/streakd/internal/testutil"
	"github.com/ksebe/streakd/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SyncServiceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *sql.DB
	store     *repository.MemoryStore
	users     *services.Registry
	events    repository.PracticeEventRepository
	appEvents repository.AppEventRepository
	svc       services.SyncService
}

func (s *SyncServiceSuite) SetupTest() {
	logger.SetDefault(logger.Discard())
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.store = repository.NewMemoryStore()
	s.users = services.NewRegistry(s.store, reminder.DefaultHour)
	s.events = sqlite.NewPracticeEventRepository(s.db)
	s.appEvents = sqlite.NewAppEventRepository(s.db)
	clock := &testutil.Clock{T: time.Date(2025, 12, 27, 12, 0, 0, 0, time.UTC)}
	s.svc = services.NewSyncService(s.users, s.events, s.appEvents, services.WithSyncClock(clock.Now))
}

func (s *SyncServiceSuite) TearDownTest() {
	s.users.Close()
	testutil.MustClose(s.T(), s.db)
}

func (s *SyncServiceSuite) localLog(userID string, days ...datekey.Key) {
	u, err := s.users.For(s.ctx, userID)
	s.Require().NoError(err)
	u.Log.Write(s.ctx, days)
}

func (s *SyncServiceSuite) TestPushCompletion() {
	s.Require().NoError(s.svc.PushCompletion(s.ctx, "u1", "2025-12-27"))
	s.Require().NoError(s.svc.PushCompletion(s.ctx, "u1", "2025-12-27"))

	days, err := s.events.Days(s.ctx, "u1", models.KindCompletion)
	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-27"}, days)
}

func (s *SyncServiceSuite) TestBootstrap_UploadsMergesAndRunsOnce() {
	start := datekey.MustParse("2025-08-01")
	var local []datekey.Key
	for i := 0; i < 120; i++ {
		local = append(local, start.AddDays(i))
	}
	s.localLog("u1", local...)
	// Logged on another device.
	_, err := s.events.Upsert(s.ctx, []models.PracticeEvent{{UserID: "u1", Day: "2025-12-26", Kind: models.KindCompletion}})
	s.Require().NoError(err)

	res, err := s.svc.Bootstrap(s.ctx, "u1")

	s.Require().NoError(err)
	s.Assert().Equal(120, res.Uploaded)
	s.Assert().Equal(1, res.Pulled)
	s.Assert().Zero(res.Pending)

	u, err := s.users.For(s.ctx, "u1")
	s.Require().NoError(err)
	merged := u.Log.Read(s.ctx)
	s.Assert().Len(merged, 121)
	s.Assert().Equal(datekey.Key("2025-12-26"), merged[len(merged)-1])

	remote, err := s.events.Days(s.ctx, "u1", models.KindCompletion)
	s.Require().NoError(err)
	s.Assert().Len(remote, 121)

	events, err := s.appEvents.List(s.ctx, "u1", 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Assert().Equal(models.EventPracticeMigratedCompletions, events[0].Name)
	s.Assert().EqualValues(120, events[0].Props["count"])

	v, ok, err := s.store.Get(s.ctx, repository.UserNamespace("u1")+services.MigratedKeyPrefix+"u1")
	s.Require().NoError(err)
	s.Assert().True(ok)
	s.Assert().Equal("true", v)

	again, err := s.svc.Bootstrap(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().Zero(again.Uploaded)
	s.Assert().Zero(again.Pulled)
}

func (s *SyncServiceSuite) TestBootstrap_EmptyLocalLogLogsNoEvent() {
	res, err := s.svc.Bootstrap(s.ctx, "u1")

	s.Require().NoError(err)
	s.Assert().Equal(models.SyncResult{}, res)
	events, err := s.appEvents.List(s.ctx, "u1", 10)
	s.Require().NoError(err)
	s.Assert().Empty(events)
}

func (s *SyncServiceSuite) TestBootstrap_PulledDaysAreNotPushedBack() {
	users := services.NewRegistry(repository.NewMemoryStore(), reminder.DefaultHour)
	defer users.Close()
	var reported []datekey.Key
	users.Watch(func(_ context.Context, _ string, added []datekey.Key) { reported = append(reported, added...) })
	svc := services.NewSyncService(users, s.events, s.appEvents)

	_, err := s.events.Upsert(s.ctx, []models.PracticeEvent{{UserID: "u1", Day: "2025-12-20", Kind: models.KindCompletion}})
	s.Require().NoError(err)

	_, err = svc.Bootstrap(s.ctx, "u1")
	s.Require().NoError(err)
	s.Assert().Empty(reported)

	u, err := users.For(s.ctx, "u1")
	s.Require().NoError(err)
	u.Log.LogDay(s.ctx, "2025-12-21")
	s.Assert().Equal([]datekey.Key{"2025-12-21"}, reported)
}

func (s *SyncServiceSuite) TestEvents() {
	s.svc.LogEvent(s.ctx, "u1", models.EventPracticeCompleted, map[string]any{"day": "2025-12-27"})

	events, err := s.svc.Events(s.ctx, "u1", 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Assert().Equal("2025-12-27", events[0].Props["day"])

	_, err = s.svc.Events(s.ctx, "u1", -1)
	s.Assert().Error(err)
	_, err = s.svc.Events(s.ctx, "", 10)
	s.Assert().Error(err)
}

func TestSyncServiceSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceSuite))
}

var errOffline = errors.New("remote offline")

func TestSyncService_FailedPushIsQueuedAndRetried(t *testing.T) {
	logger.SetDefault(logger.Discard())
	ctx := context.Background()
	users := services.NewRegistry(repository.NewMemoryStore(), reminder.DefaultHour)
	events := new(mocks.MockPracticeEventRepository)
	svc := services.NewSyncService(users, events, nil)

	events.On("Upsert", mock.Anything, mock.Anything).Return(0, errOffline).Twice()

	err := svc.PushCompletion(ctx, "u1", "2025-12-27")
	require.ErrorIs(t, err, errOffline)
	err = svc.PushCompletion(ctx, "u1", "2025-12-26")
	require.ErrorIs(t, err, errOffline)

	pending, err := svc.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []datekey.Key{"2025-12-26", "2025-12-27"}, pending)

	// The first retry fails again, the second goes through.
	events.On("Upsert", mock.Anything, mock.MatchedBy(func(evs []models.PracticeEvent) bool {
		return len(evs) == 1 && evs[0].Day == "2025-12-26"
	})).Return(0, errOffline).Once()
	events.On("Upsert", mock.Anything, mock.MatchedBy(func(evs []models.PracticeEvent) bool {
		return len(evs) == 1 && evs[0].Day == "2025-12-27" && evs[0].Source == models.SourcePending
	})).Return(1, nil).Once()

	synced, err := svc.SyncPending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	pending, err = svc.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []datekey.Key{"2025-12-26"}, pending)
	events.AssertExpectations(t)
}

func TestSyncService_BootstrapToleratesRemoteFailures(t *testing.T) {
	logger.SetDefault(logger.Discard())
	ctx := context.Background()
	users := services.NewRegistry(repository.NewMemoryStore(), reminder.DefaultHour)
	events := new(mocks.MockPracticeEventRepository)
	appEvents := new(mocks.MockAppEventRepository)
	svc := services.NewSyncService(users, events, appEvents)

	u, err := users.For(ctx, "u1")
	require.NoError(t, err)
	u.Log.Write(ctx, []datekey.Key{"2025-12-26", "2025-12-27"})

	events.On("Upsert", mock.Anything, mock.Anything).Return(0, errOffline)
	events.On("Days", mock.Anything, "u1", models.KindCompletion).Return(nil, errOffline)
	appEvents.On("Insert", mock.Anything, mock.MatchedBy(func(e models.AppEvent) bool {
		return e.Name == models.EventPracticeMigratedCompletions && e.Props["attempted"] == 0
	})).Return(errOffline)

	res, err := svc.Bootstrap(ctx, "u1")

	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
	assert.Zero(t, res.Pulled)
	assert.Equal(t, []datekey.Key{"2025-12-26", "2025-12-27"}, u.Log.Read(ctx))
	events.AssertExpectations(t)
	appEvents.AssertExpectations(t)
}

func TestSyncService_BootstrapStopsOnCancel(t *testing.T) {
	logger.SetDefault(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	users := services.NewRegistry(repository.NewMemoryStore(), reminder.DefaultHour)
	events := new(mocks.MockPracticeEventRepository)
	svc := services.NewSyncService(users, events, nil)

	u, err := users.For(ctx, "u1")
	require.NoError(t, err)
	u.Log.Write(ctx, []datekey.Key{"2025-12-27"})

	_, err = svc.Bootstrap(ctx, "u1")

	require.ErrorIs(t, err, context.Canceled)
	events.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
