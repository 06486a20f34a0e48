package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/repository/sqlite"
	"github.com/ksebe/streakd/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type PracticeEventRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.PracticeEventRepository
}

func (s *PracticeEventRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewPracticeEventRepository(s.db)
}

func (s *PracticeEventRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// kindCheckIn is a second event kind on the same day as a completion.
const kindCheckIn = "streak"

func event(user, day, kind string) models.PracticeEvent {
	return models.PracticeEvent{UserID: user, Day: datekey.MustParse(day), Kind: kind, Source: models.SourceApp}
}

func (s *PracticeEventRepositorySuite) TestUpsertIsIdempotent() {
	ctx := context.Background()

	n, err := s.repo.Upsert(ctx, []models.PracticeEvent{
		event("u1", "2025-12-26", models.KindCompletion),
		event("u1", "2025-12-27", models.KindCompletion),
	})
	s.Require().NoError(err)
	s.Assert().Equal(2, n)

	n, err = s.repo.Upsert(ctx, []models.PracticeEvent{
		event("u1", "2025-12-27", models.KindCompletion),
		event("u1", "2025-12-27", kindCheckIn),
	})
	s.Require().NoError(err)
	s.Assert().Equal(1, n, "only the streak event is new")

	var rows int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM practice_events`).Scan(&rows))
	s.Assert().Equal(3, rows)
}

func (s *PracticeEventRepositorySuite) TestUpsertEmpty() {
	n, err := s.repo.Upsert(context.Background(), nil)
	s.Require().NoError(err)
	s.Assert().Zero(n)
}

func (s *PracticeEventRepositorySuite) TestUpsertRejectsUnknownKindAtomically() {
	ctx := context.Background()

	_, err := s.repo.Upsert(ctx, []models.PracticeEvent{
		event("u1", "2025-12-26", models.KindCompletion),
		event("u1", "2025-12-27", "meditation"),
	})
	s.Require().Error(err)

	days, err := s.repo.Days(ctx, "u1", models.KindCompletion)
	s.Require().NoError(err)
	s.Assert().Empty(days, "the batch is rolled back")
}

func (s *PracticeEventRepositorySuite) TestDaysFiltersAndSorts() {
	ctx := context.Background()
	_, err := s.repo.Upsert(ctx, []models.PracticeEvent{
		event("u1", "2025-12-27", models.KindCompletion),
		event("u1", "2025-12-20", models.KindCompletion),
		event("u1", "2025-12-21", kindCheckIn),
		event("u2", "2025-12-22", models.KindCompletion),
	})
	s.Require().NoError(err)

	days, err := s.repo.Days(ctx, "u1", models.KindCompletion)
	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-20", "2025-12-27"}, days)
}

func (s *PracticeEventRepositorySuite) TestDaysSkipsMalformedRows() {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `INSERT INTO practice_events (user_id, day, kind, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		"u1", "not-a-day", models.KindCompletion, models.SourceApp, time.Now())
	s.Require().NoError(err)
	_, err = s.repo.Upsert(ctx, []models.PracticeEvent{event("u1", "2025-12-27", models.KindCompletion)})
	s.Require().NoError(err)

	days, err := s.repo.Days(ctx, "u1", models.KindCompletion)
	s.Require().NoError(err)
	s.Assert().Equal([]datekey.Key{"2025-12-27"}, days)
}

func TestPracticeEventRepositorySuite(t *testing.T) {
	suite.Run(t, new(PracticeEventRepositorySuite))
}
