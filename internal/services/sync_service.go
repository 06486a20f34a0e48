package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/practicelog"
	"github.com/ksebe/streakd/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// PendingKey holds days whose push failed and must be retried.
	PendingKey = "ksebe_practice_completions_pending"
	// MigratedKeyPrefix is followed by the user id; the key is set once the
	// user's local log has been uploaded.
	MigratedKeyPrefix = "ksebe_retention_migrated:"
	// UploadChunkSize is the number of events sent per upsert during upload.
	UploadChunkSize = 50

	migratedValue = "true"
)

// SyncService mirrors practice logs to the practice event store
type SyncService interface {
	// PushCompletion mirrors one day. On failure the day is queued for a later
	// SyncPending and the error is returned.
	PushCompletion(ctx context.Context, userID string, day datekey.Key) error
	// SyncPending retries queued days and keeps the ones that fail again.
	SyncPending(ctx context.Context, userID string) (int, error)
	// Bootstrap syncs pending days and, once per user, uploads the local log
	// and pulls remote days back into it.
	Bootstrap(ctx context.Context, userID string) (models.SyncResult, error)
	// Pending returns the days waiting for a retry.
	Pending(ctx context.Context, userID string) ([]datekey.Key, error)
	LogEvent(ctx context.Context, userID, name string, props map[string]any)
	Events(ctx context.Context, userID string, limit int) ([]models.AppEvent, error)
}

type syncService struct {
	users     *Registry
	events    repository.PracticeEventRepository
	appEvents repository.AppEventRepository
	now       func() time.Time
	uploaders int

	pendingMu sync.Mutex
}

// SyncOption configures a SyncService.
type SyncOption func(*syncService)

// WithSyncClock sets the time source for event timestamps.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *syncService) { s.now = now }
}

// WithUploaders sets how many chunks are uploaded at once during bootstrap.
func WithUploaders(n int) SyncOption {
	return func(s *syncService) {
		if n > 0 {
			s.uploaders = n
		}
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(users *Registry, events repository.PracticeEventRepository, appEvents repository.AppEventRepository, opts ...SyncOption) SyncService {
	s := &syncService{
		users:     users,
		events:    events,
		appEvents: appEvents,
		now:       time.Now,
		uploaders: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *syncService) pendingLog(u *UserData) *practicelog.Log {
	return practicelog.New(u.Store,
		practicelog.WithStorageKey(PendingKey),
		practicelog.WithLogger(logger.Default().WithPrefix("pending").WithField("user_id", u.UserID)),
	)
}

func (s *syncService) upsert(ctx context.Context, userID, source string, days []datekey.Key) (int, error) {
	createdAt := s.now().UTC()
	events := make([]models.PracticeEvent, 0, len(days))
	for _, d := range days {
		events = append(events, models.PracticeEvent{
			UserID:    userID,
			Day:       d,
			Kind:      models.KindCompletion,
			Source:    source,
			CreatedAt: createdAt,
		})
	}
	return s.events.Upsert(ctx, events)
}

func (s *syncService) PushCompletion(ctx context.Context, userID string, day datekey.Key) error {
	log := logger.FromContext(ctx)

	u, err := s.users.For(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.upsert(ctx, userID, models.SourceApp, []datekey.Key{day}); err != nil {
		log.Warn("push failed, queueing %s for retry: %v", day, err)
		s.pendingMu.Lock()
		pending := s.pendingLog(u)
		pending.Write(ctx, practicelog.AddCompletion(pending.Read(ctx), day))
		s.pendingMu.Unlock()
		return fmt.Errorf("push completion %s: %w", day, err)
	}
	return nil
}

func (s *syncService) Pending(ctx context.Context, userID string) ([]datekey.Key, error) {
	u, err := s.users.For(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.pendingLog(u).Read(ctx), nil
}

func (s *syncService) SyncPending(ctx context.Context, userID string) (int, error) {
	log := logger.FromContext(ctx)

	u, err := s.users.For(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	pending := s.pendingLog(u)
	days := pending.Read(ctx)
	if len(days) == 0 {
		return 0, nil
	}

	synced := 0
	remaining := make([]datekey.Key, 0)
	for _, day := range days {
		if ctx.Err() != nil {
			remaining = append(remaining, day)
			continue
		}
		if _, err := s.upsert(ctx, userID, models.SourcePending, []datekey.Key{day}); err != nil {
			log.Debug("pending day %s still failing: %v", day, err)
			remaining = append(remaining, day)
			continue
		}
		synced++
	}
	pending.Write(ctx, remaining)

	log.Info("pending sync: synced=%d, remaining=%d", synced, len(remaining))
	return synced, ctx.Err()
}

func (s *syncService) Bootstrap(ctx context.Context, userID string) (models.SyncResult, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	var res models.SyncResult

	u, err := s.users.For(ctx, userID)
	if err != nil {
		return res, err
	}

	res.Synced, err = s.SyncPending(ctx, userID)
	if err != nil {
		return res, err
	}

	markerKey := MigratedKeyPrefix + userID
	if v, ok, err := u.Store.Get(ctx, markerKey); err != nil {
		log.Warn("read migration marker: %v", err)
	} else if ok && v == migratedValue {
		log.Debug("already migrated, only pending days synced")
		res.Pending = len(s.pendingLog(u).Read(ctx))
		return res, nil
	}

	local := u.Log.Read(ctx)
	if len(local) > 0 {
		uploaded, err := s.upload(ctx, userID, local)
		if err != nil {
			return res, err
		}
		res.Uploaded = uploaded
		s.LogEvent(ctx, userID, models.EventPracticeMigratedCompletions, map[string]any{
			"count":     len(local),
			"attempted": uploaded,
		})
	}

	remote, err := s.events.Days(ctx, userID, models.KindCompletion)
	if err != nil {
		log.Warn("pull remote days failed, keeping local log: %v", err)
	} else {
		known := make(map[datekey.Key]struct{}, len(local))
		for _, d := range local {
			known[d] = struct{}{}
		}
		for _, d := range remote {
			if _, ok := known[d]; !ok {
				res.Pulled++
			}
		}
		u.MarkSeen(remote)
		u.Log.Merge(ctx, remote)
	}

	if err := u.Store.Set(ctx, markerKey, migratedValue); err != nil {
		log.Warn("write migration marker: %v", err)
	}
	res.Pending = len(s.pendingLog(u).Read(ctx))
	log.Info("bootstrap done: synced=%d, uploaded=%d, pulled=%d, pending=%d", res.Synced, res.Uploaded, res.Pulled, res.Pending)
	return res, nil
}

// upload sends days in chunks of UploadChunkSize. A failed chunk is logged
// and skipped; only cancellation fails the upload.
func (s *syncService) upload(ctx context.Context, userID string, days []datekey.Key) (int, error) {
	log := logger.FromContext(ctx)
	var uploaded atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploaders)
	for start := 0; start < len(days); start += UploadChunkSize {
		part := days[start:min(start+UploadChunkSize, len(days))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := s.upsert(gctx, userID, models.SourceMigration, part); err != nil {
				log.Warn("upload of %d days from %s failed: %v", len(part), part[0], err)
				return nil
			}
			uploaded.Add(int64(len(part)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(uploaded.Load()), err
	}
	return int(uploaded.Load()), nil
}

func (s *syncService) LogEvent(ctx context.Context, userID, name string, props map[string]any) {
	if s.appEvents == nil {
		return
	}
	event := models.AppEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Props:     props,
		CreatedAt: s.now().UTC(),
	}
	if err := s.appEvents.Insert(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("record event %s for %s: %v", name, userID, err)
	}
}

func (s *syncService) Events(ctx context.Context, userID string, limit int) ([]models.AppEvent, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.NewValidationError("limit", "cannot be negative")
	}
	if s.appEvents == nil {
		return []models.AppEvent{}, nil
	}
	events, err := s.appEvents.List(ctx, userID, limit)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list events: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return events, nil
}
