package worker

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
)

// Syncer is the part of the sync service background jobs need.
type Syncer interface {
	PushCompletion(ctx context.Context, userID string, day datekey.Key) error
	Bootstrap(ctx context.Context, userID string) (models.SyncResult, error)
}

// PushCompletionJob mirrors one logged day to the remote practice events.
type PushCompletionJob struct {
	Sync   Syncer
	UserID string
	Day    datekey.Key
}

func (j *PushCompletionJob) Name() string { return "push_completion" }

func (j *PushCompletionJob) Run(ctx context.Context) error {
	logger.FromContext(ctx).Debug("pushing completion: user_id=%s, day=%s", j.UserID, j.Day)
	return j.Sync.PushCompletion(ctx, j.UserID, j.Day)
}

// SyncUserJob runs the bootstrap and pending-queue sync for one user.
type SyncUserJob struct {
	Sync   Syncer
	UserID string
}

func (j *SyncUserJob) Name() string { return "sync_user" }

func (j *SyncUserJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("user_id", j.UserID)
	res, err := j.Sync.Bootstrap(ctx, j.UserID)
	if err != nil {
		return err
	}
	log.Info("sync finished: synced=%d, pending=%d, uploaded=%d, pulled=%d", res.Synced, res.Pending, res.Uploaded, res.Pulled)
	return nil
}
