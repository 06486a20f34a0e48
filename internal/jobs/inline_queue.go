package jobs

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/worker"
)

// InlineQueue runs every job in the caller's goroutine with the caller's
// context. Command line tools use it where no worker pool outlives the call.
type InlineQueue struct {
	sync worker.Syncer
}

// NewInlineQueue creates a JobQueue that runs jobs immediately.
func NewInlineQueue(sync worker.Syncer) JobQueue {
	return &InlineQueue{sync: sync}
}

func (q *InlineQueue) EnqueuePush(ctx context.Context, userID string, day datekey.Key) error {
	job := &worker.PushCompletionJob{Sync: q.sync, UserID: userID, Day: day}
	return job.Run(ctx)
}

func (q *InlineQueue) EnqueueSync(ctx context.Context, userID string) error {
	job := &worker.SyncUserJob{Sync: q.sync, UserID: userID}
	return job.Run(ctx)
}
