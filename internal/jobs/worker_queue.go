package jobs

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool. Jobs run with the
// pool's context, so ctx only gates the submit.
type WorkerQueue struct {
	pool *worker.Pool
	sync worker.Syncer
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, sync worker.Syncer) JobQueue {
	return &WorkerQueue{pool: pool, sync: sync}
}

func (q *WorkerQueue) EnqueuePush(ctx context.Context, userID string, day datekey.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.pool.Submit(&worker.PushCompletionJob{
		Sync:   q.sync,
		UserID: userID,
		Day:    day,
	})
}

func (q *WorkerQueue) EnqueueSync(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.pool.Submit(&worker.SyncUserJob{
		Sync:   q.sync,
		UserID: userID,
	})
}
