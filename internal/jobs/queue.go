package jobs

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueuePush(ctx context.Context, userID string, day datekey.Key) error
	EnqueueSync(ctx context.Context, userID string) error
}
