package audit

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/jobs"
)

// Enqueuer submits prepared asynq tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task) error
}

// Sink persists an audit record synchronously.
type Sink interface {
	Record(ctx context.Context, rec policy.AuditRecord) error
}

// Dispatcher queues audit records for background persistence, falling back
// to the synchronous sink when the queue is unavailable. A record is never
// silently dropped: queue failure degrades to a direct write.
type Dispatcher struct {
	queue    Enqueuer
	fallback Sink
	logger   *slog.Logger
}

// NewDispatcher constructs a Dispatcher. queue may be nil, in which case all
// records go straight to the fallback sink.
func NewDispatcher(queue Enqueuer, fallback Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, fallback: fallback, logger: logger}
}

// Record enqueues the record, or persists it directly when enqueueing fails.
func (d *Dispatcher) Record(ctx context.Context, rec policy.AuditRecord) error {
	if d.queue != nil {
		task, err := jobs.NewAuditRecordTask(rec)
		if err == nil {
			if err := d.queue.Enqueue(ctx, task); err == nil {
				return nil
			} else if d.logger != nil {
				d.logger.Warn("audit enqueue failed, writing synchronously",
					slog.String("record_id", rec.ID.String()),
					slog.Any("error", err))
			}
		}
	}
	return d.fallback.Record(ctx, rec)
}
