package audit

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/internal/policy"
)

// RecordTaskHandler returns the worker handler persisting queued audit
// records through the recorder. Malformed payloads skip retry; a failed
// insert retries with the task's backoff.
func RecordTaskHandler(recorder *Recorder) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var rec policy.AuditRecord
		if err := json.Unmarshal(t.Payload(), &rec); err != nil {
			return asynq.SkipRetry
		}
		return recorder.Record(ctx, rec)
	}
}
