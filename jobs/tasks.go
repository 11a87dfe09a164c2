package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/internal/policy"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries policy audit records. Separate queue so a media
	// backlog never delays the decision trail.
	QueueAudit = "audit"

	// TaskTypeAuditRecord persists a policy decision record.
	TaskTypeAuditRecord = "audit:record"
	// TaskTypeMediaDerive generates media derivatives (thumbnails, previews).
	TaskTypeMediaDerive = "media:derive"
)

// NewAuditRecordTask wraps a policy audit record for queued persistence.
func NewAuditRecordTask(rec policy.AuditRecord) (*asynq.Task, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditRecord, data, asynq.Queue(QueueAudit), asynq.MaxRetry(10)), nil
}

// MediaDerivePayload identifies the attachment to process.
type MediaDerivePayload struct {
	MediaID     int64 `json:"media_id"`
	CommunityID int64 `json:"community_id"`
}

// NewMediaDeriveTask constructs a derivative-generation task.
func NewMediaDeriveTask(payload MediaDerivePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMediaDerive, data, asynq.Queue(QueueDefault)), nil
}
