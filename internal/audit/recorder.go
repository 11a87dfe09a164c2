package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storykeep/storykeep/internal/policy"
)

// Recorder writes decision records straight into policy_audit. It is the
// synchronous sink; the Dispatcher wraps it with a queue for the hot path.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a Recorder backed by the provided pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record persists one audit record.
func (r *Recorder) Record(ctx context.Context, rec policy.AuditRecord) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO policy_audit
			(id, occurred_at, actor_id, actor_role, resource_id, resource_type, community_id, operation, allowed, reason, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.At, rec.ActorID, string(rec.ActorRole), rec.ResourceID, string(rec.ResourceType),
		rec.CommunityID, string(rec.Operation), rec.Decision.Allowed, string(rec.Decision.Reason), rec.Decision.Detail)
	return err
}
