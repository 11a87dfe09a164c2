package policy

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is the append-only trail entry every evaluation must produce,
// allow or deny. Denials matter at least as much as grants: repeated denial
// patterns are the primary signal of attempted protocol violations. The
// engine only constructs the value; persisting it belongs to the caller's
// audit sink.
type AuditRecord struct {
	ID           uuid.UUID
	At           time.Time
	ActorID      int64
	ActorRole    Role
	ResourceID   int64
	ResourceType ResourceType
	CommunityID  int64
	Operation    Operation
	Decision     Decision
}

// NewAuditRecord builds the audit entry for a single evaluation. CommunityID
// is taken from the resource, not the actor, so cross-community denial
// attempts are attributed to the community whose content was targeted.
func NewAuditRecord(actor Actor, resource Resource, op Operation, d Decision) AuditRecord {
	return AuditRecord{
		ID:           uuid.New(),
		At:           time.Now().UTC(),
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		ResourceID:   resource.ID,
		ResourceType: resource.Type,
		CommunityID:  resource.CommunityID,
		Operation:    op,
		Decision:     d,
	}
}
