// Package audit persists and queries the policy decision trail. Every
// Evaluate call in the system produces exactly one record here, allow or
// deny; the table is append-only.
package audit

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// TimelineFilters narrows the audit timeline query. CommunityID is always
// forced to the requesting admin's own community by the handler.
type TimelineFilters struct {
	CommunityID  int64
	ActorID      int64
	ResourceType policy.ResourceType
	Reason       policy.ReasonCode
	DeniedOnly   bool
	From         time.Time
	To           time.Time
	Page         int
	PageSize     int
}

// TimelineRow is one decision in the timeline.
type TimelineRow struct {
	ID           string              `json:"id"`
	At           time.Time           `json:"at"`
	ActorID      int64               `json:"actor_id"`
	ActorRole    policy.Role         `json:"actor_role"`
	ResourceID   int64               `json:"resource_id"`
	ResourceType policy.ResourceType `json:"resource_type"`
	CommunityID  int64               `json:"community_id"`
	Operation    policy.Operation    `json:"operation"`
	Allowed      bool                `json:"allowed"`
	Reason       policy.ReasonCode   `json:"reason"`
	Detail       string              `json:"detail,omitempty"`
}

// Result wraps timeline rows with paging metadata.
type Result struct {
	Rows   []TimelineRow     `json:"rows"`
	Paging shared.Pagination `json:"paging"`
}
