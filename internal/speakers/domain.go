package speakers

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// Speaker is a storyteller profile: the person whose voice carries the
// recordings attached to stories.
type Speaker struct {
	ID           int64           `json:"id"`
	CommunityID  int64           `json:"community_id"`
	CreatorID    int64           `json:"creator_id"`
	Name         string          `json:"name"`
	BirthYear    int             `json:"birth_year,omitempty"`
	BirthplaceID int64           `json:"birthplace_id,omitempty"`
	Bio          string          `json:"bio"`
	Protocol     policy.Protocol `json:"protocol"`
	IsRestricted bool            `json:"is_restricted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Resource maps the speaker onto the policy engine's descriptor.
func (s Speaker) Resource() policy.Resource {
	return policy.Resource{
		ID:          s.ID,
		Type:        policy.TypeSpeaker,
		CommunityID: s.CommunityID,
		CreatorID:   s.CreatorID,
		Protocol:    s.Protocol,
	}
}

// CreateInput carries validated fields for a new speaker.
type CreateInput struct {
	Name                  string
	BirthYear             int
	BirthplaceID          int64
	Bio                   string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
}

// UpdateInput carries fields for updating a speaker; nil means unchanged.
type UpdateInput struct {
	Name                  *string
	BirthYear             *int
	BirthplaceID          *int64
	Bio                   *string
	PermissionLevel       *policy.PermissionLevel
	CeremonialContent     *bool
	ElderApprovalRequired *bool
}
