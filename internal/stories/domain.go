package stories

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// Story is a place-based oral history owned by a community. Protocol carries
// the cultural access descriptor; IsRestricted is persisted for the public
// filter's benefit but always derived from Protocol, never set directly.
type Story struct {
	ID           int64           `json:"id"`
	CommunityID  int64           `json:"community_id"`
	CreatorID    int64           `json:"creator_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Language     string          `json:"language"`
	Topic        string          `json:"topic"`
	Protocol     policy.Protocol `json:"protocol"`
	IsRestricted bool            `json:"is_restricted"`
	PlaceIDs     []int64         `json:"place_ids"`
	SpeakerIDs   []int64         `json:"speaker_ids"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Resource maps the story onto the policy engine's descriptor.
func (s Story) Resource() policy.Resource {
	return policy.Resource{
		ID:          s.ID,
		Type:        policy.TypeStory,
		CommunityID: s.CommunityID,
		CreatorID:   s.CreatorID,
		Protocol:    s.Protocol,
	}
}

// CreateInput carries validated fields for a new story.
type CreateInput struct {
	Title                 string
	Description           string
	Language              string
	Topic                 string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
	PlaceIDs              []int64
	SpeakerIDs            []int64
	IdempotencyKey        string
}

// UpdateInput carries fields for updating a story. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Title                 *string
	Description           *string
	Language              *string
	Topic                 *string
	PermissionLevel       *policy.PermissionLevel
	CeremonialContent     *bool
	ElderApprovalRequired *bool
	PlaceIDs              []int64
	SpeakerIDs            []int64
}

// ListFilter narrows story listings within the actor's community.
type ListFilter struct {
	Topic    string
	Language string
	Page     int
	PerPage  int
}

func (in CreateInput) protocol() policy.Protocol {
	return policy.Protocol{
		PermissionLevel:       in.PermissionLevel,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
}
