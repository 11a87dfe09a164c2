package places

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// Place is a named location on a community's map. Coordinates are WGS84.
type Place struct {
	ID           int64           `json:"id"`
	CommunityID  int64           `json:"community_id"`
	CreatorID    int64           `json:"creator_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Region       string          `json:"region"`
	TypeOfPlace  string          `json:"type_of_place"`
	Protocol     policy.Protocol `json:"protocol"`
	IsRestricted bool            `json:"is_restricted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Resource maps the place onto the policy engine's descriptor.
func (p Place) Resource() policy.Resource {
	return policy.Resource{
		ID:          p.ID,
		Type:        policy.TypePlace,
		CommunityID: p.CommunityID,
		CreatorID:   p.CreatorID,
		Protocol:    p.Protocol,
	}
}

// CreateInput carries validated fields for a new place.
type CreateInput struct {
	Name                  string
	Description           string
	Latitude              float64
	Longitude             float64
	Region                string
	TypeOfPlace           string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
}

// UpdateInput carries fields for updating a place; nil means unchanged.
type UpdateInput struct {
	Name                  *string
	Description           *string
	Latitude              *float64
	Longitude             *float64
	Region                *string
	TypeOfPlace           *string
	PermissionLevel       *policy.PermissionLevel
	CeremonialContent     *bool
	ElderApprovalRequired *bool
}
