package themes

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// Theme groups stories under a shared topic within a community.
type Theme struct {
	ID           int64           `json:"id"`
	CommunityID  int64           `json:"community_id"`
	CreatorID    int64           `json:"creator_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Protocol     policy.Protocol `json:"protocol"`
	IsRestricted bool            `json:"is_restricted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Resource maps the theme onto the policy engine's descriptor.
func (t Theme) Resource() policy.Resource {
	return policy.Resource{
		ID:          t.ID,
		Type:        policy.TypeTheme,
		CommunityID: t.CommunityID,
		CreatorID:   t.CreatorID,
		Protocol:    t.Protocol,
	}
}

// CreateInput carries validated fields for a new theme.
type CreateInput struct {
	Title                 string
	Description           string
	PermissionLevel       policy.PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
}

// UpdateInput carries fields for updating a theme; nil means unchanged.
type UpdateInput struct {
	Title                 *string
	Description           *string
	PermissionLevel       *policy.PermissionLevel
	CeremonialContent     *bool
	ElderApprovalRequired *bool
}
