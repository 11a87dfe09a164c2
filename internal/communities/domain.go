package communities

import "time"

// Community is a tenant: one people's archive with its own membership,
// content, and cultural protocols.
type Community struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Locale      string    `json:"locale"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput carries validated fields for provisioning a community.
type CreateInput struct {
	Name        string
	Slug        string
	Description string
	Locale      string
	IsPublic    bool
}

// UpdateInput carries fields for updating a community profile; nil means
// unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Locale      *string
	IsPublic    *bool
}
