package users

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// User is a member account. Every user except platform operators belongs to
// exactly one community; the role is scoped to that community.
type User struct {
	ID           int64       `json:"id"`
	CommunityID  int64       `json:"community_id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Role         policy.Role `json:"role"`
	PasswordHash string      `json:"-"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Actor converts the account into the policy engine's actor descriptor.
func (u User) Actor() policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role, CommunityID: u.CommunityID}
}

// CreateInput carries validated fields for a new member account.
type CreateInput struct {
	CommunityID int64
	Email       string
	Name        string
	Role        policy.Role
	Password    string
}
