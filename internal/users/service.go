package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdateRole(ctx context.Context, id int64, role policy.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service manages member accounts. Membership administration is not cultural
// content, so the sovereignty rule does not apply here: community admins
// manage their own roster, and platform operators may provision accounts for
// any community.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func canManage(actor policy.Actor, communityID int64) bool {
	if actor.Role == policy.RoleSuperAdmin {
		return true
	}
	return actor.Role == policy.RoleAdmin && actor.CommunityID == communityID
}

// List returns the member roster of the actor's community.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]User, error) {
	if !canManage(actor, actor.CommunityID) || actor.CommunityID == 0 {
		return nil, httpx.ErrForbidden
	}
	return s.repo.ListByCommunity(ctx, actor.CommunityID)
}

// Create provisions a new member account.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (User, error) {
	if in.CommunityID == 0 {
		in.CommunityID = actor.CommunityID
	}
	if !canManage(actor, in.CommunityID) {
		return User{}, httpx.ErrForbidden
	}
	if !in.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, in.Role)
	}
	// Only platform operators mint platform operators.
	if in.Role == policy.RoleSuperAdmin && actor.Role != policy.RoleSuperAdmin {
		return User{}, httpx.ErrForbidden
	}
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: password too short", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	communityID := in.CommunityID
	if in.Role == policy.RoleSuperAdmin {
		communityID = 0
	}
	return s.repo.Create(ctx, User{
		CommunityID:  communityID,
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

// ChangeRole updates a member's role within the actor's community.
func (s *Service) ChangeRole(ctx context.Context, actor policy.Actor, userID int64, role policy.Role) error {
	target, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if !canManage(actor, target.CommunityID) {
		return httpx.ErrNotFound
	}
	if !role.Valid() || role == policy.RoleSuperAdmin {
		return fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	return s.repo.UpdateRole(ctx, userID, role)
}

// Deactivate disables sign-in for a member account.
func (s *Service) Deactivate(ctx context.Context, actor policy.Actor, userID int64) error {
	target, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if !canManage(actor, target.CommunityID) {
		return httpx.ErrNotFound
	}
	return s.repo.SetActive(ctx, userID, false)
}
