package communities

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Community, error)
	GetBySlug(ctx context.Context, slug string) (Community, error)
	ListPublic(ctx context.Context) ([]Community, error)
	Create(ctx context.Context, c Community) (Community, error)
	Update(ctx context.Context, c Community) (Community, error)
}

// Service manages tenant records. Provisioning is platform-operator work;
// a community admin may edit their own community's profile. Tenant records
// are infrastructure, not cultural content, so the policy engine is not
// consulted here.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns the actor's own community profile.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (Community, error) {
	if actor.Role != policy.RoleSuperAdmin && actor.CommunityID != id {
		return Community{}, httpx.ErrNotFound
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Community{}, httpx.ErrNotFound
		}
		return Community{}, err
	}
	return c, nil
}

// ListPublic returns the public community directory.
func (s *Service) ListPublic(ctx context.Context) ([]Community, error) {
	return s.repo.ListPublic(ctx)
}

// Create provisions a new community. Platform operators only.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Community, error) {
	if actor.Role != policy.RoleSuperAdmin {
		return Community{}, httpx.ErrForbidden
	}
	if in.Name == "" || in.Slug == "" {
		return Community{}, fmt.Errorf("%w: name and slug required", httpx.ErrValidation)
	}
	locale, err := normalizeLocale(in.Locale)
	if err != nil {
		return Community{}, err
	}
	return s.repo.Create(ctx, Community{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Locale:      locale,
		IsPublic:    in.IsPublic,
	})
}

// Update edits a community profile. The community's own admin or a platform
// operator.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput) (Community, error) {
	allowed := actor.Role == policy.RoleSuperAdmin ||
		(actor.Role == policy.RoleAdmin && actor.CommunityID == id)
	if !allowed {
		return Community{}, httpx.ErrNotFound
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Community{}, httpx.ErrNotFound
		}
		return Community{}, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Locale != nil {
		locale, err := normalizeLocale(*in.Locale)
		if err != nil {
			return Community{}, err
		}
		c.Locale = locale
	}
	if in.IsPublic != nil {
		c.IsPublic = *in.IsPublic
	}
	return s.repo.Update(ctx, c)
}

// normalizeLocale canonicalizes the BCP 47 tag that drives listing
// collation. Empty means undetermined.
func normalizeLocale(locale string) (string, error) {
	if locale == "" {
		return "", nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("%w: invalid locale %q", httpx.ErrValidation, locale)
	}
	return tag.String(), nil
}
