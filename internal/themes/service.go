package themes

import (
	"context"
	"errors"
	"fmt"

	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Theme, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]Theme, error)
	Create(ctx context.Context, t Theme) (Theme, error)
	Update(ctx context.Context, t Theme) (Theme, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates theme operations behind the policy guard.
type Service struct {
	repo  RepositoryPort
	guard *content.Guard
}

// NewService builds a Service.
func NewService(repo RepositoryPort, guard *content.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Get loads a theme the actor may read.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (Theme, error) {
	theme, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Theme{}, httpx.ErrNotFound
		}
		return Theme{}, err
	}
	if err := s.guard.Authorize(ctx, actor, theme.Resource(), policy.OpRead); err != nil {
		return Theme{}, err
	}
	return theme, nil
}

// List returns the community themes the actor may read.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]Theme, error) {
	if actor.CommunityID == 0 {
		return nil, httpx.ErrForbidden
	}
	all, err := s.repo.ListByCommunity(ctx, actor.CommunityID)
	if err != nil {
		return nil, err
	}
	readable := make([]Theme, 0, len(all))
	for _, t := range all {
		if s.guard.Readable(actor, t.Resource()) {
			readable = append(readable, t)
		}
	}
	return readable, nil
}

// Create authorizes against the proposed protocol and persists the theme.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Theme, error) {
	if in.Title == "" {
		return Theme{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	proto := policy.Protocol{
		PermissionLevel:       in.PermissionLevel,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
	if !proto.PermissionLevel.Valid() {
		return Theme{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, proto.PermissionLevel)
	}
	proposed := policy.Resource{
		Type:        policy.TypeTheme,
		CommunityID: actor.CommunityID,
		CreatorID:   actor.ID,
		Protocol:    proto,
	}
	if err := s.guard.Authorize(ctx, actor, proposed, policy.OpCreate); err != nil {
		return Theme{}, err
	}
	return s.repo.Create(ctx, Theme{
		CommunityID:  actor.CommunityID,
		CreatorID:    actor.ID,
		Title:        in.Title,
		Description:  in.Description,
		Protocol:     proto,
		IsRestricted: proto.Restricted(),
	})
}

// Update authorizes a write and recomputes the restriction flag.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput) (Theme, error) {
	theme, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Theme{}, httpx.ErrNotFound
		}
		return Theme{}, err
	}
	if err := s.guard.Authorize(ctx, actor, theme.Resource(), policy.OpWrite); err != nil {
		return Theme{}, err
	}
	if in.Title != nil {
		theme.Title = *in.Title
	}
	if in.Description != nil {
		theme.Description = *in.Description
	}
	if in.PermissionLevel != nil {
		if !in.PermissionLevel.Valid() {
			return Theme{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, *in.PermissionLevel)
		}
		theme.Protocol.PermissionLevel = *in.PermissionLevel
	}
	if in.CeremonialContent != nil {
		theme.Protocol.CeremonialContent = *in.CeremonialContent
	}
	if in.ElderApprovalRequired != nil {
		theme.Protocol.ElderApprovalRequired = *in.ElderApprovalRequired
	}
	theme.IsRestricted = theme.Protocol.Restricted()
	return s.repo.Update(ctx, theme)
}

// Delete authorizes and removes the theme.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	theme, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if err := s.guard.Authorize(ctx, actor, theme.Resource(), policy.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
