package speakers

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
	Get(ctx context.Context, id int64) (Speaker, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]Speaker, error)
	Create(ctx context.Context, s Speaker) (Speaker, error)
	Update(ctx context.Context, s Speaker) (Speaker, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates speaker operations behind the policy guard.
type Service struct {
	repo  RepositoryPort
	guard *content.Guard
}

// NewService builds a Service.
func NewService(repo RepositoryPort, guard *content.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Get loads a speaker the actor may read.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (Speaker, error) {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Speaker{}, httpx.ErrNotFound
		}
		return Speaker{}, err
	}
	if err := s.guard.Authorize(ctx, actor, speaker.Resource(), policy.OpRead); err != nil {
		return Speaker{}, err
	}
	return speaker, nil
}

// List returns the community speakers the actor may read.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]Speaker, error) {
	if actor.CommunityID == 0 {
		return nil, httpx.ErrForbidden
	}
	all, err := s.repo.ListByCommunity(ctx, actor.CommunityID)
	if err != nil {
		return nil, err
	}
	readable := make([]Speaker, 0, len(all))
	for _, sp := range all {
		if s.guard.Readable(actor, sp.Resource()) {
			readable = append(readable, sp)
		}
	}
	return readable, nil
}

// Create authorizes against the proposed protocol and persists the speaker.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Speaker, error) {
	if in.Name == "" {
		return Speaker{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	proto := policy.Protocol{
		PermissionLevel:       in.PermissionLevel,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
	if !proto.PermissionLevel.Valid() {
		return Speaker{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, proto.PermissionLevel)
	}
	proposed := policy.Resource{
		Type:        policy.TypeSpeaker,
		CommunityID: actor.CommunityID,
		CreatorID:   actor.ID,
		Protocol:    proto,
	}
	if err := s.guard.Authorize(ctx, actor, proposed, policy.OpCreate); err != nil {
		return Speaker{}, err
	}
	return s.repo.Create(ctx, Speaker{
		CommunityID:  actor.CommunityID,
		CreatorID:    actor.ID,
		Name:         in.Name,
		BirthYear:    in.BirthYear,
		BirthplaceID: in.BirthplaceID,
		Bio:          in.Bio,
		Protocol:     proto,
		IsRestricted: proto.Restricted(),
	})
}

// Update authorizes a write and recomputes the restriction flag.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput) (Speaker, error) {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Speaker{}, httpx.ErrNotFound
		}
		return Speaker{}, err
	}
	if err := s.guard.Authorize(ctx, actor, speaker.Resource(), policy.OpWrite); err != nil {
		return Speaker{}, err
	}
	if in.Name != nil {
		speaker.Name = *in.Name
	}
	if in.BirthYear != nil {
		speaker.BirthYear = *in.BirthYear
	}
	if in.BirthplaceID != nil {
		speaker.BirthplaceID = *in.BirthplaceID
	}
	if in.Bio != nil {
		speaker.Bio = *in.Bio
	}
	if in.PermissionLevel != nil {
		if !in.PermissionLevel.Valid() {
			return Speaker{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, *in.PermissionLevel)
		}
		speaker.Protocol.PermissionLevel = *in.PermissionLevel
	}
	if in.CeremonialContent != nil {
		speaker.Protocol.CeremonialContent = *in.CeremonialContent
	}
	if in.ElderApprovalRequired != nil {
		speaker.Protocol.ElderApprovalRequired = *in.ElderApprovalRequired
	}
	speaker.IsRestricted = speaker.Protocol.Restricted()
	return s.repo.Update(ctx, speaker)
}

// Delete authorizes and removes the speaker.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	speaker, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if err := s.guard.Authorize(ctx, actor, speaker.Resource(), policy.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
