package places

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
	Get(ctx context.Context, id int64) (Place, error)
	ListByCommunity(ctx context.Context, communityID int64) ([]Place, error)
	ListPublic(ctx context.Context, communityID int64) ([]Place, error)
	Create(ctx context.Context, p Place) (Place, error)
	Update(ctx context.Context, p Place) (Place, error)
	Delete(ctx context.Context, id int64) error
}

// Service coordinates place operations behind the policy guard.
type Service struct {
	repo  RepositoryPort
	guard *content.Guard
}

// NewService builds a Service.
func NewService(repo RepositoryPort, guard *content.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Get loads a place the actor may read.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (Place, error) {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Place{}, httpx.ErrNotFound
		}
		return Place{}, err
	}
	if err := s.guard.Authorize(ctx, actor, place.Resource(), policy.OpRead); err != nil {
		return Place{}, err
	}
	return place, nil
}

// List returns the community places the actor may read. Restricted places
// are filtered out entirely rather than returned with redacted coordinates:
// the existence of a ceremonial site is itself protected knowledge.
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]Place, error) {
	if actor.CommunityID == 0 {
		return nil, httpx.ErrForbidden
	}
	all, err := s.repo.ListByCommunity(ctx, actor.CommunityID)
	if err != nil {
		return nil, err
	}
	readable := make([]Place, 0, len(all))
	for _, p := range all {
		if s.guard.Readable(actor, p.Resource()) {
			readable = append(readable, p)
		}
	}
	return readable, nil
}

// ListPublic is the unauthenticated map view.
func (s *Service) ListPublic(ctx context.Context, communityID int64) ([]Place, error) {
	return s.repo.ListPublic(ctx, communityID)
}

// Create authorizes against the proposed protocol and persists the place.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Place, error) {
	if in.Name == "" {
		return Place{}, fmt.Errorf("%w: name required", httpx.ErrValidation)
	}
	proto := policy.Protocol{
		PermissionLevel:       in.PermissionLevel,
		CeremonialContent:     in.CeremonialContent,
		ElderApprovalRequired: in.ElderApprovalRequired,
	}
	if !proto.PermissionLevel.Valid() {
		return Place{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, proto.PermissionLevel)
	}
	proposed := policy.Resource{
		Type:        policy.TypePlace,
		CommunityID: actor.CommunityID,
		CreatorID:   actor.ID,
		Protocol:    proto,
	}
	if err := s.guard.Authorize(ctx, actor, proposed, policy.OpCreate); err != nil {
		return Place{}, err
	}
	return s.repo.Create(ctx, Place{
		CommunityID:  actor.CommunityID,
		CreatorID:    actor.ID,
		Name:         in.Name,
		Description:  in.Description,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Region:       in.Region,
		TypeOfPlace:  in.TypeOfPlace,
		Protocol:     proto,
		IsRestricted: proto.Restricted(),
	})
}

// Update authorizes a write and recomputes the restriction flag.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput) (Place, error) {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Place{}, httpx.ErrNotFound
		}
		return Place{}, err
	}
	if err := s.guard.Authorize(ctx, actor, place.Resource(), policy.OpWrite); err != nil {
		return Place{}, err
	}
	if in.Name != nil {
		place.Name = *in.Name
	}
	if in.Description != nil {
		place.Description = *in.Description
	}
	if in.Latitude != nil {
		place.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		place.Longitude = *in.Longitude
	}
	if in.Region != nil {
		place.Region = *in.Region
	}
	if in.TypeOfPlace != nil {
		place.TypeOfPlace = *in.TypeOfPlace
	}
	if in.PermissionLevel != nil {
		if !in.PermissionLevel.Valid() {
			return Place{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, *in.PermissionLevel)
		}
		place.Protocol.PermissionLevel = *in.PermissionLevel
	}
	if in.CeremonialContent != nil {
		place.Protocol.CeremonialContent = *in.CeremonialContent
	}
	if in.ElderApprovalRequired != nil {
		place.Protocol.ElderApprovalRequired = *in.ElderApprovalRequired
	}
	place.IsRestricted = place.Protocol.Restricted()
	return s.repo.Update(ctx, place)
}

// Delete authorizes and removes the place.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	place, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if err := s.guard.Authorize(ctx, actor, place.Resource(), policy.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
