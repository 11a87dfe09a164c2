package stories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Story, error)
	ListByCommunity(ctx context.Context, communityID int64, filter ListFilter) ([]Story, error)
	ListPublic(ctx context.Context, communityID int64) ([]Story, error)
	Create(ctx context.Context, s Story) (Story, error)
	Update(ctx context.Context, s Story) (Story, error)
	Delete(ctx context.Context, id int64) error
}

// ListResult bundles a filtered page of stories with paging metadata.
type ListResult struct {
	Stories []Story           `json:"stories"`
	Paging  shared.Pagination `json:"paging"`
}

// Service coordinates story operations behind the policy guard.
type Service struct {
	repo        RepositoryPort
	guard       *content.Guard
	idempotency *shared.IdempotencyStore
}

// NewService builds a Service. idempotency may be nil in tests.
func NewService(repo RepositoryPort, guard *content.Guard, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, guard: guard, idempotency: idem}
}

// Get loads a story the actor is allowed to read. A story outside the
// actor's community surfaces as not-found, same as a missing one.
func (s *Service) Get(ctx context.Context, actor policy.Actor, id int64) (Story, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Story{}, httpx.ErrNotFound
		}
		return Story{}, err
	}
	if err := s.guard.Authorize(ctx, actor, story.Resource(), policy.OpRead); err != nil {
		return Story{}, err
	}
	return story, nil
}

// ResolveResource exposes a story's policy descriptor for dependents that
// authorize against the parent story, such as media attachments.
func (s *Service) ResolveResource(ctx context.Context, id int64) (policy.Resource, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		return policy.Resource{}, err
	}
	return story.Resource(), nil
}

// List returns the page of community stories the actor may read, ordered by
// title under the community's collation locale.
func (s *Service) List(ctx context.Context, actor policy.Actor, locale string, filter ListFilter) (ListResult, error) {
	if actor.CommunityID == 0 {
		return ListResult{}, httpx.ErrForbidden
	}
	all, err := s.repo.ListByCommunity(ctx, actor.CommunityID, filter)
	if err != nil {
		return ListResult{}, err
	}
	readable := make([]Story, 0, len(all))
	for _, story := range all {
		if s.guard.Readable(actor, story.Resource()) {
			readable = append(readable, story)
		}
	}
	sortByTitle(readable, locale)

	paging := shared.NewPagination(filter.Page, filter.PerPage, len(readable))
	return ListResult{Stories: page(readable, paging), Paging: paging}, nil
}

// ListPublic is the unauthenticated read path: public-tier, unrestricted
// stories only, filtered entirely in the repository query. No actor exists
// here so the policy engine is never consulted.
func (s *Service) ListPublic(ctx context.Context, communityID int64, locale string) ([]Story, error) {
	stories, err := s.repo.ListPublic(ctx, communityID)
	if err != nil {
		return nil, err
	}
	sortByTitle(stories, locale)
	return stories, nil
}

// Create authorizes against the proposed protocol and persists the story.
// The stored restriction flag is derived from the protocol here and nowhere
// else.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (Story, error) {
	if in.Title == "" {
		return Story{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	proto := in.protocol()
	if !proto.PermissionLevel.Valid() {
		return Story{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, proto.PermissionLevel)
	}

	proposed := policy.Resource{
		Type:        policy.TypeStory,
		CommunityID: actor.CommunityID,
		CreatorID:   actor.ID,
		Protocol:    proto,
	}
	if err := s.guard.Authorize(ctx, actor, proposed, policy.OpCreate); err != nil {
		return Story{}, err
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, in.IdempotencyKey, "stories"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Story{}, fmt.Errorf("%w: story already created", httpx.ErrDuplicate)
			}
			return Story{}, err
		}
	}

	return s.repo.Create(ctx, Story{
		CommunityID:  actor.CommunityID,
		CreatorID:    actor.ID,
		Title:        in.Title,
		Description:  in.Description,
		Language:     in.Language,
		Topic:        in.Topic,
		Protocol:     proto,
		IsRestricted: proto.Restricted(),
		PlaceIDs:     in.PlaceIDs,
		SpeakerIDs:   in.SpeakerIDs,
	})
}

// Update authorizes a write on the stored story, applies the changes and
// recomputes the restriction flag from the resulting protocol.
func (s *Service) Update(ctx context.Context, actor policy.Actor, id int64, in UpdateInput) (Story, error) {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Story{}, httpx.ErrNotFound
		}
		return Story{}, err
	}
	if err := s.guard.Authorize(ctx, actor, story.Resource(), policy.OpWrite); err != nil {
		return Story{}, err
	}

	if in.Title != nil {
		story.Title = *in.Title
	}
	if in.Description != nil {
		story.Description = *in.Description
	}
	if in.Language != nil {
		story.Language = *in.Language
	}
	if in.Topic != nil {
		story.Topic = *in.Topic
	}
	if in.PermissionLevel != nil {
		if !in.PermissionLevel.Valid() {
			return Story{}, fmt.Errorf("%w: unknown permission level %q", httpx.ErrValidation, *in.PermissionLevel)
		}
		story.Protocol.PermissionLevel = *in.PermissionLevel
	}
	if in.CeremonialContent != nil {
		story.Protocol.CeremonialContent = *in.CeremonialContent
	}
	if in.ElderApprovalRequired != nil {
		story.Protocol.ElderApprovalRequired = *in.ElderApprovalRequired
	}
	if in.PlaceIDs != nil {
		story.PlaceIDs = in.PlaceIDs
	}
	if in.SpeakerIDs != nil {
		story.SpeakerIDs = in.SpeakerIDs
	}

	// Tightening a protocol must never be blockable by the tightened state:
	// the write was authorized against the stored protocol above.
	story.IsRestricted = story.Protocol.Restricted()

	return s.repo.Update(ctx, story)
}

// Delete authorizes and removes the story.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	story, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	if err := s.guard.Authorize(ctx, actor, story.Resource(), policy.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// sortByTitle orders stories with the collator for the community locale,
// falling back to und (root collation) for unknown tags.
func sortByTitle(stories []Story, locale string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	c := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(stories, func(i, j int) bool {
		return c.CompareString(stories[i].Title, stories[j].Title) < 0
	})
}

func page(stories []Story, p shared.Pagination) []Story {
	start := p.Offset()
	if start >= len(stories) {
		return []Story{}
	}
	end := start + p.PerPage
	if end > len(stories) {
		end = len(stories)
	}
	return stories[start:end]
}
