package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
	"github.com/storykeep/storykeep/jobs"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Attachment, error)
	ListByStory(ctx context.Context, storyID int64) ([]Attachment, error)
	Create(ctx context.Context, a Attachment) (Attachment, error)
	SetDerived(ctx context.Context, id int64, derivedPath, status string) error
	Delete(ctx context.Context, id int64) error
}

// StoryResolver resolves a story into its policy descriptor. Attachments
// are authorized against the parent story, never on their own.
type StoryResolver interface {
	ResolveResource(ctx context.Context, storyID int64) (policy.Resource, error)
}

// Enqueuer submits background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task) error
}

// Service coordinates attachment metadata. Binary storage is external; this
// service records metadata and schedules derivative generation.
type Service struct {
	repo     RepositoryPort
	stories  StoryResolver
	guard    *content.Guard
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewService builds a Service.
func NewService(repo RepositoryPort, stories StoryResolver, guard *content.Guard, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, stories: stories, guard: guard, enqueuer: enqueuer, logger: logger}
}

func (s *Service) storyResource(ctx context.Context, storyID int64) (policy.Resource, error) {
	res, err := s.stories.ResolveResource(ctx, storyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return policy.Resource{}, httpx.ErrNotFound
		}
		return policy.Resource{}, err
	}
	return res, nil
}

// ListByStory returns the attachments on a story the actor may read.
func (s *Service) ListByStory(ctx context.Context, actor policy.Actor, storyID int64) ([]Attachment, error) {
	res, err := s.storyResource(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, actor, res, policy.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListByStory(ctx, storyID)
}

// Attach records new media metadata and schedules derivative generation.
// Attaching is a write against the parent story.
func (s *Service) Attach(ctx context.Context, actor policy.Actor, in AttachInput) (Attachment, error) {
	if in.Filename == "" || in.StoragePath == "" {
		return Attachment{}, fmt.Errorf("%w: filename and storage path required", httpx.ErrValidation)
	}
	res, err := s.storyResource(ctx, in.StoryID)
	if err != nil {
		return Attachment{}, err
	}
	if err := s.guard.Authorize(ctx, actor, res, policy.OpWrite); err != nil {
		return Attachment{}, err
	}
	attachment, err := s.repo.Create(ctx, Attachment{
		CommunityID: res.CommunityID,
		CreatorID:   actor.ID,
		StoryID:     in.StoryID,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		StoragePath: in.StoragePath,
		Status:      StatusPending,
	})
	if err != nil {
		return Attachment{}, err
	}
	task, err := jobs.NewMediaDeriveTask(jobs.MediaDerivePayload{
		MediaID:     attachment.ID,
		CommunityID: attachment.CommunityID,
	})
	if err == nil && s.enqueuer != nil {
		err = s.enqueuer.Enqueue(ctx, task)
	}
	if err != nil {
		// The attachment stands; derivatives can be regenerated later.
		s.logger.Warn("enqueue media derive",
			slog.Int64("media_id", attachment.ID), slog.Any("error", err))
	}
	return attachment, nil
}

// Detach removes attachment metadata. A delete against the parent story.
func (s *Service) Detach(ctx context.Context, actor policy.Actor, id int64) error {
	attachment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	res, err := s.storyResource(ctx, attachment.StoryID)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(ctx, actor, res, policy.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
