package media

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

type stubRepo struct {
	attachments map[int64]Attachment
	nextID      int64
}

func newStubRepo(list ...Attachment) *stubRepo {
	r := &stubRepo{attachments: make(map[int64]Attachment), nextID: 100}
	for _, a := range list {
		r.attachments[a.ID] = a
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return Attachment{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *stubRepo) ListByStory(ctx context.Context, storyID int64) ([]Attachment, error) {
	var result []Attachment
	for _, a := range r.attachments {
		if a.StoryID == storyID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, a Attachment) (Attachment, error) {
	r.nextID++
	a.ID = r.nextID
	r.attachments[a.ID] = a
	return a, nil
}

func (r *stubRepo) SetDerived(ctx context.Context, id int64, derivedPath, status string) error {
	a, ok := r.attachments[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.DerivedPath = derivedPath
	a.Status = status
	r.attachments[id] = a
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.attachments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.attachments, id)
	return nil
}

type stubResolver struct {
	resources map[int64]policy.Resource
}

func (s *stubResolver) ResolveResource(ctx context.Context, storyID int64) (policy.Resource, error) {
	res, ok := s.resources[storyID]
	if !ok {
		return policy.Resource{}, shared.ErrNotFound
	}
	return res, nil
}

type captureEnqueuer struct {
	tasks []*asynq.Task
}

func (c *captureEnqueuer) Enqueue(ctx context.Context, task *asynq.Task) error {
	c.tasks = append(c.tasks, task)
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(ctx context.Context, rec policy.AuditRecord) error { return nil }

func storyResource(id, community int64, proto policy.Protocol) policy.Resource {
	return policy.Resource{ID: id, Type: policy.TypeStory, CommunityID: community, CreatorID: 2, Protocol: proto}
}

func newService(repo *stubRepo, resolver *stubResolver, enqueuer Enqueuer) *Service {
	guard := content.NewGuard(nopAuditor{}, nil, slog.Default())
	return NewService(repo, resolver, guard, enqueuer, slog.Default())
}

func TestAttachFollowsStoryProtocol(t *testing.T) {
	resolver := &stubResolver{resources: map[int64]policy.Resource{
		1: storyResource(1, 1, policy.Protocol{PermissionLevel: policy.LevelElderOnly}),
	}}
	repo := newStubRepo()
	enq := &captureEnqueuer{}
	svc := newService(repo, resolver, enq)

	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	_, err := svc.Attach(context.Background(), editor, AttachInput{
		StoryID: 1, Filename: "song.mp3", ContentType: "audio/mpeg", StoragePath: "media/1/song.mp3",
	})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("attach to elder-only story by editor should be forbidden, got %v", err)
	}
	if len(enq.tasks) != 0 {
		t.Fatalf("denied attach must not enqueue derivative work")
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	attachment, err := svc.Attach(context.Background(), elder, AttachInput{
		StoryID: 1, Filename: "song.mp3", ContentType: "audio/mpeg", StoragePath: "media/1/song.mp3",
	})
	if err != nil {
		t.Fatalf("elder attach: %v", err)
	}
	if attachment.Status != StatusPending {
		t.Fatalf("new attachment should be pending, got %q", attachment.Status)
	}
	if len(enq.tasks) != 1 {
		t.Fatalf("expected one queued derivative task, got %d", len(enq.tasks))
	}
}

func TestListFollowsStoryRead(t *testing.T) {
	resolver := &stubResolver{resources: map[int64]policy.Resource{
		1: storyResource(1, 1, policy.Protocol{PermissionLevel: policy.LevelCommunity}),
	}}
	repo := newStubRepo(Attachment{ID: 1, CommunityID: 1, StoryID: 1, Filename: "a.jpg", Status: StatusReady})
	svc := newService(repo, resolver, &captureEnqueuer{})

	outsider := policy.Actor{ID: 9, Role: policy.RoleAdmin, CommunityID: 2}
	if _, err := svc.ListByStory(context.Background(), outsider, 1); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("cross-community media listing must look nonexistent, got %v", err)
	}

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	list, err := svc.ListByStory(context.Background(), viewer, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(list))
	}
}

func TestDeriveTaskHandler(t *testing.T) {
	repo := newStubRepo(Attachment{ID: 1, CommunityID: 1, StoryID: 1,
		StoragePath: "media/1/song.mp3", Status: StatusPending})
	handler := DeriveTaskHandler(slog.Default(), repo, NewPathDeriver())

	task := asynq.NewTask("media:derive", []byte(`{"media_id":1,"community_id":1}`))
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handler: %v", err)
	}
	got, _ := repo.Get(context.Background(), 1)
	if got.Status != StatusReady {
		t.Fatalf("attachment should be ready, got %q", got.Status)
	}
	if got.DerivedPath != "media/1/song.derived.mp3" {
		t.Fatalf("unexpected derived path %q", got.DerivedPath)
	}
}

func TestDeriveTaskBadPayloadSkipsRetry(t *testing.T) {
	handler := DeriveTaskHandler(slog.Default(), newStubRepo(), NewPathDeriver())
	task := asynq.NewTask("media:derive", []byte(`not json`))
	err := handler(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}
