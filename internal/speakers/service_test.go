package speakers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/storykeep/storykeep/internal/content"
	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

type stubRepo struct {
	speakers map[int64]Speaker
	nextID   int64
}

func newStubRepo(speakers ...Speaker) *stubRepo {
	r := &stubRepo{speakers: make(map[int64]Speaker), nextID: 100}
	for _, s := range speakers {
		r.speakers[s.ID] = s
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (Speaker, error) {
	s, ok := r.speakers[id]
	if !ok {
		return Speaker{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *stubRepo) ListByCommunity(ctx context.Context, communityID int64) ([]Speaker, error) {
	var result []Speaker
	for _, s := range r.speakers {
		if s.CommunityID == communityID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, s Speaker) (Speaker, error) {
	r.nextID++
	s.ID = r.nextID
	r.speakers[s.ID] = s
	return s, nil
}

func (r *stubRepo) Update(ctx context.Context, s Speaker) (Speaker, error) {
	if _, ok := r.speakers[s.ID]; !ok {
		return Speaker{}, shared.ErrNotFound
	}
	r.speakers[s.ID] = s
	return s, nil
}

func (r *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.speakers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.speakers, id)
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(ctx context.Context, rec policy.AuditRecord) error { return nil }

func newService(repo *stubRepo) *Service {
	return NewService(repo, content.NewGuard(nopAuditor{}, nil, slog.Default()))
}

func TestElderOnlySpeakerHiddenFromViewer(t *testing.T) {
	repo := newStubRepo(
		Speaker{ID: 1, CommunityID: 1, CreatorID: 2, Name: "Mary",
			Protocol: policy.Protocol{PermissionLevel: policy.LevelCommunity}},
		Speaker{ID: 2, CommunityID: 1, CreatorID: 2, Name: "Joseph",
			Protocol:     policy.Protocol{PermissionLevel: policy.LevelElderOnly},
			IsRestricted: true},
	)
	svc := newService(repo)

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	result, err := svc.List(context.Background(), viewer)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result) != 1 || result[0].ID != 1 {
		t.Fatalf("elder-only speaker must be absent from viewer listing, got %+v", result)
	}

	if _, err := svc.Get(context.Background(), viewer, 2); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("direct fetch of elder-only speaker should be forbidden, got %v", err)
	}
}

func TestEditorCannotDeleteOthersSpeaker(t *testing.T) {
	repo := newStubRepo(Speaker{ID: 1, CommunityID: 1, CreatorID: 2, Name: "Anna",
		Protocol: policy.Protocol{PermissionLevel: policy.LevelCommunity}})
	svc := newService(repo)

	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	if err := svc.Delete(context.Background(), editor, 1); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("editor deleting another's speaker should be forbidden, got %v", err)
	}

	creator := policy.Actor{ID: 2, Role: policy.RoleEditor, CommunityID: 1}
	if err := svc.Delete(context.Background(), creator, 1); err != nil {
		t.Fatalf("creator delete: %v", err)
	}
}

func TestCreateValidatesProposedProtocol(t *testing.T) {
	svc := newService(newStubRepo())
	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}

	_, err := svc.Create(context.Background(), editor, CreateInput{
		Name:            "Thomas",
		PermissionLevel: policy.LevelElderOnly,
	})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("editor creating elder-only speaker should be forbidden, got %v", err)
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	created, err := svc.Create(context.Background(), elder, CreateInput{
		Name:            "Thomas",
		PermissionLevel: policy.LevelElderOnly,
	})
	if err != nil {
		t.Fatalf("elder create: %v", err)
	}
	if !created.IsRestricted {
		t.Fatalf("elder-only speaker must carry the restriction flag")
	}
}
