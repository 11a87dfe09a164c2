package stories

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
	stories map[int64]Story
	nextID  int64
	deleted []int64
}

func newStubRepo(stories ...Story) *stubRepo {
	r := &stubRepo{stories: make(map[int64]Story), nextID: 100}
	for _, s := range stories {
		r.stories[s.ID] = s
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (Story, error) {
	s, ok := r.stories[id]
	if !ok {
		return Story{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *stubRepo) ListByCommunity(ctx context.Context, communityID int64, filter ListFilter) ([]Story, error) {
	var result []Story
	for _, s := range r.stories {
		if s.CommunityID == communityID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *stubRepo) ListPublic(ctx context.Context, communityID int64) ([]Story, error) {
	var result []Story
	for _, s := range r.stories {
		if s.CommunityID == communityID && s.Protocol.PubliclyVisible() {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, s Story) (Story, error) {
	r.nextID++
	s.ID = r.nextID
	r.stories[s.ID] = s
	return s, nil
}

func (r *stubRepo) Update(ctx context.Context, s Story) (Story, error) {
	if _, ok := r.stories[s.ID]; !ok {
		return Story{}, shared.ErrNotFound
	}
	r.stories[s.ID] = s
	return s, nil
}

func (r *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.stories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.stories, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type captureAuditor struct {
	records []policy.AuditRecord
}

func (c *captureAuditor) Record(ctx context.Context, rec policy.AuditRecord) error {
	c.records = append(c.records, rec)
	return nil
}

func newService(repo *stubRepo) (*Service, *captureAuditor) {
	auditor := &captureAuditor{}
	guard := content.NewGuard(auditor, nil, slog.Default())
	return NewService(repo, guard, nil), auditor
}

func story(id, community, creator int64, title string, proto policy.Protocol) Story {
	return Story{
		ID: id, CommunityID: community, CreatorID: creator,
		Title: title, Protocol: proto, IsRestricted: proto.Restricted(),
	}
}

func TestGetEnforcesCommunityScope(t *testing.T) {
	repo := newStubRepo(story(1, 1, 2, "River crossing", policy.Protocol{PermissionLevel: policy.LevelPublic}))
	svc, auditor := newService(repo)

	outsider := policy.Actor{ID: 9, Role: policy.RoleAdmin, CommunityID: 2}
	_, err := svc.Get(context.Background(), outsider, 1)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("cross-community get should be not-found, got %v", err)
	}
	if len(auditor.records) != 1 || auditor.records[0].Decision.Reason != policy.ReasonCommunityMismatch {
		t.Fatalf("expected audited COMMUNITY_MISMATCH")
	}
}

func TestGetMissingStoryIsNotAudited(t *testing.T) {
	svc, auditor := newService(newStubRepo())
	_, err := svc.Get(context.Background(), policy.Actor{ID: 1, Role: policy.RoleViewer, CommunityID: 1}, 404)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(auditor.records) != 0 {
		t.Fatalf("no resource loaded means no decision to audit")
	}
}

func TestListFiltersByProtocolTier(t *testing.T) {
	repo := newStubRepo(
		story(1, 1, 2, "Basket weaving", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
		story(2, 1, 2, "Winter ceremony", policy.Protocol{PermissionLevel: policy.LevelElderOnly}),
		story(3, 1, 2, "Ceremonial songs", policy.Protocol{PermissionLevel: policy.LevelCommunity, CeremonialContent: true}),
		story(4, 2, 5, "Other community", policy.Protocol{PermissionLevel: policy.LevelPublic}),
	)
	svc, _ := newService(repo)

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	result, err := svc.List(context.Background(), viewer, "en", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Stories) != 1 || result.Stories[0].ID != 1 {
		t.Fatalf("viewer should see only the community story, got %+v", result.Stories)
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	result, err = svc.List(context.Background(), elder, "en", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Stories) != 3 {
		t.Fatalf("elder should see all community-1 stories, got %d", len(result.Stories))
	}
}

func TestListSortsByCollatedTitle(t *testing.T) {
	repo := newStubRepo(
		story(1, 1, 2, "Ørret fishing", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
		story(2, 1, 2, "apple harvest", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
		story(3, 1, 2, "Bear hunt", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
	)
	svc, _ := newService(repo)
	result, err := svc.List(context.Background(), policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}, "en", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Stories[0].Title != "apple harvest" || result.Stories[1].Title != "Bear hunt" {
		t.Fatalf("expected case-insensitive collated order, got %q %q %q",
			result.Stories[0].Title, result.Stories[1].Title, result.Stories[2].Title)
	}
}

func TestCreateDerivesRestrictionFlag(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newService(repo)

	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	created, err := svc.Create(context.Background(), editor, CreateInput{
		Title:             "Moon ceremony",
		PermissionLevel:   policy.LevelCommunity,
		CeremonialContent: false,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.IsRestricted {
		t.Fatalf("community-level story should not be restricted")
	}
	if created.CreatorID != 7 || created.CommunityID != 1 {
		t.Fatalf("creator/community should come from the actor, got %+v", created)
	}
}

func TestCreateRejectsViewer(t *testing.T) {
	svc, auditor := newService(newStubRepo())
	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	_, err := svc.Create(context.Background(), viewer, CreateInput{Title: "x", PermissionLevel: policy.LevelPublic})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("viewer create should be forbidden, got %v", err)
	}
	if len(auditor.records) != 1 || auditor.records[0].Decision.Reason != policy.ReasonRoleInsufficient {
		t.Fatalf("expected audited ROLE_INSUFFICIENT")
	}
}

func TestCreateValidatesProposedProtocol(t *testing.T) {
	svc, _ := newService(newStubRepo())
	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	_, err := svc.Create(context.Background(), editor, CreateInput{
		Title:           "Hidden ceremony",
		PermissionLevel: policy.LevelElderOnly,
	})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("editor creating elder-only content should be forbidden, got %v", err)
	}
}

func TestCreateRejectsUnknownPermissionLevel(t *testing.T) {
	svc, _ := newService(newStubRepo())
	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	_, err := svc.Create(context.Background(), editor, CreateInput{Title: "x", PermissionLevel: "secret"})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateEditorSelfScoping(t *testing.T) {
	repo := newStubRepo(story(1, 1, 7, "Mine", policy.Protocol{PermissionLevel: policy.LevelCommunity}))
	svc, _ := newService(repo)

	title := "Renamed"
	creator := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	updated, err := svc.Update(context.Background(), creator, 1, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("creator update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("title not applied")
	}

	other := policy.Actor{ID: 8, Role: policy.RoleEditor, CommunityID: 1}
	_, err = svc.Update(context.Background(), other, 1, UpdateInput{Title: &title})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("non-creator editor update should be forbidden, got %v", err)
	}
}

func TestUpdateRecomputesRestrictionFlag(t *testing.T) {
	repo := newStubRepo(story(1, 1, 7, "Songs", policy.Protocol{PermissionLevel: policy.LevelCommunity}))
	svc, _ := newService(repo)

	ceremonial := true
	admin := policy.Actor{ID: 2, Role: policy.RoleAdmin, CommunityID: 1}
	updated, err := svc.Update(context.Background(), admin, 1, UpdateInput{CeremonialContent: &ceremonial})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsRestricted {
		t.Fatalf("marking content ceremonial must set the derived restriction flag")
	}

	// And loosening recomputes it back.
	notCeremonial := false
	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	updated, err = svc.Update(context.Background(), elder, 1, UpdateInput{CeremonialContent: &notCeremonial})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsRestricted {
		t.Fatalf("restriction flag must track the protocol")
	}
}

func TestDeleteAuthorized(t *testing.T) {
	repo := newStubRepo(story(1, 1, 7, "Old story", policy.Protocol{PermissionLevel: policy.LevelCommunity}))
	svc, _ := newService(repo)

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	if err := svc.Delete(context.Background(), viewer, 1); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("viewer delete should be forbidden, got %v", err)
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	if err := svc.Delete(context.Background(), elder, 1); err != nil {
		t.Fatalf("elder delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Fatalf("expected story 1 deleted")
	}
}

func TestPublicListExcludesRestricted(t *testing.T) {
	repo := newStubRepo(
		story(1, 1, 2, "Public walk", policy.Protocol{PermissionLevel: policy.LevelPublic}),
		story(2, 1, 2, "Public but ceremonial", policy.Protocol{PermissionLevel: policy.LevelPublic, CeremonialContent: true}),
		story(3, 1, 2, "Community only", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
	)
	svc, auditor := newService(repo)

	stories, err := svc.ListPublic(context.Background(), 1, "en")
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if len(stories) != 1 || stories[0].ID != 1 {
		t.Fatalf("public list should contain only unrestricted public stories, got %+v", stories)
	}
	if len(auditor.records) != 0 {
		t.Fatalf("public path must never invoke the policy engine")
	}
}

func TestSuperAdminBlockedFromEveryServiceOp(t *testing.T) {
	repo := newStubRepo(story(1, 1, 7, "Story", policy.Protocol{PermissionLevel: policy.LevelPublic}))
	svc, auditor := newService(repo)
	super := policy.Actor{ID: 1, Role: policy.RoleSuperAdmin}

	if _, err := svc.Get(context.Background(), super, 1); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("super_admin get should look like not-found, got %v", err)
	}
	if _, err := svc.Create(context.Background(), super, CreateInput{Title: "x", PermissionLevel: policy.LevelPublic}); err == nil {
		t.Fatalf("super_admin create should fail")
	}
	if err := svc.Delete(context.Background(), super, 1); err == nil {
		t.Fatalf("super_admin delete should fail")
	}
	for _, rec := range auditor.records {
		if rec.Decision.Reason != policy.ReasonSovereigntyBlock {
			t.Fatalf("expected SOVEREIGNTY_BLOCK in every audit record, got %s", rec.Decision.Reason)
		}
	}
	if len(auditor.records) == 0 {
		t.Fatalf("sovereignty denials must be audited")
	}
}
