package communities

import (
	"context"
	"errors"
	"testing"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

type stubRepo struct {
	communities map[int64]Community
	nextID      int64
}

func newStubRepo(list ...Community) *stubRepo {
	r := &stubRepo{communities: make(map[int64]Community), nextID: 100}
	for _, c := range list {
		r.communities[c.ID] = c
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (Community, error) {
	c, ok := r.communities[id]
	if !ok {
		return Community{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *stubRepo) GetBySlug(ctx context.Context, slug string) (Community, error) {
	for _, c := range r.communities {
		if c.Slug == slug {
			return c, nil
		}
	}
	return Community{}, shared.ErrNotFound
}

func (r *stubRepo) ListPublic(ctx context.Context) ([]Community, error) {
	var result []Community
	for _, c := range r.communities {
		if c.IsPublic {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, c Community) (Community, error) {
	r.nextID++
	c.ID = r.nextID
	r.communities[c.ID] = c
	return c, nil
}

func (r *stubRepo) Update(ctx context.Context, c Community) (Community, error) {
	if _, ok := r.communities[c.ID]; !ok {
		return Community{}, shared.ErrNotFound
	}
	r.communities[c.ID] = c
	return c, nil
}

func TestOnlyOperatorProvisions(t *testing.T) {
	svc := NewService(newStubRepo())

	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	_, err := svc.Create(context.Background(), admin, CreateInput{Name: "New Nation", Slug: "new-nation"})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("admin provisioning should be forbidden, got %v", err)
	}

	operator := policy.Actor{ID: 1, Role: policy.RoleSuperAdmin}
	created, err := svc.Create(context.Background(), operator, CreateInput{
		Name: "New Nation", Slug: "new-nation", Locale: "cr-CA",
	})
	if err != nil {
		t.Fatalf("operator create: %v", err)
	}
	if created.Locale != "cr-CA" {
		t.Fatalf("locale should be canonicalized, got %q", created.Locale)
	}
}

func TestInvalidLocaleRejected(t *testing.T) {
	svc := NewService(newStubRepo())
	operator := policy.Actor{ID: 1, Role: policy.RoleSuperAdmin}
	_, err := svc.Create(context.Background(), operator, CreateInput{
		Name: "X", Slug: "x", Locale: "not a locale",
	})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("invalid locale should fail validation, got %v", err)
	}
}

func TestForeignCommunityProfileHidden(t *testing.T) {
	repo := newStubRepo(Community{ID: 2, Name: "Other", Slug: "other"})
	svc := NewService(repo)

	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	if _, err := svc.Get(context.Background(), admin, 2); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("foreign community profile must look nonexistent, got %v", err)
	}

	name := "Renamed"
	if _, err := svc.Update(context.Background(), admin, 2, UpdateInput{Name: &name}); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("foreign community update must look nonexistent, got %v", err)
	}
}

func TestDirectoryListsOnlyOptedIn(t *testing.T) {
	repo := newStubRepo(
		Community{ID: 1, Name: "Open Nation", Slug: "open", IsPublic: true},
		Community{ID: 2, Name: "Private Nation", Slug: "private"},
	)
	svc := NewService(repo)
	list, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("directory must list only opted-in communities, got %+v", list)
	}
}
