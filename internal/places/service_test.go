package places

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
	places map[int64]Place
	nextID int64
}

func newStubRepo(places ...Place) *stubRepo {
	r := &stubRepo{places: make(map[int64]Place), nextID: 100}
	for _, p := range places {
		r.places[p.ID] = p
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (Place, error) {
	p, ok := r.places[id]
	if !ok {
		return Place{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *stubRepo) ListByCommunity(ctx context.Context, communityID int64) ([]Place, error) {
	var result []Place
	for _, p := range r.places {
		if p.CommunityID == communityID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *stubRepo) ListPublic(ctx context.Context, communityID int64) ([]Place, error) {
	var result []Place
	for _, p := range r.places {
		if p.CommunityID == communityID && p.Protocol.PubliclyVisible() {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, p Place) (Place, error) {
	r.nextID++
	p.ID = r.nextID
	r.places[p.ID] = p
	return p, nil
}

func (r *stubRepo) Update(ctx context.Context, p Place) (Place, error) {
	if _, ok := r.places[p.ID]; !ok {
		return Place{}, shared.ErrNotFound
	}
	r.places[p.ID] = p
	return p, nil
}

func (r *stubRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.places[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.places, id)
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(ctx context.Context, rec policy.AuditRecord) error { return nil }

func newService(repo *stubRepo) *Service {
	return NewService(repo, content.NewGuard(nopAuditor{}, nil, slog.Default()))
}

func place(id, community int64, name string, proto policy.Protocol) Place {
	return Place{ID: id, CommunityID: community, CreatorID: 2, Name: name,
		Latitude: 52.1, Longitude: -106.6, Protocol: proto, IsRestricted: proto.Restricted()}
}

func TestListHidesRestrictedSites(t *testing.T) {
	repo := newStubRepo(
		place(1, 1, "Gathering ground", policy.Protocol{PermissionLevel: policy.LevelCommunity}),
		place(2, 1, "Ceremony site", policy.Protocol{PermissionLevel: policy.LevelElderOnly, CeremonialContent: true}),
	)
	svc := newService(repo)

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	result, err := svc.List(context.Background(), viewer)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result) != 1 || result[0].ID != 1 {
		t.Fatalf("restricted site must be absent from viewer listing, got %+v", result)
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	result, err = svc.List(context.Background(), elder)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("elder should see both places, got %d", len(result))
	}
}

func TestCreateDerivesRestriction(t *testing.T) {
	svc := newService(newStubRepo())
	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	created, err := svc.Create(context.Background(), elder, CreateInput{
		Name:              "Sweat lodge",
		Latitude:          51.0,
		Longitude:         -105.0,
		PermissionLevel:   policy.LevelCommunity,
		CeremonialContent: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.IsRestricted {
		t.Fatalf("ceremonial place must be restricted")
	}
}

func TestCrossCommunityGetIsNotFound(t *testing.T) {
	repo := newStubRepo(place(1, 1, "Spring", policy.Protocol{PermissionLevel: policy.LevelPublic}))
	svc := newService(repo)
	outsider := policy.Actor{ID: 9, Role: policy.RoleElder, CommunityID: 2}
	if _, err := svc.Get(context.Background(), outsider, 1); !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestElderApprovalBlocksNonElderWrite(t *testing.T) {
	repo := newStubRepo(place(1, 1, "Riverbend", policy.Protocol{
		PermissionLevel: policy.LevelCommunity, ElderApprovalRequired: true}))
	svc := newService(repo)

	name := "Riverbend (updated)"
	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	if _, err := svc.Update(context.Background(), admin, 1, UpdateInput{Name: &name}); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("admin write under elder approval should be forbidden, got %v", err)
	}

	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	if _, err := svc.Update(context.Background(), elder, 1, UpdateInput{Name: &name}); err != nil {
		t.Fatalf("elder write: %v", err)
	}
}
