package users

import (
	"context"
	"errors"
	"testing"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

type stubRepo struct {
	users  map[int64]User
	nextID int64
}

func newStubRepo(users ...User) *stubRepo {
	r := &stubRepo{users: make(map[int64]User), nextID: 100}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

func (r *stubRepo) ListByCommunity(ctx context.Context, communityID int64) ([]User, error) {
	var result []User
	for _, u := range r.users {
		if u.CommunityID == communityID {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *stubRepo) Create(ctx context.Context, u User) (User, error) {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u, nil
}

func (r *stubRepo) UpdateRole(ctx context.Context, id int64, role policy.Role) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *stubRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func TestOnlyAdminManagesRoster(t *testing.T) {
	repo := newStubRepo(User{ID: 1, CommunityID: 1, Email: "m@example.org", Role: policy.RoleViewer, IsActive: true})
	svc := NewService(repo)

	editor := policy.Actor{ID: 7, Role: policy.RoleEditor, CommunityID: 1}
	if _, err := svc.List(context.Background(), editor); !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("editor roster access should be forbidden, got %v", err)
	}

	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	roster, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 member, got %d", len(roster))
	}
}

func TestCrossCommunityRoleChangeHidden(t *testing.T) {
	repo := newStubRepo(User{ID: 1, CommunityID: 2, Email: "o@example.org", Role: policy.RoleViewer, IsActive: true})
	svc := NewService(repo)

	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	err := svc.ChangeRole(context.Background(), admin, 1, policy.RoleEditor)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("foreign-community member must look nonexistent, got %v", err)
	}
}

func TestOnlyOperatorMintsOperator(t *testing.T) {
	svc := NewService(newStubRepo())

	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	_, err := svc.Create(context.Background(), admin, CreateInput{
		Email: "x@example.org", Name: "X", Role: policy.RoleSuperAdmin, Password: "longenough",
	})
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("admin minting an operator should be forbidden, got %v", err)
	}

	operator := policy.Actor{ID: 1, Role: policy.RoleSuperAdmin}
	created, err := svc.Create(context.Background(), operator, CreateInput{
		CommunityID: 1, Email: "y@example.org", Name: "Y", Role: policy.RoleSuperAdmin, Password: "longenough",
	})
	if err != nil {
		t.Fatalf("operator create: %v", err)
	}
	if created.CommunityID != 0 {
		t.Fatalf("platform operators carry no community, got %d", created.CommunityID)
	}
	if created.PasswordHash == "longenough" || created.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(newStubRepo())
	admin := policy.Actor{ID: 5, Role: policy.RoleAdmin, CommunityID: 1}
	_, err := svc.Create(context.Background(), admin, CreateInput{
		Email: "z@example.org", Name: "Z", Role: policy.RoleViewer, Password: "short",
	})
	if !errors.Is(err, httpx.ErrValidation) {
		t.Fatalf("short password should fail validation, got %v", err)
	}
}
