package content

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
)

type captureAuditor struct {
	records []policy.AuditRecord
	err     error
}

func (c *captureAuditor) Record(ctx context.Context, rec policy.AuditRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

func testResource() policy.Resource {
	return policy.Resource{
		ID:          1,
		Type:        policy.TypeStory,
		CommunityID: 1,
		CreatorID:   2,
		Protocol:    policy.Protocol{PermissionLevel: policy.LevelCommunity},
	}
}

func TestAuthorizeAllowsAndAudits(t *testing.T) {
	auditor := &captureAuditor{}
	g := NewGuard(auditor, nil, slog.Default())

	actor := policy.Actor{ID: 2, Role: policy.RoleEditor, CommunityID: 1}
	if err := g.Authorize(context.Background(), actor, testResource(), policy.OpRead); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if len(auditor.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditor.records))
	}
	if !auditor.records[0].Decision.Allowed {
		t.Fatalf("expected allow in audit record")
	}
}

func TestAuthorizeAuditsDenials(t *testing.T) {
	auditor := &captureAuditor{}
	g := NewGuard(auditor, nil, slog.Default())

	actor := policy.Actor{ID: 2, Role: policy.RoleViewer, CommunityID: 1}
	err := g.Authorize(context.Background(), actor, testResource(), policy.OpDelete)
	if !errors.Is(err, httpx.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(auditor.records) != 1 || auditor.records[0].Decision.Allowed {
		t.Fatalf("denial must be audited")
	}
}

func TestCrossCommunityDenialMapsToNotFound(t *testing.T) {
	g := NewGuard(&captureAuditor{}, nil, slog.Default())

	actor := policy.Actor{ID: 2, Role: policy.RoleAdmin, CommunityID: 9}
	err := g.Authorize(context.Background(), actor, testResource(), policy.OpRead)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("cross-community access must look like not-found, got %v", err)
	}
}

func TestSovereigntyDenialMapsToNotFound(t *testing.T) {
	g := NewGuard(&captureAuditor{}, nil, slog.Default())

	actor := policy.Actor{ID: 2, Role: policy.RoleSuperAdmin}
	err := g.Authorize(context.Background(), actor, testResource(), policy.OpRead)
	if !errors.Is(err, httpx.ErrNotFound) {
		t.Fatalf("sovereignty block must look like not-found, got %v", err)
	}
}

func TestAuditFailureDoesNotBlockDecision(t *testing.T) {
	auditor := &captureAuditor{err: errors.New("sink down")}
	g := NewGuard(auditor, nil, slog.Default())

	actor := policy.Actor{ID: 2, Role: policy.RoleEditor, CommunityID: 1}
	if err := g.Authorize(context.Background(), actor, testResource(), policy.OpRead); err != nil {
		t.Fatalf("audit failure should not fail the request: %v", err)
	}
}

func TestReadableFiltersWithoutAuditing(t *testing.T) {
	auditor := &captureAuditor{}
	g := NewGuard(auditor, nil, slog.Default())

	elderOnly := testResource()
	elderOnly.Protocol = policy.Protocol{PermissionLevel: policy.LevelElderOnly}

	viewer := policy.Actor{ID: 3, Role: policy.RoleViewer, CommunityID: 1}
	if g.Readable(viewer, elderOnly) {
		t.Fatalf("viewer should not read elder-only content")
	}
	elder := policy.Actor{ID: 4, Role: policy.RoleElder, CommunityID: 1}
	if !g.Readable(elder, elderOnly) {
		t.Fatalf("elder should read elder-only content")
	}
	if len(auditor.records) != 0 {
		t.Fatalf("list filtering must not produce audit records")
	}
}
