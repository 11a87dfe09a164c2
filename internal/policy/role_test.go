package policy

import "testing"

func TestRoleRanks(t *testing.T) {
	order := []Role{RoleViewer, RoleElder, RoleEditor, RoleAdmin, RoleSuperAdmin}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("%s should outrank %s", order[i], order[i-1])
		}
	}
}

func TestAtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleEditor) {
		t.Fatalf("admin should be at least editor")
	}
	if RoleViewer.AtLeast(RoleElder) {
		t.Fatalf("viewer should not be at least elder")
	}
	if Role("owner").AtLeast(RoleViewer) {
		t.Fatalf("unknown role should never satisfy AtLeast")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("elder"); !ok || r != RoleElder {
		t.Fatalf("expected elder, got %q ok=%v", r, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatalf("superuser should not parse")
	}
	if _, ok := ParseRole(""); ok {
		t.Fatalf("empty role should not parse")
	}
}

func TestRestrictedDerivation(t *testing.T) {
	cases := []struct {
		name string
		p    Protocol
		want bool
	}{
		{"public", Protocol{PermissionLevel: LevelPublic}, false},
		{"community", Protocol{PermissionLevel: LevelCommunity}, false},
		{"restricted", Protocol{PermissionLevel: LevelRestricted}, true},
		{"elder_only", Protocol{PermissionLevel: LevelElderOnly}, true},
		{"public ceremonial", Protocol{PermissionLevel: LevelPublic, CeremonialContent: true}, true},
		{"community ceremonial", Protocol{PermissionLevel: LevelCommunity, CeremonialContent: true}, true},
	}
	for _, tc := range cases {
		if got := tc.p.Restricted(); got != tc.want {
			t.Fatalf("%s: expected restricted=%v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPubliclyVisible(t *testing.T) {
	if !(Protocol{PermissionLevel: LevelPublic}).PubliclyVisible() {
		t.Fatalf("plain public protocol should be publicly visible")
	}
	if (Protocol{PermissionLevel: LevelPublic, CeremonialContent: true}).PubliclyVisible() {
		t.Fatalf("ceremonial content must never be publicly visible")
	}
	if (Protocol{PermissionLevel: LevelCommunity}).PubliclyVisible() {
		t.Fatalf("community tier must not be publicly visible")
	}
}
