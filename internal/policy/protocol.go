package policy

// PermissionLevel is the visibility tier a community assigns to a piece of
// content through its cultural protocol.
type PermissionLevel string

const (
	LevelPublic     PermissionLevel = "public"
	LevelCommunity  PermissionLevel = "community"
	LevelRestricted PermissionLevel = "restricted"
	LevelElderOnly  PermissionLevel = "elder_only"
)

// Valid reports whether l is a known permission level.
func (l PermissionLevel) Valid() bool {
	switch l {
	case LevelPublic, LevelCommunity, LevelRestricted, LevelElderOnly:
		return true
	}
	return false
}

// Protocol is the per-resource cultural protocol descriptor attached to every
// story, place, speaker and theme record.
type Protocol struct {
	PermissionLevel       PermissionLevel
	CeremonialContent     bool
	ElderApprovalRequired bool
}

// Restricted derives the restriction flag from the protocol fields. This is
// the only place the flag is computed; persisted is_restricted columns are
// written from this method on every create and update, never set by hand.
func (p Protocol) Restricted() bool {
	return p.PermissionLevel == LevelRestricted ||
		p.PermissionLevel == LevelElderOnly ||
		p.CeremonialContent
}

// PubliclyVisible reports whether the resource qualifies for the
// unauthenticated public listing: public tier and no restriction of any kind.
// The public read path filters on this and never consults Evaluate.
func (p Protocol) PubliclyVisible() bool {
	return p.PermissionLevel == LevelPublic && !p.Restricted()
}

// elderGateRoles is the exact allow-list for elder_only and ceremonial
// content. Admins are community-appointed data stewards and pass alongside
// elders; this is deliberately not a rank comparison so that editor and
// viewer can never qualify under any future reordering of the hierarchy.
func elderGatePasses(role Role) bool {
	return role == RoleElder || role == RoleAdmin
}

// checkProtocol evaluates the cultural protocol tiers in fixed order, first
// match wins. A passing result only means the tiers do not object; role and
// operation eligibility is checked separately.
func checkProtocol(p Protocol, role Role, op Operation) Decision {
	if p.PermissionLevel == LevelElderOnly && !elderGatePasses(role) {
		return deny(ReasonElderOnly, "content is designated elder-only")
	}
	if p.CeremonialContent && !elderGatePasses(role) {
		return deny(ReasonCeremonialRestricted, "ceremonial content requires elder or admin access")
	}
	if p.ElderApprovalRequired && op == OpWrite && role != RoleElder {
		return deny(ReasonElderApprovalRequired, "changes to this content require elder approval")
	}
	return allow()
}
