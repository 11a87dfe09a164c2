// Package policy implements the cultural access control and data sovereignty
// engine. It decides, for every read, write, delete and create on
// community-owned content, whether an actor may perform the operation.
//
// The engine is pure: no I/O, no shared state, no caching. Callers load a
// consistent snapshot of actor and resource, call Evaluate, enforce the
// returned Decision before touching storage, and forward the matching
// AuditRecord to the audit sink whether the decision was allow or deny.
package policy

import "fmt"

// Operation enumerates the content operations the engine rules on.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
	OpCreate Operation = "create"
)

// ResourceType identifies which content table a resource descriptor came from.
type ResourceType string

const (
	TypeStory   ResourceType = "story"
	TypePlace   ResourceType = "place"
	TypeSpeaker ResourceType = "speaker"
	TypeTheme   ResourceType = "theme"
)

// Actor is the resolved identity attempting an operation. CommunityID is zero
// only for super_admin, which holds no community membership.
type Actor struct {
	ID          int64
	Role        Role
	CommunityID int64
}

// Resource describes the content record an operation targets. For create,
// where no stored record exists yet, the caller builds a descriptor from the
// request input: the target community, the proposed protocol, and a zero ID.
type Resource struct {
	ID          int64
	Type        ResourceType
	CommunityID int64
	CreatorID   int64
	Protocol    Protocol
}

// Evaluate runs the fixed guard pipeline and returns the first denial, or an
// allow if every guard passes. Guard order is part of the contract:
//
//  1. data sovereignty (super_admin is blocked outright)
//  2. community scope (actor and resource must share a tenant)
//  3. cultural protocol tiers (for create, applied to the proposed protocol)
//  4. role/operation eligibility
func Evaluate(actor Actor, resource Resource, op Operation) Decision {
	if d := checkSovereignty(actor); !d.Allowed {
		return d
	}
	if d := checkCommunity(actor, resource); !d.Allowed {
		return d
	}
	if d := checkProtocol(resource.Protocol, actor.Role, op); !d.Allowed {
		return d
	}
	return checkRoleOperation(actor, resource, op)
}

// checkSovereignty blocks the platform-wide super_admin role from every
// community-content operation. There is no configuration, flag or
// impersonation path around this guard; it is the mechanism guaranteeing
// platform operators structurally cannot read community-governed content.
func checkSovereignty(actor Actor) Decision {
	if actor.Role == RoleSuperAdmin {
		return deny(ReasonSovereigntyBlock, "platform administrators cannot access community content")
	}
	return allow()
}

// checkCommunity enforces tenant isolation: exact community id equality, for
// every operation including read. A zero community id on either side (a
// precondition violation for non-super_admin actors) denies rather than
// panics, keeping Evaluate total over its input type.
func checkCommunity(actor Actor, resource Resource) Decision {
	if actor.CommunityID == 0 || resource.CommunityID == 0 || actor.CommunityID != resource.CommunityID {
		return deny(ReasonCommunityMismatch,
			fmt.Sprintf("actor community %d cannot operate on community %d content", actor.CommunityID, resource.CommunityID))
	}
	return allow()
}

// checkRoleOperation applies per-operation role eligibility after the guards
// have passed.
func checkRoleOperation(actor Actor, resource Resource, op Operation) Decision {
	if !actor.Role.Valid() {
		return deny(ReasonRoleInsufficient, "unknown role")
	}
	switch op {
	case OpRead:
		// No role gate beyond the guards: any in-community role may read
		// what the protocol tiers allow.
		return allow()
	case OpCreate:
		switch actor.Role {
		case RoleAdmin, RoleElder, RoleEditor:
			return allow()
		}
		return deny(ReasonRoleInsufficient, "role may not create content")
	case OpWrite, OpDelete:
		switch actor.Role {
		case RoleAdmin, RoleElder:
			return allow()
		case RoleEditor:
			if actor.ID == resource.CreatorID {
				return allow()
			}
			return deny(ReasonNotCreator, "editors may only modify content they created")
		}
		return deny(ReasonRoleInsufficient, "role may not modify content")
	}
	return deny(ReasonRoleInsufficient, fmt.Sprintf("unknown operation %q", op))
}
