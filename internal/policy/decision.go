package policy

// ReasonCode is the closed set of machine-checkable outcomes a policy
// evaluation can produce. Callers switch on it; an unrecognized code is a
// defect in this package, not a caller concern.
type ReasonCode string

const (
	ReasonOK                    ReasonCode = "OK"
	ReasonSovereigntyBlock      ReasonCode = "SOVEREIGNTY_BLOCK"
	ReasonCommunityMismatch     ReasonCode = "COMMUNITY_MISMATCH"
	ReasonElderOnly             ReasonCode = "ELDER_ONLY"
	ReasonCeremonialRestricted  ReasonCode = "CEREMONIAL_RESTRICTED"
	ReasonElderApprovalRequired ReasonCode = "ELDER_APPROVAL_REQUIRED"
	ReasonRoleInsufficient      ReasonCode = "ROLE_INSUFFICIENT"
	ReasonNotCreator            ReasonCode = "NOT_CREATOR"
)

// ReasonCodes lists every code the engine can emit, in a stable order.
func ReasonCodes() []ReasonCode {
	return []ReasonCode{
		ReasonOK,
		ReasonSovereigntyBlock,
		ReasonCommunityMismatch,
		ReasonElderOnly,
		ReasonCeremonialRestricted,
		ReasonElderApprovalRequired,
		ReasonRoleInsufficient,
		ReasonNotCreator,
	}
}

// Decision is the engine's output: an allow/deny verdict plus a closed-set
// reason. Decisions are pure values created fresh per call and never cached;
// an actor's role or community can change between calls within a session.
type Decision struct {
	Allowed bool
	Reason  ReasonCode
	Detail  string
}

func allow() Decision {
	return Decision{Allowed: true, Reason: ReasonOK}
}

func deny(code ReasonCode, detail string) Decision {
	return Decision{Allowed: false, Reason: code, Detail: detail}
}
