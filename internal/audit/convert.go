package audit

import (
	"time"

	"github.com/storykeep/storykeep/internal/policy"
)

// Stored enum columns come back as plain strings; these helpers re-type them
// without validating — the engine wrote them, the timeline only echoes them.

func policyRole(s string) policy.Role                 { return policy.Role(s) }
func policyResourceType(s string) policy.ResourceType { return policy.ResourceType(s) }
func policyOperation(s string) policy.Operation       { return policy.Operation(s) }
func policyReason(s string) policy.ReasonCode         { return policy.ReasonCode(s) }

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
