// Package content holds the glue between domain records and the policy
// engine: a single Guard through which every content service authorizes its
// operations, so no service re-implements guard logic on its own.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storykeep/storykeep/internal/platform/httpx"
	"github.com/storykeep/storykeep/internal/policy"
)

// Auditor consumes the audit record produced for every evaluation. The audit
// package provides both a synchronous Postgres recorder and an asynq-backed
// dispatcher satisfying this interface.
type Auditor interface {
	Record(ctx context.Context, rec policy.AuditRecord) error
}

// DecisionObserver is notified of every decision, allow or deny. The
// observability package registers counters through it.
type DecisionObserver interface {
	ObserveDecision(resourceType policy.ResourceType, op policy.Operation, reason policy.ReasonCode)
}

// Guard evaluates policy for content operations, dispatches the audit record
// for every outcome, and translates denials into boundary errors.
type Guard struct {
	auditor  Auditor
	observer DecisionObserver
	logger   *slog.Logger
}

// NewGuard constructs a Guard. The observer may be nil.
func NewGuard(auditor Auditor, observer DecisionObserver, logger *slog.Logger) *Guard {
	return &Guard{auditor: auditor, observer: observer, logger: logger}
}

// Authorize runs the policy engine for one operation and enforces the
// outcome. Denials return an error the HTTP layer maps per the
// anti-enumeration convention: cross-community and sovereignty denials become
// "not found" so existence of other communities' content is never revealed;
// in-community protocol and role denials become "forbidden".
func (g *Guard) Authorize(ctx context.Context, actor policy.Actor, res policy.Resource, op policy.Operation) error {
	d := policy.Evaluate(actor, res, op)
	g.record(ctx, actor, res, op, d)
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case policy.ReasonCommunityMismatch, policy.ReasonSovereigntyBlock:
		return fmt.Errorf("%w: %s", httpx.ErrNotFound, d.Reason)
	default:
		return fmt.Errorf("%w: %s", httpx.ErrForbidden, d.Reason)
	}
}

// Readable reports whether the actor may read the resource. Used by listing
// code to filter result sets row by row; list filtering is not audited, only
// direct resource operations are.
func (g *Guard) Readable(actor policy.Actor, res policy.Resource) bool {
	return policy.Evaluate(actor, res, policy.OpRead).Allowed
}

func (g *Guard) record(ctx context.Context, actor policy.Actor, res policy.Resource, op policy.Operation, d policy.Decision) {
	if g.observer != nil {
		g.observer.ObserveDecision(res.Type, op, d.Reason)
	}
	if g.auditor == nil {
		return
	}
	rec := policy.NewAuditRecord(actor, res, op, d)
	if err := g.auditor.Record(ctx, rec); err != nil && g.logger != nil {
		// The decision stands regardless; a failed audit write must not
		// block the request, only surface loudly.
		g.logger.Error("audit record dispatch failed",
			slog.String("record_id", rec.ID.String()),
			slog.Any("error", err))
	}
}
