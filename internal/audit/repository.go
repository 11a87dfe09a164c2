package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed timeline queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Timeline returns up to limit rows matching the filters, newest first,
// starting at offset.
func (r *Repository) Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	add("community_id = $%d", filters.CommunityID)
	if filters.ActorID != 0 {
		add("actor_id = $%d", filters.ActorID)
	}
	if filters.ResourceType != "" {
		add("resource_type = $%d", string(filters.ResourceType))
	}
	if filters.Reason != "" {
		add("reason = $%d", string(filters.Reason))
	}
	if filters.DeniedOnly {
		conds = append(conds, "allowed = FALSE")
	}
	if !filters.From.IsZero() {
		add("occurred_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("occurred_at <= $%d", filters.To)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, occurred_at, actor_id, actor_role, resource_id, resource_type, community_id, operation, allowed, reason, detail
		FROM policy_audit
		WHERE %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var role, rtype, op, reason string
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &role, &row.ResourceID, &rtype,
			&row.CommunityID, &op, &row.Allowed, &reason, &row.Detail); err != nil {
			return nil, err
		}
		row.ActorRole = policyRole(role)
		row.ResourceType = policyResourceType(rtype)
		row.Operation = policyOperation(op)
		row.Reason = policyReason(reason)
		result = append(result, row)
	}
	return result, rows.Err()
}

// Count returns the number of rows matching the filters for paging metadata.
func (r *Repository) Count(ctx context.Context, filters TimelineFilters) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM policy_audit
		WHERE community_id = $1
		  AND ($2 = 0 OR actor_id = $2)
		  AND ($3 = '' OR resource_type = $3)
		  AND ($4 = '' OR reason = $4)
		  AND (NOT $5 OR allowed = FALSE)
		  AND ($6::timestamptz IS NULL OR occurred_at >= $6)
		  AND ($7::timestamptz IS NULL OR occurred_at <= $7)`,
		filters.CommunityID, filters.ActorID, string(filters.ResourceType), string(filters.Reason),
		filters.DeniedOnly, nullableTime(filters.From), nullableTime(filters.To)).Scan(&count)
	return count, err
}
