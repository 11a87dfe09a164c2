package themes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const themeColumns = `id, community_id, creator_id, title, description,
	permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at`

func scanTheme(row pgx.Row) (Theme, error) {
	var t Theme
	var level string
	err := row.Scan(&t.ID, &t.CommunityID, &t.CreatorID, &t.Title, &t.Description,
		&level, &t.Protocol.CeremonialContent, &t.Protocol.ElderApprovalRequired, &t.IsRestricted,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Theme{}, err
	}
	t.Protocol.PermissionLevel = policy.PermissionLevel(level)
	return t, nil
}

// Get fetches one theme.
func (r *Repository) Get(ctx context.Context, id int64) (Theme, error) {
	t, err := scanTheme(r.pool.QueryRow(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Theme{}, shared.ErrNotFound
		}
		return Theme{}, err
	}
	return t, nil
}

// ListByCommunity returns every theme in the community.
func (r *Repository) ListByCommunity(ctx context.Context, communityID int64) ([]Theme, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+themeColumns+` FROM themes WHERE community_id = $1 ORDER BY title, id`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Create inserts the theme.
func (r *Repository) Create(ctx context.Context, t Theme) (Theme, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO themes
			(community_id, creator_id, title, description,
			 permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		t.CommunityID, t.CreatorID, t.Title, t.Description,
		string(t.Protocol.PermissionLevel), t.Protocol.CeremonialContent, t.Protocol.ElderApprovalRequired,
		t.IsRestricted, now).Scan(&t.ID)
	if err != nil {
		return Theme{}, err
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

// Update rewrites the theme row.
func (r *Repository) Update(ctx context.Context, t Theme) (Theme, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE themes SET
			title = $2, description = $3, permission_level = $4,
			ceremonial_content = $5, elder_approval_required = $6, is_restricted = $7, updated_at = $8
		WHERE id = $1`,
		t.ID, t.Title, t.Description, string(t.Protocol.PermissionLevel),
		t.Protocol.CeremonialContent, t.Protocol.ElderApprovalRequired, t.IsRestricted, now)
	if err != nil {
		return Theme{}, err
	}
	if tag.RowsAffected() == 0 {
		return Theme{}, shared.ErrNotFound
	}
	t.UpdatedAt = now
	return t, nil
}

// Delete removes the theme.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
