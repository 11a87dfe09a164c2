package speakers

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

const speakerColumns = `id, community_id, creator_id, name, birth_year, birthplace_id, bio,
	permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at`

func scanSpeaker(row pgx.Row) (Speaker, error) {
	var s Speaker
	var level string
	var birthYear *int
	var birthplace *int64
	err := row.Scan(&s.ID, &s.CommunityID, &s.CreatorID, &s.Name, &birthYear, &birthplace, &s.Bio,
		&level, &s.Protocol.CeremonialContent, &s.Protocol.ElderApprovalRequired, &s.IsRestricted,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Speaker{}, err
	}
	if birthYear != nil {
		s.BirthYear = *birthYear
	}
	if birthplace != nil {
		s.BirthplaceID = *birthplace
	}
	s.Protocol.PermissionLevel = policy.PermissionLevel(level)
	return s, nil
}

// Get fetches one speaker.
func (r *Repository) Get(ctx context.Context, id int64) (Speaker, error) {
	s, err := scanSpeaker(r.pool.QueryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Speaker{}, shared.ErrNotFound
		}
		return Speaker{}, err
	}
	return s, nil
}

// ListByCommunity returns every speaker in the community.
func (r *Repository) ListByCommunity(ctx context.Context, communityID int64) ([]Speaker, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE community_id = $1 ORDER BY name, id`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Speaker
	for rows.Next() {
		s, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Create inserts the speaker.
func (r *Repository) Create(ctx context.Context, s Speaker) (Speaker, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO speakers
			(community_id, creator_id, name, birth_year, birthplace_id, bio,
			 permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, 0), NULLIF($5, 0), $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`,
		s.CommunityID, s.CreatorID, s.Name, s.BirthYear, s.BirthplaceID, s.Bio,
		string(s.Protocol.PermissionLevel), s.Protocol.CeremonialContent, s.Protocol.ElderApprovalRequired,
		s.IsRestricted, now).Scan(&s.ID)
	if err != nil {
		return Speaker{}, err
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

// Update rewrites the speaker row.
func (r *Repository) Update(ctx context.Context, s Speaker) (Speaker, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE speakers SET
			name = $2, birth_year = NULLIF($3, 0), birthplace_id = NULLIF($4, 0), bio = $5,
			permission_level = $6, ceremonial_content = $7, elder_approval_required = $8,
			is_restricted = $9, updated_at = $10
		WHERE id = $1`,
		s.ID, s.Name, s.BirthYear, s.BirthplaceID, s.Bio,
		string(s.Protocol.PermissionLevel), s.Protocol.CeremonialContent, s.Protocol.ElderApprovalRequired,
		s.IsRestricted, now)
	if err != nil {
		return Speaker{}, err
	}
	if tag.RowsAffected() == 0 {
		return Speaker{}, shared.ErrNotFound
	}
	s.UpdatedAt = now
	return s, nil
}

// Delete removes the speaker.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM speakers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
