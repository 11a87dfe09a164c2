package places

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

const placeColumns = `id, community_id, creator_id, name, description, latitude, longitude, region, type_of_place,
	permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at`

func scanPlace(row pgx.Row) (Place, error) {
	var p Place
	var level string
	err := row.Scan(&p.ID, &p.CommunityID, &p.CreatorID, &p.Name, &p.Description, &p.Latitude, &p.Longitude,
		&p.Region, &p.TypeOfPlace, &level, &p.Protocol.CeremonialContent, &p.Protocol.ElderApprovalRequired,
		&p.IsRestricted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Place{}, err
	}
	p.Protocol.PermissionLevel = policy.PermissionLevel(level)
	return p, nil
}

// Get fetches one place.
func (r *Repository) Get(ctx context.Context, id int64) (Place, error) {
	p, err := scanPlace(r.pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Place{}, shared.ErrNotFound
		}
		return Place{}, err
	}
	return p, nil
}

// ListByCommunity returns every place in the community.
func (r *Repository) ListByCommunity(ctx context.Context, communityID int64) ([]Place, error) {
	return r.queryMany(ctx, `SELECT `+placeColumns+` FROM places WHERE community_id = $1 ORDER BY id`, communityID)
}

// ListPublic is the unauthenticated map view: public tier, unrestricted.
func (r *Repository) ListPublic(ctx context.Context, communityID int64) ([]Place, error) {
	return r.queryMany(ctx, `
		SELECT `+placeColumns+` FROM places
		WHERE community_id = $1 AND permission_level = 'public' AND is_restricted = FALSE
		ORDER BY id`, communityID)
}

// Create inserts the place.
func (r *Repository) Create(ctx context.Context, p Place) (Place, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO places
			(community_id, creator_id, name, description, latitude, longitude, region, type_of_place,
			 permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id`,
		p.CommunityID, p.CreatorID, p.Name, p.Description, p.Latitude, p.Longitude, p.Region, p.TypeOfPlace,
		string(p.Protocol.PermissionLevel), p.Protocol.CeremonialContent, p.Protocol.ElderApprovalRequired,
		p.IsRestricted, now).Scan(&p.ID)
	if err != nil {
		return Place{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// Update rewrites the place row.
func (r *Repository) Update(ctx context.Context, p Place) (Place, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE places SET
			name = $2, description = $3, latitude = $4, longitude = $5, region = $6, type_of_place = $7,
			permission_level = $8, ceremonial_content = $9, elder_approval_required = $10,
			is_restricted = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Latitude, p.Longitude, p.Region, p.TypeOfPlace,
		string(p.Protocol.PermissionLevel), p.Protocol.CeremonialContent, p.Protocol.ElderApprovalRequired,
		p.IsRestricted, now)
	if err != nil {
		return Place{}, err
	}
	if tag.RowsAffected() == 0 {
		return Place{}, shared.ErrNotFound
	}
	p.UpdatedAt = now
	return p, nil
}

// Delete removes the place.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) queryMany(ctx context.Context, query string, args ...any) ([]Place, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
