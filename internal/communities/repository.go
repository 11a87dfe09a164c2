package communities

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

const communityColumns = `id, name, slug, description, locale, is_public, created_at, updated_at`

func scanCommunity(row pgx.Row) (Community, error) {
	var c Community
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Locale, &c.IsPublic,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Community{}, err
	}
	return c, nil
}

// Get fetches one community.
func (r *Repository) Get(ctx context.Context, id int64) (Community, error) {
	c, err := scanCommunity(r.pool.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Community{}, shared.ErrNotFound
		}
		return Community{}, err
	}
	return c, nil
}

// GetBySlug fetches one community by its URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Community, error) {
	c, err := scanCommunity(r.pool.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Community{}, shared.ErrNotFound
		}
		return Community{}, err
	}
	return c, nil
}

// ListPublic returns communities that opted into the public directory.
func (r *Repository) ListPublic(ctx context.Context) ([]Community, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+communityColumns+` FROM communities WHERE is_public = TRUE ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Create inserts the community.
func (r *Repository) Create(ctx context.Context, c Community) (Community, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO communities (name, slug, description, locale, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		c.Name, c.Slug, c.Description, c.Locale, c.IsPublic, now).Scan(&c.ID)
	if err != nil {
		return Community{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

// Update rewrites the community profile.
func (r *Repository) Update(ctx context.Context, c Community) (Community, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE communities SET name = $2, description = $3, locale = $4, is_public = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Locale, c.IsPublic, now)
	if err != nil {
		return Community{}, err
	}
	if tag.RowsAffected() == 0 {
		return Community{}, shared.ErrNotFound
	}
	c.UpdatedAt = now
	return c, nil
}
