package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storykeep/storykeep/internal/policy"
	"github.com/storykeep/storykeep/internal/shared"
)

// Repository provides PostgreSQL backed persistence for member accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, community_id, email, name, role, password_hash, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	var community *int64
	err := row.Scan(&u.ID, &community, &u.Email, &u.Name, &role, &u.PasswordHash,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	if community != nil {
		u.CommunityID = *community
	}
	u.Role = policy.Role(role)
	return u, nil
}

// Get fetches one user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// GetByEmail fetches one user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// ListByCommunity returns the community's member accounts.
func (r *Repository) ListByCommunity(ctx context.Context, communityID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE community_id = $1 ORDER BY name, id`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Create inserts the account.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (community_id, email, name, role, password_hash, is_active, created_at, updated_at)
		VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`,
		u.CommunityID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.IsActive, now).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// UpdateRole changes the member's role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role policy.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		id, string(role), time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles whether the account may sign in.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
