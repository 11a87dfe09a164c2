package media

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

const attachmentColumns = `id, community_id, creator_id, story_id, filename, content_type,
	size_bytes, storage_path, COALESCE(derived_path, ''), status, created_at, updated_at`

func scanAttachment(row pgx.Row) (Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.CommunityID, &a.CreatorID, &a.StoryID, &a.Filename, &a.ContentType,
		&a.SizeBytes, &a.StoragePath, &a.DerivedPath, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

// Get fetches one attachment.
func (r *Repository) Get(ctx context.Context, id int64) (Attachment, error) {
	a, err := scanAttachment(r.pool.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM media_attachments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, shared.ErrNotFound
		}
		return Attachment{}, err
	}
	return a, nil
}

// ListByStory returns all attachments on a story.
func (r *Repository) ListByStory(ctx context.Context, storyID int64) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+attachmentColumns+` FROM media_attachments WHERE story_id = $1 ORDER BY id`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Create inserts the attachment metadata.
func (r *Repository) Create(ctx context.Context, a Attachment) (Attachment, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO media_attachments
			(community_id, creator_id, story_id, filename, content_type, size_bytes, storage_path, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		a.CommunityID, a.CreatorID, a.StoryID, a.Filename, a.ContentType, a.SizeBytes,
		a.StoragePath, a.Status, now).Scan(&a.ID)
	if err != nil {
		return Attachment{}, err
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return a, nil
}

// SetDerived records the derivative output and flips the status.
func (r *Repository) SetDerived(ctx context.Context, id int64, derivedPath, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE media_attachments SET derived_path = NULLIF($2, ''), status = $3, updated_at = $4
		WHERE id = $1`,
		id, derivedPath, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the attachment metadata.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
