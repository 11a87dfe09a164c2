package stories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/storykeep/storykeep/internal/platform/db"
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

const storyColumns = `id, community_id, creator_id, title, description, language, topic,
	permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at`

func permissionLevel(s string) policy.PermissionLevel {
	return policy.PermissionLevel(s)
}

func scanStory(row pgx.Row) (Story, error) {
	var s Story
	var level string
	err := row.Scan(&s.ID, &s.CommunityID, &s.CreatorID, &s.Title, &s.Description, &s.Language, &s.Topic,
		&level, &s.Protocol.CeremonialContent, &s.Protocol.ElderApprovalRequired, &s.IsRestricted,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Story{}, err
	}
	s.Protocol.PermissionLevel = permissionLevel(level)
	return s, nil
}

// Get fetches one story with its place and speaker links.
func (r *Repository) Get(ctx context.Context, id int64) (Story, error) {
	s, err := scanStory(r.pool.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Story{}, shared.ErrNotFound
		}
		return Story{}, err
	}
	if s.PlaceIDs, err = r.linkedIDs(ctx, `SELECT place_id FROM story_places WHERE story_id = $1 ORDER BY place_id`, id); err != nil {
		return Story{}, err
	}
	if s.SpeakerIDs, err = r.linkedIDs(ctx, `SELECT speaker_id FROM story_speakers WHERE story_id = $1 ORDER BY speaker_id`, id); err != nil {
		return Story{}, err
	}
	return s, nil
}

// ListByCommunity returns every story belonging to the community. Protocol
// filtering happens in the service layer, per actor.
func (r *Repository) ListByCommunity(ctx context.Context, communityID int64, filter ListFilter) ([]Story, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+storyColumns+` FROM stories
		WHERE community_id = $1
		  AND ($2 = '' OR topic = $2)
		  AND ($3 = '' OR language = $3)
		ORDER BY id`, communityID, filter.Topic, filter.Language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListPublic returns the unauthenticated view: public tier, not restricted.
// This is the separate public read path; it never consults the policy engine.
func (r *Repository) ListPublic(ctx context.Context, communityID int64) ([]Story, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+storyColumns+` FROM stories
		WHERE community_id = $1 AND permission_level = 'public' AND is_restricted = FALSE
		ORDER BY id`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Create inserts the story and its junction rows atomically.
func (r *Repository) Create(ctx context.Context, s Story) (Story, error) {
	now := time.Now().UTC()
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO stories
				(community_id, creator_id, title, description, language, topic,
				 permission_level, ceremonial_content, elder_approval_required, is_restricted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING id`,
			s.CommunityID, s.CreatorID, s.Title, s.Description, s.Language, s.Topic,
			string(s.Protocol.PermissionLevel), s.Protocol.CeremonialContent, s.Protocol.ElderApprovalRequired,
			s.IsRestricted, now).Scan(&s.ID)
		if err != nil {
			return err
		}
		return r.replaceLinks(ctx, tx, s.ID, s.PlaceIDs, s.SpeakerIDs)
	})
	if err != nil {
		return Story{}, err
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

// Update rewrites the story row and junction rows atomically.
func (r *Repository) Update(ctx context.Context, s Story) (Story, error) {
	now := time.Now().UTC()
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stories SET
				title = $2, description = $3, language = $4, topic = $5,
				permission_level = $6, ceremonial_content = $7, elder_approval_required = $8,
				is_restricted = $9, updated_at = $10
			WHERE id = $1`,
			s.ID, s.Title, s.Description, s.Language, s.Topic,
			string(s.Protocol.PermissionLevel), s.Protocol.CeremonialContent, s.Protocol.ElderApprovalRequired,
			s.IsRestricted, now)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return r.replaceLinks(ctx, tx, s.ID, s.PlaceIDs, s.SpeakerIDs)
	})
	if err != nil {
		return Story{}, err
	}
	s.UpdatedAt = now
	return s, nil
}

// Delete removes the story; junction rows cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) linkedIDs(ctx context.Context, query string, storyID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) replaceLinks(ctx context.Context, tx pgx.Tx, storyID int64, placeIDs, speakerIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM story_places WHERE story_id = $1`, storyID); err != nil {
		return err
	}
	for _, id := range placeIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO story_places (story_id, place_id) VALUES ($1, $2)`, storyID, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM story_speakers WHERE story_id = $1`, storyID); err != nil {
		return err
	}
	for _, id := range speakerIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO story_speakers (story_id, speaker_id) VALUES ($1, $2)`, storyID, id); err != nil {
			return err
		}
	}
	return nil
}
