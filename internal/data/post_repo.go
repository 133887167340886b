package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

// PostRepo provides database operations for extracted posts.
type PostRepo struct {
	DB *sql.DB
}

// NewPostRepo creates a PostRepo on the given database handle.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

const postColumns = `
  id,
  profile_id,
  original_id,
  content,
  posted_at,
  created_at
`

// ListByProfile returns one page of a profile's posts, newest first.
func (r *PostRepo) ListByProfile(ctx context.Context, profileID int64, page core.PostPage) ([]model.Post, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := max(page.Offset, 0)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT`+postColumns+`
		FROM posts
		WHERE profile_id = $1
		ORDER BY posted_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.OriginalID, &p.Content, &p.PostedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// CountByProfile returns the total number of posts stored for a profile.
func (r *PostRepo) CountByProfile(ctx context.Context, profileID int64) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM posts WHERE profile_id = $1`, profileID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// Upsert inserts a post or refreshes its content when the profile already has
// one with the same site-native id.
func (r *PostRepo) Upsert(ctx context.Context, post *model.Post) (*model.Post, error) {
	if post == nil {
		return nil, apperrors.Validation("post is required")
	}
	if post.ProfileID <= 0 || post.OriginalID == "" {
		return nil, apperrors.Validation("post profile id and original id are required")
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO posts (profile_id, original_id, content, posted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id, original_id) DO UPDATE
		SET content   = EXCLUDED.content,
		    posted_at = EXCLUDED.posted_at
		RETURNING`+postColumns,
		post.ProfileID, post.OriginalID, post.Content, post.PostedAt.UTC())

	var out model.Post
	if err := row.Scan(&out.ID, &out.ProfileID, &out.OriginalID, &out.Content, &out.PostedAt, &out.CreatedAt); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
