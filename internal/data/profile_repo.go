package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

// ProfileRepo provides database operations for tracked profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo on the given database handle.
func NewProfileRepo(db *sql.DB, tp TimeProvider) *ProfileRepo {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &ProfileRepo{DB: db, timeProvider: tp}
}

const profileColumns = `
  id,
  site,
  original_id,
  username,
  description,
  post_count,
  friend_count,
  follower_count,
  auto_refresh,
  created_at,
  updated_at
`

// GetByID retrieves a profile by its numeric id.
func (r *ProfileRepo) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT`+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

// GetBySiteOriginalID retrieves a profile by its site-native identity.
func (r *ProfileRepo) GetBySiteOriginalID(ctx context.Context, site, originalID string) (*model.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT`+profileColumns+`
		FROM profiles
		WHERE site = $1 AND original_id = $2
	`, site, originalID)
	return scanProfile(row)
}

// Upsert inserts a profile or refreshes its identity fields and counters when
// the (site, original_id) pair already exists.
func (r *ProfileRepo) Upsert(ctx context.Context, req *model.UpsertProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, apperrors.Validation("upsert profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile request")
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO profiles (site, original_id, username, description, post_count, friend_count, follower_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (site, original_id) DO UPDATE
		SET username       = EXCLUDED.username,
		    description    = EXCLUDED.description,
		    post_count     = EXCLUDED.post_count,
		    friend_count   = EXCLUDED.friend_count,
		    follower_count = EXCLUDED.follower_count,
		    updated_at     = EXCLUDED.updated_at
		RETURNING`+profileColumns,
		req.Site, req.OriginalID, req.Username, req.Description,
		req.PostCount, req.FriendCount, req.FollowerCount, now)
	return scanProfile(row)
}

// SetAutoRefresh toggles periodic re-extraction for a profile.
func (r *ProfileRepo) SetAutoRefresh(ctx context.Context, id int64, enabled bool) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE profiles SET auto_refresh = $2, updated_at = $3 WHERE id = $1
	`, id, enabled, now)
	if err != nil {
		return fmt.Errorf("set auto refresh: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auto refresh rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("profile %d not found", id)
	}
	return nil
}

// ListAutoRefresh returns all profiles with periodic re-extraction enabled.
func (r *ProfileRepo) ListAutoRefresh(ctx context.Context) ([]*model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT`+profileColumns+`
		FROM profiles
		WHERE auto_refresh
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list auto-refresh profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(scanner rowScanner) (*model.Profile, error) {
	var p model.Profile
	err := scanner.Scan(
		&p.ID,
		&p.Site,
		&p.OriginalID,
		&p.Username,
		&p.Description,
		&p.PostCount,
		&p.FriendCount,
		&p.FollowerCount,
		&p.AutoRefresh,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &p, nil
}
