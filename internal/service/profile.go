// Package service contains the business logic behind the profilewatch API:
// assembling posts pages, deduping extraction triggers, and surfacing the
// task roster.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Profiles core.ProfileRepository // Required
	Posts    core.PostRepository    // Required
	Logger   *slog.Logger           // Optional
}

// ProfileService provides profile and posts-page operations.
type ProfileService struct {
	profiles core.ProfileRepository
	posts    core.PostRepository
	logger   *slog.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	if opts.Posts == nil {
		panic("PostRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profiles: opts.Profiles,
		posts:    opts.Posts,
		logger:   logger.With("component", "profile_service"),
	}
}

// GetByID returns one profile.
func (s *ProfileService) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFoundf("profile %d does not exist", id)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Upsert records a profile's identity and counters as extracted from a site.
func (s *ProfileService) Upsert(ctx context.Context, req *model.UpsertProfileRequest) (*model.Profile, error) {
	profile, err := s.profiles.Upsert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return profile, nil
}

// PostsPage returns one page of a profile's posts plus the identity fields
// and total count the posts view needs. page is 1-based; rpp is clamped to
// [1, 100] with a default of 10.
func (s *ProfileService) PostsPage(ctx context.Context, profileID int64, page, rpp int) (*model.PostsPage, error) {
	if page < 1 {
		page = 1
	}
	if rpp < 1 {
		rpp = defaultPageSize
	}
	if rpp > maxPageSize {
		rpp = maxPageSize
	}

	profile, err := s.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	total, err := s.posts.CountByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	posts, err := s.posts.ListByProfile(ctx, profileID, core.PostPage{
		Limit:  rpp,
		Offset: (page - 1) * rpp,
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &model.PostsPage{
		SiteName:   profile.Site,
		Username:   profile.Username,
		Posts:      posts,
		TotalCount: total,
	}, nil
}

// ListAutoRefresh returns profiles with periodic re-extraction enabled.
func (s *ProfileService) ListAutoRefresh(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.profiles.ListAutoRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auto-refresh profiles: %w", err)
	}
	return profiles, nil
}
