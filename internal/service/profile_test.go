package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
	"github.com/profilewatch/profile-ui-api/internal/mocks"
)

func newProfileService(t *testing.T) (*ProfileService, *mocks.MockProfileRepository, *mocks.MockPostRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	profiles := mocks.NewMockProfileRepository(ctrl)
	posts := mocks.NewMockPostRepository(ctrl)
	svc := NewProfileService(ProfileServiceOptions{Profiles: profiles, Posts: posts})
	return svc, profiles, posts
}

func TestNewProfileService_PanicsWithoutRepos(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewProfileService(ProfileServiceOptions{}) })
}

func TestProfileService_PostsPage(t *testing.T) {
	t.Parallel()
	svc, profiles, posts := newProfileService(t)
	ctx := context.Background()

	profiles.EXPECT().GetByID(ctx, int64(7)).Return(&model.Profile{
		ID:       7,
		Site:     "x",
		Username: "bob",
	}, nil)
	posts.EXPECT().CountByProfile(ctx, int64(7)).Return(42, nil)
	posts.EXPECT().ListByProfile(ctx, int64(7), core.PostPage{Limit: 10, Offset: 10}).
		Return([]model.Post{{ID: 11, ProfileID: 7}}, nil)

	page, err := svc.PostsPage(ctx, 7, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "x", page.SiteName)
	assert.Equal(t, "bob", page.Username)
	assert.Equal(t, 42, page.TotalCount)
	require.Len(t, page.Posts, 1)
}

func TestProfileService_PostsPageClampsParams(t *testing.T) {
	t.Parallel()
	svc, profiles, posts := newProfileService(t)
	ctx := context.Background()

	profiles.EXPECT().GetByID(ctx, int64(7)).Return(&model.Profile{ID: 7, Site: "x", Username: "bob"}, nil)
	posts.EXPECT().CountByProfile(ctx, int64(7)).Return(0, nil)
	// page 0 -> 1, rpp 9999 -> 100, so offset 0 limit 100.
	posts.EXPECT().ListByProfile(ctx, int64(7), core.PostPage{Limit: 100, Offset: 0}).Return(nil, nil)

	page, err := svc.PostsPage(ctx, 7, 0, 9999)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestProfileService_PostsPageUnknownProfile(t *testing.T) {
	t.Parallel()
	svc, profiles, _ := newProfileService(t)
	ctx := context.Background()

	profiles.EXPECT().GetByID(ctx, int64(404)).Return(nil, apperrors.NotFound("nope"))

	_, err := svc.PostsPage(ctx, 404, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "profile 404 does not exist", apperrors.UserMessage(err))
}
