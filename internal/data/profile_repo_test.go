package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
	"github.com/profilewatch/profile-ui-api/internal/testutil"
)

func TestProfileRepo_UpsertInsertsAndUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewProfileRepo(db, nil)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site:       "x",
		OriginalID: "u-100",
		Username:   "bob",
		PostCount:  10,
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "bob", created.Username)
	assert.Equal(t, 10, created.PostCount)

	// Same identity updates in place.
	updated, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site:          "x",
		OriginalID:    "u-100",
		Username:      "bob_renamed",
		PostCount:     42,
		FollowerCount: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "bob_renamed", updated.Username)
	assert.Equal(t, 42, updated.PostCount)
	assert.Equal(t, 7, updated.FollowerCount)
}

func TestProfileRepo_UpsertRejectsInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewProfileRepo(db, nil)
	_, err := repo.Upsert(context.Background(), &model.UpsertProfileRequest{Site: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProfileRepo_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewProfileRepo(db, nil)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site:       "x",
		OriginalID: "u-100",
		Username:   "bob",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.GetByID(ctx, created.ID+1000)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProfileRepo_GetBySiteOriginalID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewProfileRepo(db, nil)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site:       "x",
		OriginalID: "u-100",
		Username:   "bob",
	})
	require.NoError(t, err)

	got, err := repo.GetBySiteOriginalID(ctx, "x", "u-100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.GetBySiteOriginalID(ctx, "x", "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProfileRepo_AutoRefreshRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewProfileRepo(db, nil)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site: "x", OriginalID: "u-1", Username: "alice",
	})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, &model.UpsertProfileRequest{
		Site: "x", OriginalID: "u-2", Username: "bob",
	})
	require.NoError(t, err)

	roster, err := repo.ListAutoRefresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster)

	require.NoError(t, repo.SetAutoRefresh(ctx, first.ID, true))
	require.NoError(t, repo.SetAutoRefresh(ctx, second.ID, true))
	require.NoError(t, repo.SetAutoRefresh(ctx, second.ID, false))

	roster, err = repo.ListAutoRefresh(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, first.ID, roster[0].ID)

	err = repo.SetAutoRefresh(ctx, second.ID+1000, true)
	assert.True(t, apperrors.IsNotFound(err))
}
