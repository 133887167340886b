package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	"github.com/profilewatch/profile-ui-api/internal/testutil"
)

func TestRedisWorkerRegistry_HeartbeatAndList(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	registry := NewRedisWorkerRegistry(client)
	ctx := context.Background()

	require.NoError(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{
		Name:     "worker-2",
		Hostname: "host-b",
	}, time.Minute))
	require.NoError(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{
		Name:     "worker-1",
		Hostname: "host-a",
		CurrentJob: &model.Job{
			ID:        "j1",
			Type:      model.JobTypePosts,
			Status:    model.JobStatusStarted,
			ProfileID: 7,
			Current:   3,
			Progress:  0.3,
		},
	}, time.Minute))

	workers, err := registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)

	// Sorted by name.
	assert.Equal(t, "worker-1", workers[0].Name)
	assert.Equal(t, "worker-2", workers[1].Name)

	require.NotNil(t, workers[0].CurrentJob)
	assert.Equal(t, "j1", workers[0].CurrentJob.ID)
	assert.Equal(t, int64(7), workers[0].CurrentJob.ProfileID)
	assert.Nil(t, workers[1].CurrentJob)
	assert.False(t, workers[0].LastSeenAt.IsZero())
}

func TestRedisWorkerRegistry_HeartbeatValidation(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	registry := NewRedisWorkerRegistry(client)
	ctx := context.Background()

	require.Error(t, registry.Heartbeat(ctx, nil, time.Minute))
	require.Error(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{}, time.Minute))
	require.Error(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{Name: "w"}, 0))
}

func TestRedisWorkerRegistry_Deregister(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	registry := NewRedisWorkerRegistry(client)
	ctx := context.Background()

	require.NoError(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{Name: "worker-1"}, time.Minute))
	require.NoError(t, registry.Deregister(ctx, "worker-1"))

	workers, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers)
}

func TestRedisWorkerRegistry_TTLExpiry(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	registry := NewRedisWorkerRegistry(client)
	ctx := context.Background()

	require.NoError(t, registry.Heartbeat(ctx, &model.WorkerDescriptor{Name: "worker-1"}, time.Second))

	require.Eventually(t, func() bool {
		workers, err := registry.List(ctx)
		return err == nil && len(workers) == 0
	}, 5*time.Second, 100*time.Millisecond)
}
