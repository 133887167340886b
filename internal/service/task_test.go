package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
	"github.com/profilewatch/profile-ui-api/internal/mocks"
)

type taskFixture struct {
	svc      *TaskService
	jobs     *mocks.MockJobRepository
	registry *mocks.MockWorkerRegistry
	events   *mocks.MockEventPublisher
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &taskFixture{
		jobs:     mocks.NewMockJobRepository(ctrl),
		registry: mocks.NewMockWorkerRegistry(ctrl),
		events:   mocks.NewMockEventPublisher(ctrl),
	}
	f.svc = NewTaskService(TaskServiceOptions{
		Jobs:     f.jobs,
		Registry: f.registry,
		Events:   f.events,
	})
	return f
}

func TestTaskService_EnqueuePublishesQueuedEvent(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	req := &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 7}
	created := &model.Job{ID: "j1", Type: model.JobTypePosts, ProfileID: 7, Status: model.JobStatusQueued}

	f.jobs.EXPECT().HasActiveJob(ctx, int64(7), model.JobTypePosts).Return(false, nil)
	f.jobs.EXPECT().Create(ctx, req).Return(created, nil)
	f.events.EXPECT().PublishWorkerEvent(ctx, model.WorkerEvent{
		Status:    model.WorkerEventQueued,
		JobID:     "j1",
		JobType:   model.JobTypePosts,
		ProfileID: 7,
	}).Return(nil)

	job, err := f.svc.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
}

func TestTaskService_EnqueueDedupesActiveJob(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	f.jobs.EXPECT().HasActiveJob(ctx, int64(7), model.JobTypePosts).Return(true, nil)

	_, err := f.svc.Enqueue(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 7})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "a posts job is already scheduled for profile 7", apperrors.UserMessage(err))
}

func TestTaskService_EnqueueValidation(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enqueue(ctx, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Enqueue(ctx, &model.CreateJobRequest{Type: "sweep", ProfileID: 7})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Enqueue(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 0})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTaskService_EnqueueToleratesPublishFailure(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	req := &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 7}
	created := &model.Job{ID: "j1", Type: model.JobTypePosts, ProfileID: 7, Status: model.JobStatusQueued}

	f.jobs.EXPECT().HasActiveJob(ctx, int64(7), model.JobTypePosts).Return(false, nil)
	f.jobs.EXPECT().Create(ctx, req).Return(created, nil)
	f.events.EXPECT().PublishWorkerEvent(ctx, gomock.Any()).Return(errors.New("bus down"))

	job, err := f.svc.Enqueue(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
}

func TestTaskService_EnqueueWithoutBus(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	registry := mocks.NewMockWorkerRegistry(ctrl)
	svc := NewTaskService(TaskServiceOptions{Jobs: jobs, Registry: registry})
	ctx := context.Background()

	req := &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 7}
	jobs.EXPECT().HasActiveJob(ctx, int64(7), model.JobTypePosts).Return(false, nil)
	jobs.EXPECT().Create(ctx, req).Return(&model.Job{ID: "j1"}, nil)

	_, err := svc.Enqueue(ctx, req)
	require.NoError(t, err)
}

func TestTaskService_Workers(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	roster := []model.WorkerDescriptor{{Name: "worker-1"}, {Name: "worker-2"}}
	f.registry.EXPECT().List(ctx).Return(roster, nil)

	workers, err := f.svc.Workers(ctx)
	require.NoError(t, err)
	assert.Equal(t, roster, workers)
}

func TestTaskService_FailedTasks(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	f.jobs.EXPECT().ListFailed(ctx, failedTasksLimit).
		Return([]model.FailedTask{{ID: "j9", ProfileID: 7}}, nil)

	failed, err := f.svc.FailedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "j9", failed[0].ID)
}

func TestTaskService_GetJobNotFound(t *testing.T) {
	t.Parallel()
	f := newTaskFixture(t)
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, "missing").Return(nil, apperrors.NotFound("no rows"))

	_, err := f.svc.GetJob(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "job missing does not exist", apperrors.UserMessage(err))
}
