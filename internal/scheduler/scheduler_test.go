package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
	"github.com/profilewatch/profile-ui-api/internal/mocks"
	"github.com/profilewatch/profile-ui-api/internal/service"
)

type schedulerFixture struct {
	scheduler *Scheduler
	profiles  *mocks.MockProfileRepository
	jobs      *mocks.MockJobRepository
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &schedulerFixture{
		profiles: mocks.NewMockProfileRepository(ctrl),
		jobs:     mocks.NewMockJobRepository(ctrl),
	}

	profileSvc := service.NewProfileService(service.ProfileServiceOptions{
		Profiles: f.profiles,
		Posts:    mocks.NewMockPostRepository(ctrl),
	})
	taskSvc := service.NewTaskService(service.TaskServiceOptions{
		Jobs:     f.jobs,
		Registry: mocks.NewMockWorkerRegistry(ctrl),
	})

	s, err := New(Options{Profiles: profileSvc, Tasks: taskSvc})
	require.NoError(t, err)
	f.scheduler = s
	return f
}

func TestNew_RejectsBadCronSpec(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t)

	_, err := New(Options{
		Profiles: f.scheduler.profiles,
		Tasks:    f.scheduler.tasks,
		Spec:     "not a cron spec",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse cron spec")
}

func TestRefresh_EnqueuesAutoRefreshProfiles(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t)
	ctx := context.Background()

	f.profiles.EXPECT().ListAutoRefresh(ctx).Return([]*model.Profile{
		{ID: 1, Site: "x", Username: "alice"},
		{ID: 2, Site: "x", Username: "bob"},
	}, nil)

	f.jobs.EXPECT().HasActiveJob(ctx, int64(1), model.JobTypePosts).Return(false, nil)
	f.jobs.EXPECT().
		Create(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 1}).
		Return(&model.Job{ID: "j1"}, nil)

	// Profile 2 already has an active job; the sweep skips it.
	f.jobs.EXPECT().HasActiveJob(ctx, int64(2), model.JobTypePosts).Return(true, nil)

	f.scheduler.refresh(ctx)
}

func TestRefresh_ContinuesPastEnqueueErrors(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t)
	ctx := context.Background()

	f.profiles.EXPECT().ListAutoRefresh(ctx).Return([]*model.Profile{
		{ID: 1}, {ID: 2},
	}, nil)

	f.jobs.EXPECT().HasActiveJob(ctx, int64(1), model.JobTypePosts).
		Return(false, apperrors.Internal("db down"))
	f.jobs.EXPECT().HasActiveJob(ctx, int64(2), model.JobTypePosts).Return(false, nil)
	f.jobs.EXPECT().
		Create(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: 2}).
		Return(&model.Job{ID: "j2"}, nil)

	f.scheduler.refresh(ctx)
}

func TestRefresh_NoProfiles(t *testing.T) {
	t.Parallel()
	f := newSchedulerFixture(t)
	ctx := context.Background()

	f.profiles.EXPECT().ListAutoRefresh(ctx).Return(nil, nil)

	f.scheduler.refresh(ctx)
}
