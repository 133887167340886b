package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const failedTasksLimit = 100

// TaskServiceOptions groups dependencies for TaskService.
type TaskServiceOptions struct {
	Jobs     core.JobRepository  // Required
	Registry core.WorkerRegistry // Required
	Events   core.EventPublisher // Optional: enqueue notifications are skipped when nil
	Logger   *slog.Logger        // Optional
}

// TaskService owns extraction job scheduling and the task monitoring surface.
type TaskService struct {
	jobs     core.JobRepository
	registry core.WorkerRegistry
	events   core.EventPublisher
	logger   *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(opts TaskServiceOptions) *TaskService {
	if opts.Jobs == nil {
		panic("JobRepository is required")
	}
	if opts.Registry == nil {
		panic("WorkerRegistry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		jobs:     opts.Jobs,
		registry: opts.Registry,
		events:   opts.Events,
		logger:   logger.With("component", "task_service"),
	}
}

// Enqueue schedules a new extraction job for a profile. A queued or started
// job of the same type is a conflict; the existing job covers the request.
func (s *TaskService) Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid job request")
	}

	active, err := s.jobs.HasActiveJob(ctx, req.ProfileID, req.Type)
	if err != nil {
		return nil, fmt.Errorf("check active job: %w", err)
	}
	if active {
		return nil, apperrors.Conflict(
			fmt.Sprintf("a %s job is already scheduled for profile %d", req.Type, req.ProfileID))
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.publish(ctx, model.WorkerEvent{
		Status:    model.WorkerEventQueued,
		JobID:     job.ID,
		JobType:   job.Type,
		ProfileID: job.ProfileID,
	})

	return job, nil
}

// Workers returns the live worker roster.
func (s *TaskService) Workers(ctx context.Context) ([]model.WorkerDescriptor, error) {
	workers, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return workers, nil
}

// FailedTasks returns recently failed jobs, newest first.
func (s *TaskService) FailedTasks(ctx context.Context) ([]model.FailedTask, error) {
	failed, err := s.jobs.ListFailed(ctx, failedTasksLimit)
	if err != nil {
		return nil, fmt.Errorf("list failed tasks: %w", err)
	}
	return failed, nil
}

// GetJob returns one job.
func (s *TaskService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFoundf("job %s does not exist", id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// publish sends a worker event on the bus, logging instead of failing the
// caller when the bus is down.
func (s *TaskService) publish(ctx context.Context, ev model.WorkerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishWorkerEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish worker event failed",
			"job_id", ev.JobID, "status", ev.Status, "error", err)
	}
}
