package core

import (
	"context"
	"time"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal
// architecture). Services depend on these, not on concrete implementations.

// ProfileRepository defines the interface for profile data operations.
type ProfileRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
	GetBySiteOriginalID(ctx context.Context, site, originalID string) (*model.Profile, error)
	Upsert(ctx context.Context, req *model.UpsertProfileRequest) (*model.Profile, error)
	ListAutoRefresh(ctx context.Context) ([]*model.Profile, error)
}

// PostPage groups pagination bounds for PostRepository.ListByProfile.
type PostPage struct {
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	ListByProfile(ctx context.Context, profileID int64, page PostPage) ([]model.Post, error)
	CountByProfile(ctx context.Context, profileID int64) (int, error)
	Upsert(ctx context.Context, post *model.Post) (*model.Post, error)
}

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ReserveNext(ctx context.Context, jobType model.JobType, lease time.Duration) (*model.Job, error)
	// Heartbeat extends a started job's lease. Returns false when the job is
	// no longer started, which tells the worker to abandon the job.
	Heartbeat(ctx context.Context, id string, lease time.Duration) (bool, error)
	UpdateProgress(ctx context.Context, id string, current int, progress float64) error
	Complete(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	ListFailed(ctx context.Context, limit int) ([]model.FailedTask, error)
	// HasActiveJob reports whether a queued or started job of the given type
	// already exists for the profile, to dedupe extraction triggers.
	HasActiveJob(ctx context.Context, profileID int64, jobType model.JobType) (bool, error)
}

// WorkerRegistry defines the interface for the live worker roster.
type WorkerRegistry interface {
	Heartbeat(ctx context.Context, desc *model.WorkerDescriptor, ttl time.Duration) error
	Deregister(ctx context.Context, name string) error
	List(ctx context.Context) ([]model.WorkerDescriptor, error)
}

// EventPublisher defines the interface for publishing push events to the bus.
type EventPublisher interface {
	PublishWorkerEvent(ctx context.Context, ev model.WorkerEvent) error
	PublishPostsChanged(ctx context.Context, ev model.PostsChangedEvent) error
}
