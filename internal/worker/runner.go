package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/profilewatch/profile-ui-api/internal/core"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

const (
	defaultLease        = time.Minute
	defaultPollInterval = 2 * time.Second
	defaultHeartbeatTTL = 30 * time.Second
	defaultMaxPages     = 50
)

// Extraction is the scraping seam the runner drives. *Extractor is the
// production implementation.
type Extraction interface {
	Identity(ctx context.Context, site SiteConfig, originalID string) (*model.UpsertProfileRequest, error)
	PostsPage(ctx context.Context, site SiteConfig, originalID string, page int) ([]ExtractedPost, bool, error)
}

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Jobs      core.JobRepository     // Required
	Profiles  core.ProfileRepository // Required
	Posts     core.PostRepository    // Required
	Registry  core.WorkerRegistry    // Required
	Extractor Extraction             // Required
	Events    core.EventPublisher    // Optional: push events are skipped when nil
	Sites     map[string]SiteConfig  // Required

	// Name identifies this worker in the registry; defaults to
	// "<hostname>-<short uuid>".
	Name string

	Lease        time.Duration // Optional: job lease duration, default 1m
	PollInterval time.Duration // Optional: idle reserve backoff, default 2s
	HeartbeatTTL time.Duration // Optional: registry key TTL, default 30s
	MaxPages     int           // Optional: per-job page cap, default 50
	Logger       *slog.Logger  // Optional
}

// Runner owns one worker's job loop: reserve, extract, persist, publish.
// A runner executes at most one job at a time.
type Runner struct {
	jobs      core.JobRepository
	profiles  core.ProfileRepository
	posts     core.PostRepository
	registry  core.WorkerRegistry
	events    core.EventPublisher
	extractor Extraction
	sites     map[string]SiteConfig

	name         string
	hostname     string
	lease        time.Duration
	pollInterval time.Duration
	heartbeatTTL time.Duration
	maxPages     int
	logger       *slog.Logger

	startedAt time.Time

	mu      sync.Mutex
	current *model.Job
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Jobs == nil {
		panic("JobRepository is required")
	}
	if opts.Profiles == nil {
		panic("ProfileRepository is required")
	}
	if opts.Posts == nil {
		panic("PostRepository is required")
	}
	if opts.Registry == nil {
		panic("WorkerRegistry is required")
	}
	if opts.Extractor == nil {
		panic("Extraction is required")
	}
	if len(opts.Sites) == 0 {
		panic("at least one site config is required")
	}

	hostname, _ := os.Hostname()
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		jobs:         opts.Jobs,
		profiles:     opts.Profiles,
		posts:        opts.Posts,
		registry:     opts.Registry,
		events:       opts.Events,
		extractor:    opts.Extractor,
		sites:        opts.Sites,
		name:         name,
		hostname:     hostname,
		lease:        opts.Lease,
		pollInterval: opts.PollInterval,
		heartbeatTTL: opts.HeartbeatTTL,
		maxPages:     opts.MaxPages,
		logger:       logger.With("component", "worker", "worker", name),
	}
	if r.lease <= 0 {
		r.lease = defaultLease
	}
	if r.pollInterval <= 0 {
		r.pollInterval = defaultPollInterval
	}
	if r.heartbeatTTL <= 0 {
		r.heartbeatTTL = defaultHeartbeatTTL
	}
	if r.maxPages <= 0 {
		r.maxPages = defaultMaxPages
	}
	return r
}

// Run executes the worker loop until ctx is canceled. The worker registers
// itself with a heartbeat for the whole lifetime and deregisters on exit.
func (r *Runner) Run(ctx context.Context) error {
	r.startedAt = time.Now()
	r.logger.Info("worker starting")

	if err := r.registerHeartbeat(ctx); err != nil {
		return fmt.Errorf("initial registry heartbeat: %w", err)
	}
	defer r.deregister()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.heartbeatLoop(ctx)
	}()
	defer wg.Wait()

	for {
		job, err := r.jobs.ReserveNext(ctx, model.JobTypePosts, r.lease)
		switch {
		case err == nil:
			r.execute(ctx, job)
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !sleepCtx(ctx, r.pollInterval) {
				return ctx.Err()
			}
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			r.logger.Error("reserve job failed", "error", err)
			if !sleepCtx(ctx, r.pollInterval) {
				return ctx.Err()
			}
		}
	}
}

// execute runs one reserved job to completion or failure.
func (r *Runner) execute(ctx context.Context, job *model.Job) {
	logger := r.logger.With("job_id", job.ID, "profile_id", job.ProfileID)
	logger.Info("job started")

	r.setCurrent(job)
	defer r.setCurrent(nil)

	r.publishWorker(ctx, model.WorkerEvent{
		Status:    model.WorkerEventStarted,
		JobID:     job.ID,
		JobType:   job.Type,
		ProfileID: job.ProfileID,
	})

	if err := r.extract(ctx, job); err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-job: leave the job leased so another worker
			// reclaims it after the lease lapses.
			logger.Info("job abandoned on shutdown")
			return
		}
		logger.Error("job failed", "error", err)
		r.failJob(ctx, job, err)
		return
	}

	if _, err := r.jobs.Complete(ctx, job.ID); err != nil {
		logger.Error("completing job failed", "error", err)
		return
	}
	logger.Info("job finished")

	r.publishWorker(ctx, model.WorkerEvent{
		Status:    model.WorkerEventFinished,
		JobID:     job.ID,
		JobType:   job.Type,
		ProfileID: job.ProfileID,
	})
	if r.events != nil {
		if err := r.events.PublishPostsChanged(ctx, model.PostsChangedEvent{ProfileID: job.ProfileID}); err != nil {
			logger.Warn("publish posts-changed failed", "error", err)
		}
	}
}

func (r *Runner) extract(ctx context.Context, job *model.Job) error {
	profile, err := r.profiles.GetByID(ctx, job.ProfileID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	site, ok := r.sites[profile.Site]
	if !ok {
		return apperrors.Validationf("site %q is not configured", profile.Site)
	}

	identity, err := r.extractor.Identity(ctx, site, profile.OriginalID)
	if err != nil {
		return fmt.Errorf("extract identity: %w", err)
	}
	if _, err := r.profiles.Upsert(ctx, identity); err != nil {
		return fmt.Errorf("store identity: %w", err)
	}

	for page := 1; page <= r.maxPages; page++ {
		posts, hasMore, err := r.extractor.PostsPage(ctx, site, profile.OriginalID, page)
		if err != nil {
			return fmt.Errorf("extract posts page %d: %w", page, err)
		}
		for i := range posts {
			if _, err := r.posts.Upsert(ctx, &model.Post{
				ProfileID:  profile.ID,
				OriginalID: posts[i].OriginalID,
				Content:    posts[i].Content,
				PostedAt:   posts[i].PostedAt,
			}); err != nil {
				return fmt.Errorf("store post %s: %w", posts[i].OriginalID, err)
			}
		}

		r.reportProgress(ctx, job, page, hasMore)

		if !hasMore {
			return nil
		}
		if ok, err := r.jobs.Heartbeat(ctx, job.ID, r.lease); err != nil {
			r.logger.Warn("job heartbeat failed", "job_id", job.ID, "error", err)
		} else if !ok {
			return errors.New("job lease was lost")
		}
	}
	return nil
}

// reportProgress records and publishes a page-granular progress tick. The
// fraction approaches but never reaches 1 until the job completes.
func (r *Runner) reportProgress(ctx context.Context, job *model.Job, page int, hasMore bool) {
	progress := float64(page) / float64(r.maxPages)
	if !hasMore {
		progress = 1
	} else if progress > 0.95 {
		progress = 0.95
	}

	if err := r.jobs.UpdateProgress(ctx, job.ID, page, progress); err != nil {
		r.logger.Warn("update progress failed", "job_id", job.ID, "error", err)
	}

	// The heartbeat goroutine snapshots the current job, so mutate it under
	// the same lock.
	r.mu.Lock()
	if r.current != nil && r.current.ID == job.ID {
		r.current.Current = page
		r.current.Progress = progress
	}
	r.mu.Unlock()

	r.publishWorker(ctx, model.WorkerEvent{
		Status:    model.WorkerEventProgress,
		JobID:     job.ID,
		JobType:   job.Type,
		ProfileID: job.ProfileID,
		Current:   page,
		Progress:  progress,
	})
}

func (r *Runner) failJob(ctx context.Context, job *model.Job, cause error) {
	if _, err := r.jobs.Fail(ctx, job.ID, apperrors.UserMessage(cause)); err != nil {
		r.logger.Error("recording job failure failed", "job_id", job.ID, "error", err)
	}
	r.publishWorker(ctx, model.WorkerEvent{
		Status:    model.WorkerEventFailed,
		JobID:     job.ID,
		JobType:   job.Type,
		ProfileID: job.ProfileID,
	})
}

func (r *Runner) publishWorker(ctx context.Context, ev model.WorkerEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishWorkerEvent(ctx, ev); err != nil {
		r.logger.Warn("publish worker event failed",
			"job_id", ev.JobID, "status", ev.Status, "error", err)
	}
}

func (r *Runner) heartbeatLoop(ctx context.Context) {
	interval := r.heartbeatTTL / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.registerHeartbeat(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("registry heartbeat failed", "error", err)
			}
		}
	}
}

func (r *Runner) registerHeartbeat(ctx context.Context) error {
	return r.registry.Heartbeat(ctx, &model.WorkerDescriptor{
		Name:       r.name,
		Hostname:   r.hostname,
		CurrentJob: r.currentJob(),
		StartedAt:  r.startedAt,
	}, r.heartbeatTTL)
}

func (r *Runner) deregister() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.registry.Deregister(ctx, r.name); err != nil {
		r.logger.Warn("deregister failed", "error", err)
	}
}

func (r *Runner) setCurrent(job *model.Job) {
	r.mu.Lock()
	r.current = job
	r.mu.Unlock()
}

// currentJob returns a snapshot of the running job for registry heartbeats.
func (r *Runner) currentJob() *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	snapshot := *r.current
	return &snapshot
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
