// Package scheduler periodically re-enqueues posts extraction for profiles
// flagged for auto-refresh.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

// DefaultSpec refreshes auto-refresh profiles every six hours.
const DefaultSpec = "0 */6 * * *"

// AutoRefreshLister yields the profiles with auto-refresh enabled.
type AutoRefreshLister interface {
	ListAutoRefresh(ctx context.Context) ([]*model.Profile, error)
}

// Enqueuer schedules extraction jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
}

// Options groups dependencies for Scheduler.
type Options struct {
	Profiles AutoRefreshLister // Required
	Tasks    Enqueuer          // Required
	Spec     string            // Optional: cron expression, default DefaultSpec
	Logger   *slog.Logger      // Optional
}

// Scheduler drives cron-timed posts re-extraction.
type Scheduler struct {
	profiles AutoRefreshLister
	tasks    Enqueuer
	spec     string
	cron     *cron.Cron
	logger   *slog.Logger
}

// New constructs a Scheduler. It returns an error when the cron expression
// does not parse.
func New(opts Options) (*Scheduler, error) {
	if opts.Profiles == nil {
		panic("AutoRefreshLister is required")
	}
	if opts.Tasks == nil {
		panic("Enqueuer is required")
	}

	spec := opts.Spec
	if spec == "" {
		spec = DefaultSpec
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		profiles: opts.Profiles,
		tasks:    opts.Tasks,
		spec:     spec,
		cron:     cron.New(),
		logger:   logger.With("component", "scheduler"),
	}, nil
}

// Run starts the cron loop and blocks until ctx is canceled, then waits for
// an in-flight refresh to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.refresh(ctx) }); err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}

	s.logger.Info("scheduler starting", "spec", s.spec)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// refresh enqueues a posts job for every auto-refresh profile. Profiles with
// a job already queued or running are skipped.
func (s *Scheduler) refresh(ctx context.Context) {
	profiles, err := s.profiles.ListAutoRefresh(ctx)
	if err != nil {
		s.logger.Error("listing auto-refresh profiles failed", "error", err)
		return
	}
	if len(profiles) == 0 {
		return
	}

	var enqueued, skipped int
	for _, profile := range profiles {
		_, err := s.tasks.Enqueue(ctx, &model.CreateJobRequest{
			Type:      model.JobTypePosts,
			ProfileID: profile.ID,
		})
		switch {
		case err == nil:
			enqueued++
		case apperrors.IsConflict(err):
			skipped++
		default:
			s.logger.Error("enqueue refresh failed",
				"profile_id", profile.ID, "error", err)
		}
	}

	s.logger.Info("refresh sweep complete",
		"profiles", len(profiles), "enqueued", enqueued, "skipped", skipped)
}
