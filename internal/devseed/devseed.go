// Package devseed populates a development database with a small set of
// profiles, posts, and jobs so the API and the monitor have something to
// show. Seeding is idempotent: profiles and posts are upserted by their
// site-scoped identity.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/profilewatch/profile-ui-api/internal/data"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
)

type seedProfile struct {
	req         model.UpsertProfileRequest
	autoRefresh bool
	posts       []seedPost
	failedJob   string
	queuedJob   bool
}

type seedPost struct {
	originalID string
	content    string
	age        time.Duration
}

func seedProfiles() []seedProfile {
	return []seedProfile{
		{
			req: model.UpsertProfileRequest{
				Site:          "chirper",
				OriginalID:    "48291",
				Username:      "ada_listens",
				Description:   "field recordings and modular synth patches",
				PostCount:     4,
				FriendCount:   120,
				FollowerCount: 3400,
			},
			autoRefresh: true,
			posts: []seedPost{
				{"c-1001", "new patch notes are up, this one uses three LFOs and regret", 72 * time.Hour},
				{"c-1002", "recorded the tram depot at 5am. worth it", 48 * time.Hour},
				{"c-1003", "reminder that spring reverb is just a spring you yell at", 24 * time.Hour},
				{"c-1004", "show on friday, bring earplugs", 2 * time.Hour},
			},
			queuedJob: true,
		},
		{
			req: model.UpsertProfileRequest{
				Site:          "chirper",
				OriginalID:    "77023",
				Username:      "bread_ops",
				Description:   "sourdough incident reports",
				PostCount:     2,
				FriendCount:   15,
				FollowerCount: 980,
			},
			posts: []seedPost{
				{"c-2001", "the starter has unionized", 96 * time.Hour},
				{"c-2002", "crumb shot thread, do not reply with ciabatta discourse", 12 * time.Hour},
			},
			failedJob: "site chirper returned status 503",
		},
		{
			req: model.UpsertProfileRequest{
				Site:          "pixelfeed",
				OriginalID:    "u-9315",
				Username:      "mags.render",
				Description:   "isometric cities, one tile at a time",
				PostCount:     1,
				FriendCount:   42,
				FollowerCount: 210,
			},
			posts: []seedPost{
				{"p-0001", "block 14 finally has working streetlights", 6 * time.Hour},
			},
		},
	}
}

// Run seeds the development dataset through the regular repositories.
func Run(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed")

	tp := data.RealTimeProvider{}
	profiles := data.NewProfileRepo(db, tp)
	posts := data.NewPostRepo(db)
	jobs := data.NewJobRepo(db, data.JobRepoConfig{Logger: logger, TimeProvider: tp})

	now := time.Now().UTC()
	for _, seed := range seedProfiles() {
		profile, err := profiles.Upsert(ctx, &seed.req)
		if err != nil {
			return fmt.Errorf("seed profile %s/%s: %w", seed.req.Site, seed.req.OriginalID, err)
		}

		if seed.autoRefresh {
			if err := profiles.SetAutoRefresh(ctx, profile.ID, true); err != nil {
				return fmt.Errorf("enable auto refresh for profile %d: %w", profile.ID, err)
			}
		}

		for _, p := range seed.posts {
			if _, err := posts.Upsert(ctx, &model.Post{
				ProfileID:  profile.ID,
				OriginalID: p.originalID,
				Content:    p.content,
				PostedAt:   now.Add(-p.age),
			}); err != nil {
				return fmt.Errorf("seed post %s: %w", p.originalID, err)
			}
		}

		if err := seedJobs(ctx, db, jobs, profile.ID, seed); err != nil {
			return err
		}

		logger.InfoContext(ctx, "seeded profile",
			"profile_id", profile.ID,
			"site", profile.Site,
			"username", profile.Username,
			"posts", len(seed.posts),
		)
	}

	return nil
}

// seedJobs creates job rows for a profile: optionally one still-queued job
// and one that already failed, so the tasks endpoints have content. Active
// jobs are checked first, which keeps reruns from stacking up duplicates.
func seedJobs(ctx context.Context, db *sql.DB, jobs *data.JobRepo, profileID int64, seed seedProfile) error {
	if seed.failedJob != "" || seed.queuedJob {
		active, err := jobs.HasActiveJob(ctx, profileID, model.JobTypePosts)
		if err != nil {
			return fmt.Errorf("check active job for profile %d: %w", profileID, err)
		}
		if active {
			return nil
		}
	}

	if seed.failedJob != "" {
		job, err := jobs.Create(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: profileID})
		if err != nil {
			return fmt.Errorf("seed failed job for profile %d: %w", profileID, err)
		}
		// Failing a job normally goes queued -> started -> failed through a
		// worker; for seed data the row is moved directly.
		if _, err := db.ExecContext(ctx, `
			UPDATE jobs
			SET status = 'failed', last_error = $2, completed_at = $3, updated_at = $3
			WHERE id = $1
		`, job.ID, seed.failedJob, time.Now().UTC()); err != nil {
			return fmt.Errorf("fail seeded job %s: %w", job.ID, err)
		}
	}

	if seed.queuedJob {
		if _, err := jobs.Create(ctx, &model.CreateJobRequest{Type: model.JobTypePosts, ProfileID: profileID}); err != nil {
			return fmt.Errorf("seed queued job for profile %d: %w", profileID, err)
		}
	}

	return nil
}
