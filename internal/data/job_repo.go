// Package data provides PostgreSQL and redis backed repositories for the
// profilewatch schema.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/profilewatch/profile-ui-api/internal/data/pgxutil"
	"github.com/profilewatch/profile-ui-api/internal/domain/model"
	apperrors "github.com/profilewatch/profile-ui-api/internal/errors"
)

// JobRepoConfig holds construction options for JobRepo.
type JobRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for extraction jobs.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a JobRepo on the given database handle.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

const jobColumns = `
  id,
  type,
  status,
  profile_id,
  current,
  progress,
  last_error,
  scheduled_at,
  started_at,
  completed_at,
  lease_expires_at,
  created_at,
  updated_at
`

// jobColumnsQualified mirrors jobColumns with a j. prefix, in the same scan
// order. The reserve query joins jobs against its claiming CTE, and CTE
// columns are visible in RETURNING, so an unqualified id is ambiguous there.
const jobColumnsQualified = `
  j.id,
  j.type,
  j.status,
  j.profile_id,
  j.current,
  j.progress,
  j.last_error,
  j.scheduled_at,
  j.started_at,
  j.completed_at,
  j.lease_expires_at,
  j.created_at,
  j.updated_at
`

// SQL used by ReserveNext to atomically claim the oldest queued job.
const reserveNextSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE type = $1 AND status = 'queued' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'started',
    started_at = COALESCE(j.started_at, $2),
    lease_expires_at = $3,
    updated_at = $2
  FROM cte
  WHERE j.id = cte.id
  RETURNING` + jobColumnsQualified

// Create enqueues a new job for a profile.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid job request")
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO jobs (type, status, profile_id, scheduled_at)
		VALUES ($1, 'queued', $2, $3)
		RETURNING`+jobColumns,
		req.Type, req.ProfileID, now)

	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// GetByID retrieves a job by its id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT`+jobColumns+`
		FROM jobs
		WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// ReserveNext atomically claims the oldest queued job of the given type,
// marking it started with a lease. Expired leases are requeued first.
func (r *JobRepo) ReserveNext(
	ctx context.Context,
	jobType model.JobType,
	lease time.Duration,
) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, apperrors.Validationf("invalid job type %q", jobType)
	}
	if lease <= 0 {
		return nil, apperrors.Validation("lease must be positive")
	}

	if err := r.requeueExpired(ctx, jobType); err != nil {
		return nil, fmt.Errorf("requeue expired jobs: %w", err)
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now().UTC()
			rows, err := tx.Query(ctx, reserveNextSQL, jobType, now, now.Add(lease))
			if err != nil {
				return fmt.Errorf("reserve job: %w", err)
			}
			defer rows.Close()

			j, err := collectJob(rows)
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNoJobsAvailable
			}
			if err != nil {
				return fmt.Errorf("collect job: %w", err)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, err
	}
	return job, nil
}

// requeueExpired returns started jobs with lapsed leases to the queue so a
// crashed worker's job is not lost.
func (r *JobRepo) requeueExpired(ctx context.Context, jobType model.JobType) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'queued', lease_expires_at = NULL, updated_at = $2
		WHERE type = $1 AND status = 'started'
		  AND lease_expires_at IS NOT NULL
		  AND lease_expires_at < $2
	`, jobType, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.WarnContext(ctx, "requeued expired jobs", "type", jobType, "count", n)
	}
	return nil
}

// Heartbeat extends the lease on a started job. Returns false when the job is
// no longer started.
func (r *JobRepo) Heartbeat(ctx context.Context, id string, lease time.Duration) (bool, error) {
	if lease <= 0 {
		return false, apperrors.Validation("lease must be positive")
	}

	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET lease_expires_at = $2, updated_at = $3
		WHERE id = $1 AND status = 'started'
	`, id, now.Add(lease), now)
	if err != nil {
		return false, fmt.Errorf("heartbeat job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("heartbeat rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateProgress records the worker's current page and completed fraction.
func (r *JobRepo) UpdateProgress(ctx context.Context, id string, current int, progress float64) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET current = $2, progress = $3, updated_at = $4
		WHERE id = $1 AND status = 'started'
	`, id, current, progress, now)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("progress rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NotFoundf("no started job %s", id)
	}
	return nil
}

// Complete marks a started job finished. Returns false when the job was not
// in the started state.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'finished',
		    progress = 1,
		    completed_at = $2,
		    updated_at = $2,
		    lease_expires_at = NULL,
		    last_error = NULL
		WHERE id = $1 AND status = 'started'
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete rows affected: %w", err)
	}
	return n > 0, nil
}

// Fail marks a started job permanently failed with the given error message.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'failed',
		    last_error = $2,
		    completed_at = $3,
		    updated_at = $3,
		    lease_expires_at = NULL
		WHERE id = $1 AND status = 'started'
	`, id, errMsg, now)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("fail rows affected: %w", err)
	}
	return n > 0, nil
}

// ListFailed returns the most recently failed jobs, newest first.
func (r *JobRepo) ListFailed(ctx context.Context, limit int) ([]model.FailedTask, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, type, profile_id, COALESCE(last_error, ''), completed_at
		FROM jobs
		WHERE status = 'failed'
		ORDER BY completed_at DESC NULLS LAST
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failed []model.FailedTask
	for rows.Next() {
		var task model.FailedTask
		var failedAt sql.NullTime
		if err := rows.Scan(&task.ID, &task.Type, &task.ProfileID, &task.Error, &failedAt); err != nil {
			return nil, fmt.Errorf("scan failed job: %w", err)
		}
		if failedAt.Valid {
			task.FailedAt = failedAt.Time.UTC()
		}
		failed = append(failed, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed jobs: %w", err)
	}
	return failed, nil
}

// HasActiveJob reports whether a queued or started job of the given type
// exists for the profile.
func (r *JobRepo) HasActiveJob(ctx context.Context, profileID int64, jobType model.JobType) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM jobs
			WHERE profile_id = $1 AND type = $2 AND status IN ('queued', 'started')
		)
	`, profileID, jobType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active job: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*model.Job, error) {
	var job model.Job
	var lastError sql.NullString
	var startedAt, completedAt, leaseExpiresAt sql.NullTime

	err := scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&job.ProfileID,
		&job.Current,
		&job.Progress,
		&lastError,
		&job.ScheduledAt,
		&startedAt,
		&completedAt,
		&leaseExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		s := lastError.String
		job.LastError = &s
	}
	job.StartedAt = nullableTime(startedAt)
	job.CompletedAt = nullableTime(completedAt)
	job.LeaseExpiresAt = nullableTime(leaseExpiresAt)
	return &job, nil
}

func collectJob(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	job, err := scanJob(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return job, nil
}

func nullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
