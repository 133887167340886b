// Package model defines the core data types shared across the profilewatch services.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the kind of extraction work a job performs.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current lifecycle state of a job.
type JobStatus string

const (
	// JobTypePosts represents a posts-extraction job for a profile.
	JobTypePosts JobType = "posts"
	// JobTypeProfile represents a profile bio/counters refresh job.
	JobTypeProfile JobType = "profile"

	// JobStatusQueued indicates a job is waiting for a worker.
	JobStatusQueued JobStatus = "queued"
	// JobStatusStarted indicates a worker has picked the job up.
	JobStatusStarted JobStatus = "started"
	// JobStatusFinished indicates the job completed successfully.
	JobStatusFinished JobStatus = "finished"
	// JobStatusFailed indicates the job failed permanently.
	JobStatusFailed JobStatus = "failed"
)

// ErrNoJobsAvailable is returned when no jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypePosts || t == JobTypeProfile
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusStarted || s == JobStatusFinished ||
		s == JobStatusFailed
}

// Job represents one unit of background extraction work tied to a profile.
//
// Current is the page the worker is on and Progress the completed fraction in
// [0,1]; both are meaningful only while the job is started.
type Job struct {
	ID             string     `json:"id"                         db:"id"`
	Type           JobType    `json:"type"                       db:"type"`
	Status         JobStatus  `json:"status"                     db:"status"`
	ProfileID      int64      `json:"profile_id"                 db:"profile_id"`
	Current        int        `json:"current"                    db:"current"`
	Progress       float64    `json:"progress"                   db:"progress"`
	LastError      *string    `json:"last_error,omitempty"       db:"last_error"`
	ScheduledAt    time.Time  `json:"scheduled_at"               db:"scheduled_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"     db:"completed_at"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	CreatedAt      time.Time  `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"                 db:"updated_at"`
}

// CreateJobRequest represents a request to enqueue a new extraction job.
type CreateJobRequest struct {
	Type      JobType `json:"type"`
	ProfileID int64   `json:"profile_id"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if r.ProfileID <= 0 {
		return errors.New("profile id must be positive")
	}
	return nil
}

// FailedTask describes a permanently failed job as surfaced by the tasks API.
type FailedTask struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	ProfileID int64     `json:"profile_id"`
	Error     string    `json:"error,omitempty"`
	FailedAt  time.Time `json:"failed_at"`
}
