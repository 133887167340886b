package model

// WorkerEventStatus represents the kind of a worker push event.
//
// It covers the job lifecycle transitions plus the high-frequency progress
// tick, which is not a lifecycle state of its own.
type WorkerEventStatus string

const (
	// WorkerEventQueued signals a job entered the queue.
	WorkerEventQueued WorkerEventStatus = "queued"
	// WorkerEventStarted signals a worker picked a job up.
	WorkerEventStarted WorkerEventStatus = "started"
	// WorkerEventFinished signals a job completed successfully.
	WorkerEventFinished WorkerEventStatus = "finished"
	// WorkerEventProgress signals an in-place progress update for a running job.
	WorkerEventProgress WorkerEventStatus = "progress"
	// WorkerEventFailed signals a job failed permanently.
	WorkerEventFailed WorkerEventStatus = "failed"
)

// Valid returns true if the WorkerEventStatus is valid.
func (s WorkerEventStatus) Valid() bool {
	switch s {
	case WorkerEventQueued, WorkerEventStarted, WorkerEventFinished,
		WorkerEventProgress, WorkerEventFailed:
		return true
	}
	return false
}

// WorkerEvent is a push notification about a job's execution. Current and
// Progress are only populated for progress events.
type WorkerEvent struct {
	Status    WorkerEventStatus `json:"status"`
	JobID     string            `json:"id"`
	JobType   JobType           `json:"type"`
	ProfileID int64             `json:"profile_id"`
	Current   int               `json:"current"`
	Progress  float64           `json:"progress"`
}

// PostsChangedEvent is a push notification that a profile's stored post set
// changed and any displayed page should be refetched.
type PostsChangedEvent struct {
	ProfileID int64 `json:"profile_id"`
}
