package model

import "time"

// WorkerDescriptor describes one live extraction worker. A worker executes at
// most one job at a time; CurrentJob is nil while the worker is idle.
type WorkerDescriptor struct {
	Name       string    `json:"name"`
	Hostname   string    `json:"hostname,omitempty"`
	CurrentJob *Job      `json:"current_job"`
	StartedAt  time.Time `json:"started_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// WorkerList is the response body of the workers endpoint.
type WorkerList struct {
	Workers []WorkerDescriptor `json:"workers"`
}

// FailedTaskList is the response body of the failed tasks endpoint.
type FailedTaskList struct {
	Failed []FailedTask `json:"failed"`
}
