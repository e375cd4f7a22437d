package models

import "time"

// BatchJobStatus captures the lifecycle of a background regeneration.
type BatchJobStatus string

const (
	BatchJobQueued    BatchJobStatus = "QUEUED"
	BatchJobRunning   BatchJobStatus = "RUNNING"
	BatchJobSucceeded BatchJobStatus = "SUCCEEDED"
	BatchJobFailed    BatchJobStatus = "FAILED"
)

// BatchJob tracks one department regeneration queued through the batch endpoint.
type BatchJob struct {
	ID            string         `json:"id"`
	DepartmentID  string         `json:"departmentId"`
	Status        BatchJobStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	PlacedCount   int            `json:"placedCount,omitempty"`
	UnplacedCount int            `json:"unplacedCount,omitempty"`
	ErrorCode     string         `json:"errorCode,omitempty"`
	EnqueuedAt    time.Time      `json:"enqueuedAt"`
	FinishedAt    *time.Time     `json:"finishedAt,omitempty"`
}
