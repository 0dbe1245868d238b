// Package models contains shared data models used across the batch service.
package models

import (
	"encoding/json"
	"time"
)

// JobType identifies which source adapter feeds a job.
type JobType string

const (
	JobTypeProcessTransactions JobType = "process_transactions"
	JobTypeProcessCSV          JobType = "process_csv"
)

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Job tracks one bulk scoring request. The API returns job_id on POST /jobs;
// the client polls GET /jobs/{job_id} until status is completed or failed.
type Job struct {
	ID             string          `json:"job_id"`
	Type           JobType         `json:"job_type"`
	Status         JobStatus       `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at"`
	Progress       float64         `json:"progress"`
	TotalItems     int             `json:"total_items"`
	ProcessedItems int             `json:"processed_items"`
	FailedItems    int             `json:"failed_items"`
	Results        JobResults      `json:"results"`
	ErrorMessage   *string         `json:"error_message"`
	Data           json.RawMessage `json:"data,omitempty"`

	// Seq orders jobs created within the same clock tick.
	Seq uint64 `json:"-"`
}

// JobResults accumulates chunk outcomes for a job.
type JobResults struct {
	Processed     int          `json:"processed"`
	Failed        int          `json:"failed"`
	HighRiskCount int          `json:"high_risk_count"`
	Predictions   []Prediction `json:"predictions"`
	Errors        []ChunkError `json:"errors"`
	HasErrors     bool         `json:"has_errors"`
}

// ChunkError describes a chunk that could not be scored.
// Chunk is 1-based, matching the order chunks were dispatched in.
type ChunkError struct {
	Chunk   int    `json:"chunk"`
	Size    int    `json:"size"`
	Message string `json:"message"`
}

// Clone returns a deep copy safe to hand to readers while a runner keeps writing.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		c.ErrorMessage = &msg
	}
	c.Results.Predictions = cloneSlice(j.Results.Predictions)
	c.Results.Errors = cloneSlice(j.Results.Errors)
	return &c
}

// cloneSlice copies s, keeping a non-nil empty slice non-nil so it still
// encodes as [] rather than null.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	c := make([]T, len(s))
	copy(c, s)
	return c
}
