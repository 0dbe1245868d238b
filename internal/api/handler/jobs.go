package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fraudbatch/internal/api/response"
	"github.com/kiranshivaraju/fraudbatch/internal/batch"
	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

const (
	defaultListLimit = 50
	maxRequestBytes  = 32 << 20
)

// JobService defines the engine operations the job handlers depend on.
type JobService interface {
	Submit(jobType models.JobType, data json.RawMessage) (string, error)
	Get(id string) (*models.Job, error)
	List(status models.JobStatus, limit int) []*models.Job
	Cancel(id string) error
	Counts() (active, history int)
	Stats() models.Stats
}

type createJobRequest struct {
	JobType models.JobType  `json:"job_type"`
	Data    json.RawMessage `json:"data"`
}

type createJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listJobsResponse struct {
	Jobs          []*models.Job `json:"jobs"`
	Count         int           `json:"count"`
	ActiveJobs    int           `json:"active_jobs"`
	CompletedJobs int           `json:"completed_jobs"`
}

type cancelJobResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

		var req createJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		id, err := svc.Submit(req.JobType, req.Data)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Accepted(w, createJobResponse{
			JobID:   id,
			Status:  "created",
			Message: "Batch job created and started",
		})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.Get(chi.URLParam(r, "jobID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := defaultListLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			limit = n
		}

		status := models.JobStatus(q.Get("status"))
		if status != "" && !status.Valid() {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("unknown status %q", status), nil)
			return
		}

		jobs := svc.List(status, limit)
		active, history := svc.Counts()
		response.JSON(w, listJobsResponse{
			Jobs:          jobs,
			Count:         len(jobs),
			ActiveJobs:    active,
			CompletedJobs: history,
		})
	}
}

// NewCancelJobHandler returns an http.HandlerFunc for DELETE /jobs/{jobID}.
func NewCancelJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobID")
		if err := svc.Cancel(id); err != nil {
			if errors.Is(err, batch.ErrJobNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found or already completed", nil)
				return
			}
			writeServiceError(w, err)
			return
		}
		response.JSON(w, cancelJobResponse{
			Status:  "cancelled",
			Message: fmt.Sprintf("Job %s has been cancelled", id),
		})
	}
}

// NewStatsHandler returns an http.HandlerFunc for GET /stats.
func NewStatsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, svc.Stats())
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *batch.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, nil)
	case errors.Is(err, batch.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, batch.ErrJobNotFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	case errors.Is(err, batch.ErrShuttingDown):
		response.Error(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Service is shutting down", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
