package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fraudbatch/internal/api/response"
	"github.com/kiranshivaraju/fraudbatch/internal/batch"
	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// JobStatusReader reports the in-memory status of a job.
type JobStatusReader interface {
	Status(id string) (models.JobStatus, error)
}

// StatusMirror is the shared job status mirror, readable after a job has
// left this process's history.
type StatusMirror interface {
	GetJobStatus(ctx context.Context, jobID string) (models.JobStatus, bool, error)
}

type jobStatusResponse struct {
	JobID  string           `json:"job_id"`
	Status models.JobStatus `json:"status"`
	Source string           `json:"source"`
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /jobs/{jobID}/status.
// It answers from the registry and falls back to mirror, which may be nil.
func NewJobStatusHandler(jobs JobStatusReader, mirror StatusMirror) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "jobID")

		status, err := jobs.Status(id)
		if err == nil {
			response.JSON(w, jobStatusResponse{JobID: id, Status: status, Source: "registry"})
			return
		}
		if !errors.Is(err, batch.ErrJobNotFound) {
			writeServiceError(w, err)
			return
		}

		if mirror != nil {
			status, ok, err := mirror.GetJobStatus(r.Context(), id)
			if err != nil {
				slog.Warn("read job status mirror failed", "job_id", id, "error", err)
			}
			if ok {
				response.JSON(w, jobStatusResponse{JobID: id, Status: status, Source: "mirror"})
				return
			}
		}
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
	}
}
