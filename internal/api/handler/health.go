package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/fraudbatch/internal/api/response"
)

const (
	serviceName        = "batch_service"
	healthCheckTimeout = 3 * time.Second
)

// DependencyCheck checks one downstream dependency.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// JobCounter reports registry sizes.
type JobCounter interface {
	Counts() (active, history int)
}

type healthResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Version       string            `json:"version"`
	Timestamp     time.Time         `json:"timestamp"`
	ActiveJobs    int               `json:"active_jobs"`
	CompletedJobs int               `json:"completed_jobs"`
	Config        any               `json:"config,omitempty"`
	Checks        map[string]string `json:"checks"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /health. It answers 503
// when any dependency check fails.
func NewHealthHandler(version string, jobs JobCounter, config any, checks ...DependencyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{
			Status:    "healthy",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
			Config:    config,
			Checks:    make(map[string]string, len(checks)),
		}
		resp.ActiveJobs, resp.CompletedJobs = jobs.Counts()

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Checks[c.Name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		status := http.StatusOK
		if resp.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		response.Status(w, status, resp)
	}
}
