package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// DefaultHistoryLimit is how many terminal jobs are retained after they leave the active set.
const DefaultHistoryLimit = 100

const cancelledMessage = "Job cancelled by user"

type entry struct {
	job    *models.Job
	cancel context.CancelCauseFunc
}

// Registry owns active jobs and a bounded history of terminal jobs.
// Every job mutation goes through it under a single mutex, so a cancel
// and the job's own runner never write the same record concurrently.
type Registry struct {
	mu         sync.RWMutex
	active     map[string]*entry
	history    []*models.Job // oldest first
	historyCap int
	seq        uint64
	now        func() time.Time
}

// NewRegistry creates a Registry retaining at most historyCap terminal jobs.
func NewRegistry(historyCap int) *Registry {
	if historyCap <= 0 {
		historyCap = DefaultHistoryLimit
	}
	return &Registry{
		active:     make(map[string]*entry),
		historyCap: historyCap,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new pending job and returns its id. cancel, when non-nil,
// is fired once the job leaves the active set.
func (r *Registry) Create(jobType models.JobType, data json.RawMessage, cancel context.CancelCauseFunc) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.seq++
	id := fmt.Sprintf("batch_%s_%d", now.Format("20060102_150405"), r.seq)

	r.active[id] = &entry{
		job: &models.Job{
			ID:        id,
			Type:      jobType,
			Status:    models.JobStatusPending,
			CreatedAt: now,
			Results:   models.JobResults{Predictions: []models.Prediction{}, Errors: []models.ChunkError{}},
			Data:      data,
			Seq:       r.seq,
		},
		cancel: cancel,
	}
	return id
}

// Start moves a pending job to running and records its item count.
func (r *Registry) Start(id string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[id]
	if !ok {
		return ErrJobNotActive
	}
	if e.job.Status != models.JobStatusPending {
		return fmt.Errorf("invalid job status transition: %s -> %s", e.job.Status, models.JobStatusRunning)
	}

	now := r.now()
	e.job.Status = models.JobStatusRunning
	e.job.StartedAt = &now
	e.job.TotalItems = total
	return nil
}

// Apply folds a chunk outcome into a running job and republishes its progress.
func (r *Registry) Apply(id string, out ChunkOutcome, threshold float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[id]
	if !ok {
		return ErrJobNotActive
	}
	if e.job.Status != models.JobStatusRunning {
		return fmt.Errorf("apply chunk to %s job", e.job.Status)
	}

	j := e.job
	j.Results = Accumulate(j.Results, out, threshold)
	j.ProcessedItems = j.Results.Processed
	j.FailedItems = j.Results.Failed
	j.Progress = Progress(j.ProcessedItems, j.FailedItems, j.TotalItems)
	return nil
}

// Complete marks an active job terminal and moves it to history.
func (r *Registry) Complete(id string, success bool, errorMessage string) error {
	status := models.JobStatusCompleted
	if !success {
		status = models.JobStatusFailed
	}

	r.mu.Lock()
	e, ok := r.active[id]
	if !ok {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	r.finishLocked(id, e, status, errorMessage)
	r.mu.Unlock()

	if e.cancel != nil {
		e.cancel(context.Canceled)
	}
	return nil
}

// Cancel fails an active job and signals its runner to stop.
// Jobs already in history are reported as not found.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	e, ok := r.active[id]
	if !ok {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	r.finishLocked(id, e, models.JobStatusFailed, cancelledMessage)
	r.mu.Unlock()

	if e.cancel != nil {
		e.cancel(ErrJobCancelled)
	}
	return nil
}

func (r *Registry) finishLocked(id string, e *entry, status models.JobStatus, errorMessage string) {
	now := r.now()
	e.job.Status = status
	e.job.CompletedAt = &now
	if errorMessage != "" {
		msg := errorMessage
		e.job.ErrorMessage = &msg
	}

	delete(r.active, id)
	r.history = append(r.history, e.job)
	if over := len(r.history) - r.historyCap; over > 0 {
		clear(r.history[:over])
		r.history = append(r.history[:0], r.history[over:]...)
	}
}

// Get returns a copy of the job, looking in the active set first, then history.
func (r *Registry) Get(id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.active[id]; ok {
		return e.job.Clone(), nil
	}
	for _, j := range r.history {
		if j.ID == id {
			return j.Clone(), nil
		}
	}
	return nil, ErrJobNotFound
}

// Status returns the job's current status without copying its results.
func (r *Registry) Status(id string) (models.JobStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.active[id]; ok {
		return e.job.Status, nil
	}
	for _, j := range r.history {
		if j.ID == id {
			return j.Status, nil
		}
	}
	return "", ErrJobNotFound
}

// List returns copies of active and retained jobs, newest first. An empty status
// matches every job; a limit <= 0 returns all matches.
func (r *Registry) List(status models.JobStatus, limit int) []*models.Job {
	r.mu.RLock()
	jobs := make([]*models.Job, 0, len(r.active)+len(r.history))
	for _, e := range r.active {
		if status == "" || e.job.Status == status {
			jobs = append(jobs, e.job.Clone())
		}
	}
	for _, j := range r.history {
		if status == "" || j.Status == status {
			jobs = append(jobs, j.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.After(jobs[b].CreatedAt)
		}
		return jobs[a].Seq > jobs[b].Seq
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs
}

// Counts returns the sizes of the active set and the history.
func (r *Registry) Counts() (active, history int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active), len(r.history)
}
