package batch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// Defaults applied by NewEngine to zero-valued Options fields.
const (
	DefaultMaxBatchSize       = 1000
	DefaultChunkPause         = 100 * time.Millisecond
	DefaultHighRiskThreshold  = 0.8
	DefaultMaxConcurrentJobs  = 4
	DefaultPersistConcurrency = 8
)

const statusPublishTimeout = 2 * time.Second

// PredictionSink stores one scored prediction. Failures are logged and never
// affect the job.
type PredictionSink interface {
	SavePrediction(ctx context.Context, jobID string, p models.Prediction) error
}

// Alerter delivers system alerts.
type Alerter interface {
	SystemAlert(ctx context.Context, alert models.Alert) error
}

// StatusPublisher mirrors job status changes somewhere other services can poll.
type StatusPublisher interface {
	SetJobStatus(ctx context.Context, jobID string, status models.JobStatus) error
}

// Options configures an Engine.
type Options struct {
	MaxBatchSize       int           `json:"max_batch_size"`
	ChunkSize          int           `json:"chunk_size"`
	ChunkPause         time.Duration `json:"chunk_pause"` // negative disables the pause
	HighRiskThreshold  float64       `json:"high_risk_threshold"`
	HistoryLimit       int           `json:"history_limit"`
	MaxConcurrentJobs  int           `json:"max_concurrent_jobs"`
	PersistConcurrency int           `json:"persist_concurrency"`

	Logger *slog.Logger    `json:"-"`
	Status StatusPublisher `json:"-"` // optional
}

// MarshalJSON renders ChunkPause as a duration string such as "100ms".
func (o Options) MarshalJSON() ([]byte, error) {
	type plain Options
	return json.Marshal(struct {
		plain
		ChunkPause string `json:"chunk_pause"`
	}{plain(o), o.ChunkPause.String()})
}

func (o Options) withDefaults() Options {
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkPause == 0 {
		o.ChunkPause = DefaultChunkPause
	}
	if o.HighRiskThreshold <= 0 {
		o.HighRiskThreshold = DefaultHighRiskThreshold
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.MaxConcurrentJobs <= 0 {
		o.MaxConcurrentJobs = DefaultMaxConcurrentJobs
	}
	if o.PersistConcurrency <= 0 {
		o.PersistConcurrency = DefaultPersistConcurrency
	}
	return o
}

// Engine accepts batch jobs and runs them in the background, at most
// MaxConcurrentJobs at a time.
type Engine struct {
	registry   *Registry
	dispatcher *Dispatcher
	sink       PredictionSink
	alerter    Alerter
	status     StatusPublisher
	publishMu  sync.Mutex
	pool       *semaphore.Weighted
	opts       Options
	logger     *slog.Logger

	base context.Context
	stop context.CancelCauseFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEngine wires an Engine. sink and alerter may be nil to disable those side effects.
func NewEngine(scorer Scorer, sink PredictionSink, alerter Alerter, opts Options) *Engine {
	opts = opts.withDefaults()
	base, stop := context.WithCancelCause(context.Background())

	return &Engine{
		registry:   NewRegistry(opts.HistoryLimit),
		dispatcher: NewDispatcher(scorer, opts.ChunkSize),
		sink:       sink,
		alerter:    alerter,
		status:     opts.Status,
		pool:       semaphore.NewWeighted(int64(opts.MaxConcurrentJobs)),
		opts:       opts,
		logger:     resolveLogger(opts.Logger),
		base:       base,
		stop:       stop,
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Config returns the effective options after defaults were applied.
func (e *Engine) Config() Options {
	return e.opts
}

// Submit validates a job request, registers a pending job, and starts its
// runner. It returns without waiting for any scoring. Validation failures
// wrap ErrValidation and leave no job behind.
func (e *Engine) Submit(jobType models.JobType, data json.RawMessage) (string, error) {
	src, err := NewSource(jobType, data, e.opts.MaxBatchSize)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrShuttingDown
	}
	ctx, cancel := context.WithCancelCause(e.base)
	id := e.registry.Create(jobType, data, cancel)
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Info("job created", "job_id", id, "job_type", jobType)
	e.publish(id)

	go e.run(ctx, id, src)
	return id, nil
}

// Get returns a snapshot of the job.
func (e *Engine) Get(id string) (*models.Job, error) {
	return e.registry.Get(id)
}

// Status returns the job's current status.
func (e *Engine) Status(id string) (models.JobStatus, error) {
	return e.registry.Status(id)
}

// List returns job snapshots, newest first.
func (e *Engine) List(status models.JobStatus, limit int) []*models.Job {
	return e.registry.List(status, limit)
}

// Counts returns how many jobs are active and how many are retained in history.
func (e *Engine) Counts() (active, history int) {
	return e.registry.Counts()
}

// Cancel stops an active job. Jobs that already finished return ErrJobNotFound.
func (e *Engine) Cancel(id string) error {
	if err := e.registry.Cancel(id); err != nil {
		return err
	}
	e.logger.Info("job cancelled", "job_id", id)
	e.publish(id)
	return nil
}

// Stats aggregates every active and retained job.
func (e *Engine) Stats() models.Stats {
	return ComputeStats(e.registry.List("", 0))
}

// Shutdown stops accepting jobs and waits for running ones. If ctx expires
// first, remaining runners are interrupted and Shutdown waits for them to
// record their failure before returning ctx's error.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.stop(ErrShuttingDown)
		return nil
	case <-ctx.Done():
		e.logger.Warn("shutdown timeout reached, interrupting running jobs")
		e.stop(ErrShuttingDown)
		<-done
		return ctx.Err()
	}
}

// publish mirrors the job's current registry status. Publishes are serialized
// and read the status under the lock, so the last write matches the registry.
func (e *Engine) publish(id string) {
	if e.status == nil {
		return
	}
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	status, err := e.registry.Status(id)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statusPublishTimeout)
	defer cancel()
	if err := e.status.SetJobStatus(ctx, id, status); err != nil {
		e.logger.Warn("publish job status failed", "job_id", id, "status", status, "error", err)
	}
}
