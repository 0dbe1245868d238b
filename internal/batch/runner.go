package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

func (e *Engine) run(ctx context.Context, id string, src Source) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("job runner panicked", "job_id", id, "panic", r)
			e.finish(id, false, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := e.pool.Acquire(ctx, 1); err != nil {
		e.finish(id, false, interrupted(ctx).Error())
		return
	}
	defer e.pool.Release(1)

	err := e.process(ctx, id, src)
	switch {
	case err == nil:
		e.finish(id, true, "")
	case errors.Is(err, ErrJobNotActive), errors.Is(err, ErrJobCancelled):
		// the registry already recorded the cancellation
	default:
		e.logger.Error("job failed", "job_id", id, "error", err)
		e.finish(id, false, err.Error())
	}
}

func (e *Engine) process(ctx context.Context, id string, src Source) error {
	txns, err := src.Load(id)
	if err != nil {
		return err
	}
	if err := e.registry.Start(id, len(txns)); err != nil {
		return err
	}
	e.publish(id)
	e.logger.Info("job started", "job_id", id, "total_items", len(txns))

	chunks := e.dispatcher.Chunks(txns)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return interrupted(ctx)
		}

		out := e.dispatcher.Dispatch(ctx, i+1, chunk)
		if out.Err != nil {
			if ctx.Err() != nil {
				return interrupted(ctx)
			}
			e.logger.Warn("chunk failed", "job_id", id, "chunk", out.Index, "size", out.Size, "error", out.Err)
		}

		if err := e.registry.Apply(id, out, e.opts.HighRiskThreshold); err != nil {
			return err
		}
		e.persist(ctx, id, out.Predictions)

		if i < len(chunks)-1 {
			if err := e.pause(ctx); err != nil {
				return err
			}
		}
	}

	job, err := e.registry.Get(id)
	if err != nil {
		return err
	}
	if job.Results.HighRiskCount > 0 {
		e.alert(ctx, job)
	}
	return nil
}

// persist writes predictions best-effort with bounded fan-out.
func (e *Engine) persist(ctx context.Context, id string, preds []models.Prediction) {
	if e.sink == nil || len(preds) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(e.opts.PersistConcurrency)
	for _, p := range preds {
		g.Go(func() error {
			if err := e.sink.SavePrediction(ctx, id, p); err != nil {
				e.logger.Warn("persist prediction failed", "job_id", id, "transaction_id", p.TransactionID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) alert(ctx context.Context, job *models.Job) {
	if e.alerter == nil {
		return
	}
	a := models.Alert{
		Type:    models.AlertTypeBatchHighRisk,
		Message: fmt.Sprintf("Batch processing found %d high-risk transactions", job.Results.HighRiskCount),
		Details: models.AlertDetails{
			JobID:          job.ID,
			TotalProcessed: job.ProcessedItems,
			HighRiskCount:  job.Results.HighRiskCount,
		},
	}
	if err := e.alerter.SystemAlert(ctx, a); err != nil {
		e.logger.Warn("send high-risk alert failed", "job_id", job.ID, "error", err)
	}
}

func (e *Engine) pause(ctx context.Context) error {
	if e.opts.ChunkPause <= 0 {
		return nil
	}
	t := time.NewTimer(e.opts.ChunkPause)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return interrupted(ctx)
	}
}

func (e *Engine) finish(id string, success bool, msg string) {
	if err := e.registry.Complete(id, success, msg); err != nil {
		if !errors.Is(err, ErrJobNotFound) {
			e.logger.Error("complete job failed", "job_id", id, "error", err)
		}
		return
	}

	status := models.JobStatusCompleted
	if !success {
		status = models.JobStatusFailed
	}
	e.logger.Info("job finished", "job_id", id, "status", status)
	e.publish(id)
}

func interrupted(ctx context.Context) error {
	return fmt.Errorf("interrupted: %w", context.Cause(ctx))
}
