package batch

import (
	"fmt"
	"slices"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// ChunkOutcome is the result of dispatching one chunk to the scorer.
type ChunkOutcome struct {
	Index       int // 1-based position of the chunk within the job
	Size        int
	Predictions []models.Prediction
	Err         error
}

// Accumulate folds one chunk outcome into agg and returns the next aggregate.
// Folding the same outcomes in the same order always yields the same result.
//
// A failed chunk counts all of its items as failed. A successful chunk counts
// every returned prediction as processed; results missing from the response
// are counted as failed so processed+failed always equals the items dispatched.
func Accumulate(agg models.JobResults, out ChunkOutcome, threshold float64) models.JobResults {
	agg.Predictions = slices.Clone(agg.Predictions)
	agg.Errors = slices.Clone(agg.Errors)

	if out.Err != nil {
		agg.Failed += out.Size
		agg.HasErrors = true
		agg.Errors = append(agg.Errors, models.ChunkError{
			Chunk:   out.Index,
			Size:    out.Size,
			Message: out.Err.Error(),
		})
		return agg
	}

	preds := out.Predictions
	if len(preds) > out.Size {
		preds = preds[:out.Size]
	}
	for _, p := range preds {
		agg.Predictions = append(agg.Predictions, p)
		agg.Processed++
		if p.HighRisk(threshold) {
			agg.HighRiskCount++
		}
	}

	if missing := out.Size - len(preds); missing > 0 {
		agg.Failed += missing
		agg.HasErrors = true
		agg.Errors = append(agg.Errors, models.ChunkError{
			Chunk:   out.Index,
			Size:    missing,
			Message: fmt.Sprintf("scorer returned %d of %d results", len(preds), out.Size),
		})
	}
	return agg
}

// Progress is the share of items processed or failed so far, in percent.
func Progress(processed, failed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(processed+failed) / float64(total) * 100
}
