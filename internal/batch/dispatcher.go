package batch

import (
	"context"
	"slices"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// DefaultChunkSize bounds how many transactions go to the scorer in one call.
const DefaultChunkSize = 100

// Scorer is the external scoring capability: given transactions it returns
// one prediction per transaction, or an error when the whole call failed.
type Scorer interface {
	Score(ctx context.Context, txns []models.Transaction) ([]models.Prediction, error)
}

// Dispatcher splits transactions into chunks and sends each to the Scorer.
type Dispatcher struct {
	scorer    Scorer
	chunkSize int
}

// NewDispatcher creates a Dispatcher. A non-positive chunkSize uses DefaultChunkSize.
func NewDispatcher(scorer Scorer, chunkSize int) *Dispatcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Dispatcher{scorer: scorer, chunkSize: chunkSize}
}

// Partition splits txns into consecutive chunks of at most size items, preserving order.
func Partition(txns []models.Transaction, size int) [][]models.Transaction {
	if len(txns) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	return slices.Collect(slices.Chunk(txns, size))
}

// Chunks partitions txns using the dispatcher's chunk size.
func (d *Dispatcher) Chunks(txns []models.Transaction) [][]models.Transaction {
	return Partition(txns, d.chunkSize)
}

// Dispatch scores one chunk. Any scorer error becomes a failed outcome for the
// whole chunk; it never aborts the job.
func (d *Dispatcher) Dispatch(ctx context.Context, index int, chunk []models.Transaction) ChunkOutcome {
	out := ChunkOutcome{Index: index, Size: len(chunk)}

	preds, err := d.scorer.Score(ctx, chunk)
	if err != nil {
		out.Err = err
		return out
	}
	if len(preds) > len(chunk) {
		preds = preds[:len(chunk)]
	}
	out.Predictions = preds
	return out
}
