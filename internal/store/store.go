package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrMissingRisk = errors.New("prediction has no risk score")

// ServiceName is recorded as service_used on every stored prediction.
const ServiceName = "batch_service"

// PredictionStore is where scored predictions end up. Writes are best-effort
// from the engine's point of view; errors are reported, never retried.
type PredictionStore interface {
	SavePrediction(ctx context.Context, jobID string, p models.Prediction) error
	Ping(ctx context.Context) error
}

// PredictionRecord is one stored prediction row.
type PredictionRecord struct {
	ID            uuid.UUID `json:"id"`
	JobID         string    `json:"job_id"`
	TransactionID string    `json:"transaction_id"`
	RiskScore     float64   `json:"risk_score"`
	Prediction    *int      `json:"prediction"`
	Confidence    *float64  `json:"confidence,omitempty"`
	ModelVersion  string    `json:"model_version,omitempty"`
	ServiceUsed   string    `json:"service_used"`
	CreatedAt     time.Time `json:"created_at"`
}

type PredictionFilter struct {
	JobID   string
	MinRisk *float64
	Limit   int
}

func newRecord(jobID string, p models.Prediction) (*PredictionRecord, error) {
	if p.Risk == nil {
		return nil, ErrMissingRisk
	}
	return &PredictionRecord{
		ID:            uuid.New(),
		JobID:         jobID,
		TransactionID: p.TransactionID,
		RiskScore:     *p.Risk,
		Prediction:    p.Label,
		Confidence:    p.Confidence,
		ModelVersion:  p.ModelVersion,
		ServiceUsed:   ServiceName,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
