package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

var ErrPersistenceRejected = errors.New("persistence service rejected prediction")

// HTTPStore forwards predictions to the persistence service.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictionPayload struct {
	TransactionID string   `json:"transaction_id"`
	RiskScore     *float64 `json:"risk_score"`
	Prediction    *int     `json:"prediction"`
	Confidence    *float64 `json:"confidence"`
	ModelVersion  string   `json:"model_version"`
	ServiceUsed   string   `json:"service_used"`
}

type saveRequest struct {
	Prediction predictionPayload `json:"prediction"`
}

func (s *HTTPStore) SavePrediction(ctx context.Context, jobID string, p models.Prediction) error {
	body, err := json.Marshal(saveRequest{Prediction: predictionPayload{
		TransactionID: p.TransactionID,
		RiskScore:     p.Risk,
		Prediction:    p.Label,
		Confidence:    p.Confidence,
		ModelVersion:  p.ModelVersion,
		ServiceUsed:   ServiceName,
	}})
	if err != nil {
		return fmt.Errorf("encoding prediction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Batch-Job-ID", jobID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("save prediction %s: %w", p.TransactionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrPersistenceRejected, resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping persistence service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("persistence service not ready (status %d)", resp.StatusCode)
	}
	return nil
}

var _ PredictionStore = (*HTTPStore)(nil)
