package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

// Sentinel errors for scoring service failures.
var (
	ErrScorerUnavailable = errors.New("scoring service unavailable")
	ErrScorerRejected    = errors.New("scoring service rejected batch")
	ErrScorerTimeout     = errors.New("scoring service timeout")
)

// Client is the interface for the fraud scoring service.
type Client interface {
	Score(ctx context.Context, txns []models.Transaction) ([]models.Prediction, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client against the scoring service's JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new scoring client. timeout bounds each call.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Score posts one chunk of transactions and returns the per-transaction results.
// Any non-200 answer fails the whole chunk.
func (c *HTTPClient) Score(ctx context.Context, txns []models.Transaction) ([]models.Prediction, error) {
	body, err := json.Marshal(scoreRequest{Transactions: txns})
	if err != nil {
		return nil, fmt.Errorf("encoding score request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrScorerRejected, resp.StatusCode)
	}

	var scoreResp scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("decoding score response: %w", err)
	}
	if scoreResp.Results == nil {
		return []models.Prediction{}, nil
	}
	return scoreResp.Results, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: not ready (status %d)", ErrScorerUnavailable, resp.StatusCode)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrScorerTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrScorerTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
}

type scoreRequest struct {
	Transactions []models.Transaction `json:"transactions"`
}

type scoreResponse struct {
	Results []models.Prediction `json:"results"`
}

var _ Client = (*HTTPClient)(nil)
