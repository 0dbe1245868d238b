// Package notify posts system alerts to the notification service.
package notify

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

var (
	ErrNotifierUnreachable = errors.New("notification service unreachable")
	ErrNotifierRejected    = errors.New("notification service rejected alert")
	ErrNotifierTimeout     = errors.New("notification service timeout")
)

// HTTPClient sends alerts to {baseURL}/system-alert.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SystemAlert posts one alert. Any non-2xx answer is an error.
func (c *HTTPClient) SystemAlert(ctx context.Context, alert models.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/system-alert", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrNotifierTimeout, err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrNotifierTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNotifierUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrNotifierRejected, resp.StatusCode)
	}
	return nil
}
