package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/foldpredict/internal/domain"
)

const (
	predictionsPath = "/api/predictions"
	headerAPIKey    = "X-API-Key"
)

// HistoryClient reads the prediction history of a running foldpredict
// server.
type HistoryClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHistoryClient(baseURL, apiKey string, timeout time.Duration) *HistoryClient {
	return &HistoryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
	}
}

// List fetches up to limit predictions, newest first. The server caps the
// limit at its own maximum.
func (c *HistoryClient) List(ctx context.Context, limit int) ([]domain.Prediction, error) {
	endpoint := c.baseURL + predictionsPath
	if limit > 0 {
		endpoint += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("requesting history: %s", describeFailure(resp))
	}

	var predictions []domain.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&predictions); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return predictions, nil
}
