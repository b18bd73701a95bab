package clients

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/foldpredict/internal/domain"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	userAgent       = "foldpredict/1.0"
	maxErrorBody    = 512
)

type ESMFoldClient struct {
	endpoint   string
	maxBytes   int64
	httpClient *http.Client
}

func NewESMFoldClient(endpoint string, timeout time.Duration, maxBytes int64) *ESMFoldClient {
	return &ESMFoldClient{
		endpoint:   endpoint,
		maxBytes:   maxBytes,
		httpClient: newHTTPClient(timeout),
	}
}

// WithHTTPClient replaces the underlying client, mainly for tests.
func (c *ESMFoldClient) WithHTTPClient(client *http.Client) *ESMFoldClient {
	c.httpClient = client
	return c
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Fold posts the sequence as the raw request body and returns the PDB text.
func (c *ESMFoldClient) Fold(ctx context.Context, sequence string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(sequence))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", domain.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", contentTypeText)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, describeFailure(resp))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrUpstream, c.maxBytes)
	}
	return body, nil
}

func describeFailure(resp *http.Response) string {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(snippet))
	if text == "" {
		return fmt.Sprintf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Request.URL)
	}
	return fmt.Sprintf("%d %s for url: %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Request.URL, text)
}
