package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/juststeveking/vpnwatch/internal/config"
)

// Checker probes the target once
type Checker interface {
	Check(ctx context.Context) ProbeResult
}

// HTTPChecker performs a GET against the target with browser-like headers
type HTTPChecker struct {
	client         *http.Client
	url            string
	headers        map[string]string
	expectedStatus int
}

// NewHTTPChecker creates a new HTTP checker for target
func NewHTTPChecker(target config.Target, timeout time.Duration) *HTTPChecker {
	headers := make(map[string]string, len(target.Headers))
	for k, v := range target.Headers {
		headers[k] = v
	}

	expected := target.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}

	return &HTTPChecker{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse // Don't follow redirects
			},
		},
		url:            target.URL,
		headers:        headers,
		expectedStatus: expected,
	}
}

// Close closes the HTTP client's connection pool
func (h *HTTPChecker) Close() {
	if h.client != nil {
		h.client.CloseIdleConnections()
	}
}

// Check performs the HTTP probe. Only the status code is used; the body is discarded.
func (h *HTTPChecker) Check(ctx context.Context) ProbeResult {
	result := ProbeResult{
		URL:       h.url,
		CheckedAt: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to create request: %w", err)
		return result
	}

	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	result.ResponseTime = time.Since(start)

	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	result.Healthy = resp.StatusCode == h.expectedStatus

	return result
}
