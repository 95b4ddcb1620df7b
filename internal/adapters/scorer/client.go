// Package scorer is the HTTP transport to the external scoring service
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
)

const (
	analyzeURLPath   = "/analyze-url"
	analyzeEmailPath = "/analyze-email"

	maxResponseSize = 1 << 20
)

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scorer %s returned HTTP %d", e.Path, e.Code)
}

// URLRequest is the body of POST /analyze-url
type URLRequest struct {
	URL string `json:"url"`
}

// EmailRequest is the body of POST /analyze-email
type EmailRequest struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client is a core.Scorer speaking to the scoring service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ScoreURL implements core.Scorer
func (c *Client) ScoreURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	return c.post(ctx, analyzeURLPath, URLRequest{URL: url})
}

// ScoreEmail implements core.Scorer
func (c *Client) ScoreEmail(ctx context.Context, email core.EmailRecord) (core.AnalysisResult, error) {
	return c.post(ctx, analyzeEmailPath, EmailRequest{
		Sender:  email.Sender,
		Subject: email.Subject,
		Body:    email.Body,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) (core.AnalysisResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to call scorer %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to read scorer response: %w", err)
	}

	c.logger.Debug("Scorer responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.AnalysisResult{}, &StatusError{Path: path, Code: resp.StatusCode}
	}

	result, err := core.DecodeAnalysisResult(data)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("scorer %s: %w", path, err)
	}
	return result, nil
}
