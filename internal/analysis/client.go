// Package analysis is the never-failing front of the scoring backends. Every
// call yields a usable verdict; backend failures become the fallback verdict.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
)

// ErrEmptyInput is returned when there is nothing to analyze
var ErrEmptyInput = errors.New("analysis: empty input")

// Client implements core.Analyzer over a core.Scorer
type Client struct {
	scorer   core.Scorer
	fallback core.AnalysisResult
	logger   *zap.Logger
}

// NewClient creates a client. failureStatus selects the verdict reported when
// the backend fails: core.StatusSafe (fail-open) or core.StatusUnavailable.
func NewClient(scorer core.Scorer, failureStatus core.Status, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := core.SafeResult()
	if failureStatus == core.StatusUnavailable {
		fallback = core.UnavailableResult()
	}
	return &Client{
		scorer:   scorer,
		fallback: fallback,
		logger:   logger,
	}
}

// Close releases the scorer when it holds resources
func (c *Client) Close() error {
	if closer, ok := c.scorer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Fallback returns the verdict used when the backend fails
func (c *Client) Fallback() core.AnalysisResult {
	return c.fallback.Clone()
}

// AnalyzeURL implements core.Analyzer
func (c *Client) AnalyzeURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	if strings.TrimSpace(url) == "" {
		return c.fail("url", ErrEmptyInput)
	}

	result, err := c.call(ctx, func(ctx context.Context) (core.AnalysisResult, error) {
		return c.scorer.ScoreURL(ctx, url)
	})
	if err != nil {
		return c.fail("url", err, zap.String("url", url))
	}

	c.logger.Debug("URL analyzed",
		zap.String("url", url),
		zap.String("status", string(result.Status)),
		zap.Int("risk", result.Percent()))
	return result, nil
}

// AnalyzeEmail implements core.Analyzer
func (c *Client) AnalyzeEmail(ctx context.Context, sender, subject, body string) (core.AnalysisResult, error) {
	email := core.EmailRecord{Sender: sender, Subject: subject, Body: body}
	if !email.HasContent() {
		return c.fail("email", ErrEmptyInput)
	}

	result, err := c.call(ctx, func(ctx context.Context) (core.AnalysisResult, error) {
		return c.scorer.ScoreEmail(ctx, email)
	})
	if err != nil {
		return c.fail("email", err, zap.String("sender", sender), zap.String("subject", subject))
	}

	c.logger.Debug("Email analyzed",
		zap.String("sender", sender),
		zap.String("status", string(result.Status)),
		zap.Int("risk", result.Percent()))
	return result, nil
}

// call runs fn and converts a panicking backend into an error
func (c *Client) call(ctx context.Context, fn func(context.Context) (core.AnalysisResult, error)) (result core.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panicked: %v", r)
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		return core.AnalysisResult{}, err
	}
	if result.Status == "" {
		result.Status = core.StatusSafe
	}
	if result.Reasons == nil {
		result.Reasons = []string{}
	}
	if !result.Status.Known() {
		c.logger.Debug("Scorer returned an unrecognised status", zap.String("status", string(result.Status)))
	}
	return result, nil
}

func (c *Client) fail(kind string, err error, fields ...zap.Field) (core.AnalysisResult, error) {
	fields = append(fields,
		zap.String("kind", kind),
		zap.String("fallback", string(c.fallback.Status)),
		zap.Error(err))
	c.logger.Warn("Analysis failed, using fallback verdict", fields...)
	return c.fallback.Clone(), err
}
