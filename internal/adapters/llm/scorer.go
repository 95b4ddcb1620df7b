// Package llm turns a text-completion model into a phishing scorer. The
// provider packages (openai, gemini, bedrock) only supply a Completer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// SystemPrompt is sent as the system role where the provider supports one
const SystemPrompt = "You are a phishing detection system. Respond only with JSON."

const responseFormat = `Respond with a JSON object containing:
- riskScore: number between 0 and 1 (higher means more likely to be phishing)
- status: one of "safe", "low_risk", "high_risk"
- reasons: array of short strings explaining the verdict (empty when safe)

Respond only with the JSON object and nothing else.`

const urlPromptFormat = `You are a phishing detection system. Analyze the following URL the user is about to visit and determine if it is a phishing attempt.
%s

URL: %s`

const emailPromptFormat = `You are a phishing detection system. Analyze the following email and determine if it is a phishing attempt.
%s

Email:
From: %s
Subject: %s
Body:
%s`

// ErrNoJSON is returned when a completion carries no JSON object
var ErrNoJSON = errors.New("no JSON object in model response")

// Completer sends a prompt to a model and returns its text reply
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	// Model names the model, for logs
	Model() string
}

// Scorer implements core.Scorer on top of a Completer
type Scorer struct {
	completer     Completer
	maxBodySize   int
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewScorer creates a scorer. Email bodies longer than maxBodySize bytes are
// truncated before they reach the model; zero disables truncation.
func NewScorer(completer Completer, maxBodySize int, textProcessor *utils.TextProcessor, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}
	return &Scorer{
		completer:     completer,
		maxBodySize:   maxBodySize,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Close releases the completer when it holds a connection
func (s *Scorer) Close() error {
	if closer, ok := s.completer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// URLPrompt renders the prompt for a URL verdict
func URLPrompt(url string) string {
	return fmt.Sprintf(urlPromptFormat, responseFormat, url)
}

// EmailPrompt renders the prompt for an email verdict
func (s *Scorer) EmailPrompt(email core.EmailRecord) string {
	body := s.textProcessor.ProcessText(email.Body, s.maxBodySize)
	return fmt.Sprintf(emailPromptFormat, responseFormat, email.Sender, email.Subject, body)
}

// ScoreURL implements core.Scorer
func (s *Scorer) ScoreURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	return s.score(ctx, URLPrompt(url))
}

// ScoreEmail implements core.Scorer
func (s *Scorer) ScoreEmail(ctx context.Context, email core.EmailRecord) (core.AnalysisResult, error) {
	return s.score(ctx, s.EmailPrompt(email))
}

func (s *Scorer) score(ctx context.Context, prompt string) (core.AnalysisResult, error) {
	start := time.Now()
	text, err := s.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("%s completion failed: %w", s.completer.Model(), err)
	}

	result, err := ParseResponse(text)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("%s: %w", s.completer.Model(), err)
	}

	s.logger.Debug("Model verdict",
		zap.String("model", s.completer.Model()),
		zap.String("status", string(result.Status)),
		zap.Float64("risk_score", result.RiskScore),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ParseResponse decodes a model reply. Models often wrap the object in prose
// or code fences, so the outermost braces are tried when the whole reply is
// not an object.
func ParseResponse(text string) (core.AnalysisResult, error) {
	result, err := core.DecodeAnalysisResult([]byte(text))
	if err == nil {
		return result, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return core.AnalysisResult{}, ErrNoJSON
	}
	return core.DecodeAnalysisResult([]byte(text[start : end+1]))
}
