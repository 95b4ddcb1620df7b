package gemini

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/llm"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// Factory creates Gemini-backed scorers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini-backed scorers
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateScorer creates a scorer from the gemini config section
func (f *Factory) CreateScorer() (core.Scorer, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, errors.New("gemini.api_key is required")
	}

	logger := f.logger.With(zap.String("scorer", "gemini"))
	completer, err := NewCompleter(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		logger,
	)
	if err != nil {
		return nil, err
	}
	return llm.NewScorer(completer, geminiCfg.MaxBodySize, f.textProcessor, logger), nil
}
