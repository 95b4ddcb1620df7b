package openai

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/llm"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// Factory creates OpenAI-backed scorers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI-backed scorers
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateScorer creates a scorer from the openai config section
func (f *Factory) CreateScorer() (core.Scorer, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" && openaiCfg.BaseURL == "" {
		return nil, errors.New("openai.api_key is required")
	}

	logger := f.logger.With(zap.String("scorer", "openai"))
	completer := NewCompleter(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		logger,
	)
	return llm.NewScorer(completer, openaiCfg.MaxBodySize, f.textProcessor, logger), nil
}
