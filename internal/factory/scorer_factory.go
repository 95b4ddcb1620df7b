package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/bedrock"
	"github.com/mikey/phishlens/internal/adapters/cache"
	"github.com/mikey/phishlens/internal/adapters/gemini"
	"github.com/mikey/phishlens/internal/adapters/openai"
	"github.com/mikey/phishlens/internal/adapters/scorer"
	"github.com/mikey/phishlens/internal/analysis"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// ScorerFactory creates the scoring backend selected by scorer.provider
type ScorerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ScorerFactory {
	return &ScorerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateScorer creates a new scorer based on the configuration, behind the
// verdict cache when it is enabled
func (f *ScorerFactory) CreateScorer() (core.Scorer, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}

	backend, err := f.createBackend()
	if err != nil || !cacheCfg.Enabled {
		return backend, err
	}

	f.logger.Info("Verdict cache enabled", zap.Duration("ttl", cacheCfg.TTL))
	memory := cache.NewMemoryCache(f.logger.With(zap.String("component", "cache")), cacheCfg.CleanupInterval)
	return cache.NewScorer(backend, memory, cacheCfg.TTL, f.logger), nil
}

func (f *ScorerFactory) createBackend() (core.Scorer, error) {
	scorerCfg, err := f.cfg.GetScorer()
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Creating scorer", zap.String("provider", scorerCfg.Provider))

	switch scorerCfg.Provider {
	case "http", "":
		return scorer.NewFactory(f.cfg, f.logger).CreateScorer()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateScorer()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateScorer()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateScorer()
	default:
		return nil, fmt.Errorf("unsupported scorer provider: %s", scorerCfg.Provider)
	}
}

// CreateAnalysisClient wraps the configured scorer in the never-failing analysis client
func (f *ScorerFactory) CreateAnalysisClient() (*analysis.Client, error) {
	s, err := f.CreateScorer()
	if err != nil {
		return nil, err
	}
	analysisCfg, err := f.cfg.GetAnalysis()
	if err != nil {
		return nil, err
	}
	return analysis.NewClient(s, analysisCfg.FailureStatus, f.logger), nil
}
