package scorer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/core"
)

// Factory creates HTTP scorer clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for HTTP scorer clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateScorer creates an HTTP scorer from the scorer config section
func (f *Factory) CreateScorer() (core.Scorer, error) {
	scorerCfg, err := f.cfg.GetScorer()
	if err != nil {
		return nil, err
	}
	if scorerCfg.BaseURL == "" {
		return nil, fmt.Errorf("scorer.base_url is required")
	}
	return NewClient(scorerCfg.BaseURL, scorerCfg.Timeout, f.logger.With(zap.String("scorer", "http"))), nil
}
