package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/llm"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// Factory creates Bedrock-backed scorers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateScorer creates a scorer from the bedrock config section. AWS
// credentials come from the default provider chain.
func (f *Factory) CreateScorer() (core.Scorer, error) {
	bedrockCfg := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger := f.logger.With(zap.String("scorer", "bedrock"))
	completer := NewCompleter(
		bedrockruntime.NewFromConfig(awsCfg),
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		logger,
	)
	return llm.NewScorer(completer, bedrockCfg.MaxBodySize, f.textProcessor, logger), nil
}
