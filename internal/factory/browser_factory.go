package factory

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/browser"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/utils"
)

// BrowserFactory connects to the browser described by the browser section
type BrowserFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBrowserFactory creates a new browser factory
func NewBrowserFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *BrowserFactory {
	return &BrowserFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateBrowser connects to, or launches, the configured browser
func (f *BrowserFactory) CreateBrowser(ctx context.Context) (*browser.Browser, error) {
	cfg, err := f.cfg.GetBrowser()
	if err != nil {
		return nil, err
	}
	return browser.Connect(ctx, cfg, f.textProcessor, f.logger.With(zap.String("component", "browser")))
}
