package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/browser"
	"github.com/mikey/phishlens/internal/adapters/mockscorer"
	"github.com/mikey/phishlens/internal/analysis"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/controller"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/factory"
	"github.com/mikey/phishlens/internal/logging"
	"github.com/mikey/phishlens/internal/messaging"
	"github.com/mikey/phishlens/internal/relay"
	"github.com/mikey/phishlens/internal/utils"
	"github.com/mikey/phishlens/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container.
// Constructors run lazily, so commands that never ask for the browser do not
// connect to one.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewBrowserFactory); err != nil {
		return nil, err
	}

	// Register analysis client
	if err := container.Provide(func(f *factory.ScorerFactory) (*analysis.Client, error) {
		return f.CreateAnalysisClient()
	}); err != nil {
		return nil, err
	}

	// Register browser
	if err := container.Provide(func(f *factory.BrowserFactory) (*browser.Browser, error) {
		return f.CreateBrowser(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register background relay and the runtime channel it listens on
	if err := container.Provide(func(b *browser.Browser, logger *zap.Logger) *relay.Background {
		return relay.NewBackground(b, b, logger.With(zap.String("component", "relay")))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(bg *relay.Background, logger *zap.Logger) (*messaging.Router, error) {
		runtime := messaging.NewRouter("runtime", logger)
		if err := bg.Register(runtime); err != nil {
			return nil, err
		}
		return runtime, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(runtime *messaging.Router, bg *relay.Background) core.Extraction {
		return relay.NewClient(runtime, bg.ActiveTabEndpoint())
	}); err != nil {
		return nil, err
	}

	// Register controller
	if err := container.Provide(func(
		extraction core.Extraction,
		analyzer *analysis.Client,
		cfg *config.Config,
		logger *zap.Logger,
	) (*controller.Controller, error) {
		reportCfg, err := cfg.GetReport()
		if err != nil {
			return nil, err
		}
		return controller.New(extraction, analyzer, controller.Options{
			ReportInterval: reportCfg.DisplayInterval,
			Logger:         logger.With(zap.String("component", "controller")),
		}), nil
	}); err != nil {
		return nil, err
	}

	// Register mock scorer
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*mockscorer.Server, error) {
		mockCfg := cfg.GetMockScorer()
		rules := mockscorer.DefaultRules()
		if mockCfg.RulesFile != "" {
			loaded, err := mockscorer.LoadRules(mockCfg.RulesFile)
			if err != nil {
				return nil, err
			}
			rules = loaded
			logger.Info("Loaded mock scorer rules",
				zap.String("file", mockCfg.RulesFile),
				zap.Int("url_rules", len(rules.URL)),
				zap.Int("email_rules", len(rules.Email)))
		}
		logger = logger.With(zap.String("component", "mock_scorer"))
		return mockscorer.NewServer(rules, whitelist.NewChecker(mockCfg.TrustedDomains, logger), logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
