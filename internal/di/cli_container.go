package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/config"
)

// CLIFlags contains the command line flags shared by every command. Empty
// values leave the configuration untouched.
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Scorer flags
	Provider      string
	ScorerURL     string
	FailureStatus string

	// Browser flags
	ControlURL string
	Launch     bool
	Headed     bool
}

// LoadConfig loads the configuration and applies flag overrides on top
func LoadConfig(flags *CLIFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if flags.Verbose {
		cfg.Set("logging.level", "debug")
	}
	if flags.JSONLog {
		cfg.Set("logging.format", "json")
	}
	if flags.Provider != "" {
		cfg.Set("scorer.provider", flags.Provider)
	}
	if flags.ScorerURL != "" {
		cfg.Set("scorer.base_url", flags.ScorerURL)
	}
	if flags.FailureStatus != "" {
		cfg.Set("analysis.failure_status", flags.FailureStatus)
	}
	if flags.ControlURL != "" {
		cfg.Set("browser.control_url", flags.ControlURL)
	}
	if flags.Launch {
		cfg.Set("browser.launch", true)
	}
	if flags.Headed {
		cfg.Set("browser.headless", false)
	}
	return cfg, nil
}

// BuildCLIContainer loads the configuration from flags and builds the container
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return nil, err
	}

	container, err := BuildContainer(cfg)
	if err != nil {
		return nil, err
	}

	if err := container.Invoke(func(cfg *config.Config, logger *zap.Logger) {
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
	}); err != nil {
		return nil, err
	}

	return container, nil
}
