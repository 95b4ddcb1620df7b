package config

import (
	"fmt"
	"time"

	"github.com/mikey/phishlens/internal/core"
)

// ScorerConfig selects and configures the scoring backend
type ScorerConfig struct {
	Provider string
	BaseURL  string
	Timeout  time.Duration
}

// AnalysisConfig configures the analysis client
type AnalysisConfig struct {
	// FailureStatus is the status reported when the scorer cannot be reached
	FailureStatus core.Status
}

// BrowserConfig locates the browser whose tabs are watched
type BrowserConfig struct {
	ControlURL string
	Launch     bool
	Headless   bool

	// InspectTimeout bounds the focus query sent to each tab
	InspectTimeout time.Duration
}

// ReportConfig configures report acknowledgements
type ReportConfig struct {
	DisplayInterval time.Duration
}

// CacheConfig configures the verdict cache in front of the scorer
type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupInterval time.Duration
}

// MockScorerConfig configures the local scoring-service stand-in
type MockScorerConfig struct {
	ListenAddress  string
	RulesFile      string
	TrustedDomains []string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetScorer returns the scorer configuration
func (c *Config) GetScorer() (ScorerConfig, error) {
	timeout, err := c.GetDuration("scorer.timeout")
	if err != nil {
		return ScorerConfig{}, err
	}
	return ScorerConfig{
		Provider: c.GetString("scorer.provider"),
		BaseURL:  c.GetString("scorer.base_url"),
		Timeout:  timeout,
	}, nil
}

// GetAnalysis returns the analysis client configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	status := core.Status(c.GetString("analysis.failure_status"))
	switch status {
	case core.StatusSafe, core.StatusUnavailable:
	default:
		return AnalysisConfig{}, fmt.Errorf("analysis.failure_status must be %q or %q, got %q",
			core.StatusSafe, core.StatusUnavailable, status)
	}
	return AnalysisConfig{FailureStatus: status}, nil
}

// GetCache returns the verdict cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	cfg := CacheConfig{Enabled: c.GetBool("cache.enabled")}
	if !cfg.Enabled {
		return cfg, nil
	}

	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	if ttl <= 0 {
		return CacheConfig{}, fmt.Errorf("cache.ttl must be positive, got %s", ttl)
	}
	cleanup, err := c.GetDuration("cache.cleanup_interval")
	if err != nil {
		return CacheConfig{}, err
	}
	cfg.TTL = ttl
	cfg.CleanupInterval = cleanup
	return cfg, nil
}

// GetBrowser returns the browser configuration
func (c *Config) GetBrowser() (BrowserConfig, error) {
	timeout, err := c.GetDuration("browser.inspect_timeout")
	if err != nil {
		return BrowserConfig{}, err
	}
	if timeout <= 0 {
		return BrowserConfig{}, fmt.Errorf("browser.inspect_timeout must be positive, got %s", timeout)
	}
	return BrowserConfig{
		ControlURL:     c.GetString("browser.control_url"),
		Launch:         c.GetBool("browser.launch"),
		Headless:       c.GetBool("browser.headless"),
		InspectTimeout: timeout,
	}, nil
}

// GetReport returns the reporting configuration
func (c *Config) GetReport() (ReportConfig, error) {
	interval, err := c.GetDuration("report.display_interval")
	if err != nil {
		return ReportConfig{}, err
	}
	if interval <= 0 {
		return ReportConfig{}, fmt.Errorf("report.display_interval must be positive, got %s", interval)
	}
	return ReportConfig{DisplayInterval: interval}, nil
}

// GetMockScorer returns the mock scorer configuration
func (c *Config) GetMockScorer() MockScorerConfig {
	return MockScorerConfig{
		ListenAddress:  c.GetString("mock_scorer.listen_address"),
		RulesFile:      c.GetString("mock_scorer.rules_file"),
		TrustedDomains: c.GetStringSlice("mock_scorer.trusted_domains"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}
