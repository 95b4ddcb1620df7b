package mockscorer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mikey/phishlens/internal/core"
)

// Rule pins the verdict for inputs containing Match
type Rule struct {
	Match     string   `yaml:"match"`
	RiskScore float64  `yaml:"riskScore"`
	Status    string   `yaml:"status"`
	Reasons   []string `yaml:"reasons"`
}

// Rules are checked in order; the first match wins
type Rules struct {
	URL   []Rule `yaml:"url"`
	Email []Rule `yaml:"email"`
}

// DefaultRules is used when no rules file is configured
func DefaultRules() Rules {
	return Rules{
		URL: []Rule{{
			Match:     "paypal-secure",
			RiskScore: 0.92,
			Status:    string(core.StatusHighRisk),
			Reasons:   []string{"suspicious domain"},
		}},
	}
}

// LoadRules reads a YAML rules file
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules and validates every entry
func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	for section, list := range map[string][]Rule{"url": rules.URL, "email": rules.Email} {
		for i, r := range list {
			if strings.TrimSpace(r.Match) == "" {
				return Rules{}, fmt.Errorf("%s rule %d: match is required", section, i)
			}
			if r.RiskScore < 0 || r.RiskScore > 1 {
				return Rules{}, fmt.Errorf("%s rule %d: riskScore %v out of range [0, 1]", section, i, r.RiskScore)
			}
			if !core.Status(r.Status).Known() {
				return Rules{}, fmt.Errorf("%s rule %d: unknown status %q", section, i, r.Status)
			}
		}
	}
	return rules, nil
}

// find returns the first rule whose match occurs in text, case-insensitively
func find(rules []Rule, text string) (Rule, bool) {
	text = strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(text, strings.ToLower(r.Match)) {
			return r, true
		}
	}
	return Rule{}, false
}

func (r Rule) result() core.AnalysisResult {
	reasons := make([]string, len(r.Reasons))
	copy(reasons, r.Reasons)
	return core.AnalysisResult{
		RiskScore: r.RiskScore,
		Status:    core.Status(r.Status),
		Reasons:   reasons,
	}
}
