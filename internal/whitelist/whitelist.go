package whitelist

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a URL host or a sender address belongs to a
// trusted domain. A domain also covers its subdomains.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 {
		logger.Info("Initialized whitelist checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrustedURL reports whether the host of rawURL is trusted. Scheme-less
// input such as "example.com/login" is accepted.
func (c *Checker) IsTrustedURL(rawURL string) bool {
	host := HostOf(rawURL)
	if host == "" {
		return false
	}
	return c.match(host, zap.String("url", rawURL))
}

// IsTrustedSender reports whether the domain of a sender address is trusted.
// Display-name forms like "PayPal <service@paypal.com>" are accepted.
func (c *Checker) IsTrustedSender(from string) bool {
	domain := SenderDomain(from)
	if domain == "" {
		return false
	}
	return c.match(domain, zap.String("email", from))
}

func (c *Checker) match(domain string, field zap.Field) bool {
	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			c.logger.Debug("Domain is whitelisted", zap.String("domain", domain), field)
			return true
		}
	}
	return false
}

// HostOf extracts the lowercase host of a URL, without port
func HostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.Trim(strings.ToLower(u.Hostname()), ".")
}

// SenderDomain extracts the lowercase domain of a sender address
func SenderDomain(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "<"); i >= 0 {
		from = strings.TrimSuffix(from[i+1:], ">")
	}
	at := strings.LastIndex(from, "@")
	if at < 0 || at == len(from)-1 {
		return ""
	}
	return strings.Trim(strings.ToLower(strings.TrimSpace(from[at+1:])), ".>")
}
