package mockscorer

import (
	"crypto/md5"
	"fmt"
	"math"
	"strings"

	"github.com/mikey/phishlens/internal/core"
)

var (
	phishingKeywords = []string{
		"login", "verify", "update", "password", "suspended", "urgent",
		"click", "bank", "paypal", "security", "account",
	}
	testKeywords     = []string{"test", "demo", "trial", "example", "sample"}
	urgencyWords     = []string{"urgent", "immediately", "asap", "action required", "suspended", "verify now"}
	socialPhrases    = []string{"confirm your account", "reset your password", "payment failed", "unusual activity"}
	callToClickWords = []string{"click", "link", "open", "download", "attachment"}
)

// ScoreURLHeuristics scores a URL from keyword and structure hints. The
// result is deterministic for a given input.
func ScoreURLHeuristics(rawURL string) core.AnalysisResult {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	if u == "" {
		return core.AnalysisResult{Status: core.StatusSafe, Reasons: []string{"Empty URL input"}}
	}

	phishing := hits(u, phishingKeywords)
	suspicious := hits(u, testKeywords)

	var reasons []string
	for _, w := range first(phishing, 5) {
		reasons = append(reasons, "Suspicious keyword in URL: "+w)
	}
	for _, w := range first(suspicious, 3) {
		reasons = append(reasons, "Possible test/demo keyword in URL: "+w)
	}

	score := jitter(u)*0.3 + float64(len(phishing))*0.12 + float64(len(suspicious))*0.06

	if strings.HasPrefix(u, "http://") {
		reasons = append(reasons, "URL is using HTTP (not HTTPS)")
		score += 0.10
	}
	if strings.Count(u, ".") >= 4 {
		reasons = append(reasons, "Many subdomains (can be suspicious)")
		score += 0.08
	}
	if len(u) > 80 {
		reasons = append(reasons, "URL is unusually long")
		score += 0.06
	}
	if strings.Contains(u, "@") {
		reasons = append(reasons, "URL contains '@' (deception pattern)")
	}
	stripped := strings.ReplaceAll(strings.ReplaceAll(u, "https://", ""), "http://", "")
	if strings.Contains(stripped, "//") {
		reasons = append(reasons, "URL contains multiple '//' (suspicious)")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "No suspicious URL indicators detected")
	}
	return verdict(score, reasons)
}

// ScoreEmailHeuristics scores an email from urgency, social-engineering and
// brand impersonation hints
func ScoreEmailHeuristics(email core.EmailRecord) core.AnalysisResult {
	sender := strings.ToLower(strings.TrimSpace(email.Sender))
	subject := strings.ToLower(strings.TrimSpace(email.Subject))
	body := strings.ToLower(strings.TrimSpace(email.Body))

	combined := strings.TrimSpace(sender + " " + subject + " " + body)
	if combined == "" {
		return core.AnalysisResult{Status: core.StatusSafe, Reasons: []string{"Empty email content"}}
	}

	urgency := hits(combined, urgencyWords)
	social := hits(combined, socialPhrases)
	links := hits(combined, callToClickWords)
	phishing := hits(combined, phishingKeywords)

	var reasons []string
	for _, w := range first(urgency, 4) {
		reasons = append(reasons, "Urgency language detected: "+w)
	}
	for _, w := range first(social, 3) {
		reasons = append(reasons, "Social-engineering phrase detected: "+w)
	}
	for _, w := range first(links, 3) {
		reasons = append(reasons, "Call-to-click/download detected: "+w)
	}
	for _, w := range first(phishing, 4) {
		reasons = append(reasons, "Suspicious keyword in email: "+w)
	}

	if at := strings.LastIndex(sender, "@"); at >= 0 {
		domain := sender[at+1:]
		if strings.Contains(subject, "paypal") && !strings.Contains(domain, "paypal") {
			reasons = append(reasons, "Brand mention doesn't match sender domain (possible impersonation)")
		}
	}

	score := jitter(combined) * 0.2
	score += float64(len(urgency)) * 0.15
	score += float64(len(social)) * 0.12
	score += float64(len(links)) * 0.08
	score += float64(len(phishing)) * 0.06

	if len(reasons) == 0 {
		reasons = append(reasons, "No suspicious email indicators detected")
	}
	return verdict(score, reasons)
}

// verdict caps and rounds the score and derives the status from it
func verdict(score float64, reasons []string) core.AnalysisResult {
	score = math.Round(math.Min(score, 0.99)*100) / 100

	status := core.StatusSafe
	switch {
	case score > 0.7:
		status = core.StatusHighRisk
	case score > 0.3:
		status = core.StatusLowRisk
	}
	return core.AnalysisResult{RiskScore: score, Status: status, Reasons: reasons}
}

// jitter maps text to a stable value in [0, 1]
func jitter(text string) float64 {
	sum := md5.Sum([]byte(text))
	return float64(sum[0]) / 255
}

func hits(text string, words []string) []string {
	var found []string
	for _, w := range words {
		if strings.Contains(text, w) {
			found = append(found, w)
		}
	}
	return found
}

func first(words []string, n int) []string {
	if len(words) > n {
		return words[:n]
	}
	return words
}

// trustedResult is returned for whitelisted domains
func trustedResult(domain string) core.AnalysisResult {
	return core.AnalysisResult{
		RiskScore: 0,
		Status:    core.StatusSafe,
		Reasons:   []string{fmt.Sprintf("Trusted domain: %s", domain)},
	}
}
