package core

import (
	"math"
	"strings"
	"time"
)

// MaxTextSample is the maximum number of characters kept in PageSignals.TextSample
const MaxTextSample = 3000

// Provider names reported in EmailRecord.Provider
const (
	ProviderGmail   = "gmail"
	ProviderUnknown = "unknown"
)

// PageSignals is a lightweight structural summary of a visited page
type PageSignals struct {
	Title           string `json:"title"`
	TextSample      string `json:"textSample"`
	HasPasswordForm bool   `json:"hasPasswordForm"`
	LinkCount       int    `json:"linkCount"`
}

// EmailRecord is the currently open email as seen by a webmail provider
type EmailRecord struct {
	Provider string `json:"provider"`
	Sender   string `json:"sender"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// UnknownEmail is returned for pages no provider recognises
func UnknownEmail() EmailRecord {
	return EmailRecord{Provider: ProviderUnknown}
}

// HasContent reports whether at least one of sender, subject or body is non-empty
func (e EmailRecord) HasContent() bool {
	return e.Sender != "" || e.Subject != "" || e.Body != ""
}

// Trimmed returns a copy with surrounding whitespace removed from every text field
func (e EmailRecord) Trimmed() EmailRecord {
	return EmailRecord{
		Provider: e.Provider,
		Sender:   strings.TrimSpace(e.Sender),
		Subject:  strings.TrimSpace(e.Subject),
		Body:     strings.TrimSpace(e.Body),
	}
}

// Status is the verdict declared by the scoring service
type Status string

const (
	StatusSafe        Status = "safe"
	StatusLowRisk     Status = "low_risk"
	StatusHighRisk    Status = "high_risk"
	StatusUnavailable Status = "unavailable"
)

// Known reports whether the status is one the UI has a dedicated rendering for
func (s Status) Known() bool {
	switch s {
	case StatusSafe, StatusLowRisk, StatusHighRisk, StatusUnavailable:
		return true
	}
	return false
}

// AnalysisResult is the verdict for a URL or an email
type AnalysisResult struct {
	RiskScore float64  `json:"riskScore"`
	Status    Status   `json:"status"`
	Reasons   []string `json:"reasons"`
}

// SafeResult is the result used whenever the scorer could not be reached
func SafeResult() AnalysisResult {
	return AnalysisResult{RiskScore: 0, Status: StatusSafe, Reasons: []string{}}
}

// UnavailableResult is the fail-closed alternative to SafeResult
func UnavailableResult() AnalysisResult {
	return AnalysisResult{RiskScore: 0, Status: StatusUnavailable, Reasons: []string{}}
}

// Percent returns the risk score as a rounded percentage
func (r AnalysisResult) Percent() int {
	return int(math.Round(clampScore(r.RiskScore) * 100))
}

// Clone returns a deep copy of the result
func (r AnalysisResult) Clone() AnalysisResult {
	reasons := make([]string, len(r.Reasons))
	copy(reasons, r.Reasons)
	r.Reasons = reasons
	return r
}

// Mode selects which subject the UI is analysing
type Mode string

const (
	ModeURL   Mode = "url"
	ModeEmail Mode = "email"
)

// Valid reports whether m is one of the supported modes
func (m Mode) Valid() bool {
	return m == ModeURL || m == ModeEmail
}

// SandboxInput echoes what was submitted to the sandbox
type SandboxInput struct {
	URL     string `json:"url,omitempty"`
	Sender  string `json:"sender,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// SandboxResult pairs a sandbox submission with its verdict
type SandboxResult struct {
	Input  SandboxInput   `json:"input"`
	Result AnalysisResult `json:"result"`
}

// ReportKind is the kind of feedback a user can file
type ReportKind string

const (
	ReportPhishing      ReportKind = "phishing"
	ReportFalsePositive ReportKind = "false_positive"
	ReportFalseNegative ReportKind = "false_negative"
)

// ParseReportKind validates a report kind given as text
func ParseReportKind(s string) (ReportKind, bool) {
	switch k := ReportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReportPhishing, ReportFalsePositive, ReportFalseNegative:
		return k, true
	}
	return "", false
}

// ReportEvent is a transient, UI-only acknowledgment of a report
type ReportEvent struct {
	ID   string
	Kind ReportKind
	At   time.Time
}
