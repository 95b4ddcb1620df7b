package controller

import (
	"github.com/mikey/phishlens/internal/core"
)

// Live is a live-detection slot
type Live struct {
	Result  core.AnalysisResult
	Loading bool
}

// Sandbox is a sandbox result slot
type Sandbox struct {
	// Result is the last successful submission, nil before the first one
	Result  *core.SandboxResult
	Loading bool
	// LastError describes the most recent failed submission. It is cleared
	// by the next submission.
	LastError string
}

// Displayed returns the result to show. Nothing is shown while a
// submission is in flight.
func (s Sandbox) Displayed() *core.SandboxResult {
	if s.Loading {
		return nil
	}
	return s.Result
}

// EmailInput holds the email sandbox fields
type EmailInput struct {
	Sender  string
	Subject string
	Body    string
}

// State is everything the UI renders
type State struct {
	Mode core.Mode

	// URL is the active tab URL as last reported by the relay
	URL string
	// Signals is the last page summary, nil until one arrived
	Signals *core.PageSignals
	// Email holds the live email fields read from the open message
	Email core.EmailRecord

	URLAnalysis   Live
	EmailAnalysis Live

	URLSandboxInput   string
	EmailSandboxInput EmailInput
	URLSandbox        Sandbox
	EmailSandbox      Sandbox

	// Report is the pending report acknowledgment, nil when none
	Report *core.ReportEvent
}

// Live returns the live-detection slot of the current mode
func (s State) Live() Live {
	if s.Mode == core.ModeEmail {
		return s.EmailAnalysis
	}
	return s.URLAnalysis
}

// Sandbox returns the sandbox slot of the current mode
func (s State) Sandbox() Sandbox {
	if s.Mode == core.ModeEmail {
		return s.EmailSandbox
	}
	return s.URLSandbox
}

// Clone returns a deep copy
func (s State) Clone() State {
	if s.Signals != nil {
		signals := *s.Signals
		s.Signals = &signals
	}
	if s.Report != nil {
		report := *s.Report
		s.Report = &report
	}
	s.URLAnalysis.Result = s.URLAnalysis.Result.Clone()
	s.EmailAnalysis.Result = s.EmailAnalysis.Result.Clone()
	s.URLSandbox = s.URLSandbox.clone()
	s.EmailSandbox = s.EmailSandbox.clone()
	return s
}

func (s Sandbox) clone() Sandbox {
	if s.Result != nil {
		result := *s.Result
		result.Result = result.Result.Clone()
		s.Result = &result
	}
	return s
}

func initialState() State {
	return State{
		Mode:          core.ModeURL,
		URLAnalysis:   Live{Result: core.SafeResult()},
		EmailAnalysis: Live{Result: core.SafeResult()},
	}
}
