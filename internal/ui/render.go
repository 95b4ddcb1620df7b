package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mikey/phishlens/internal/controller"
	"github.com/mikey/phishlens/internal/core"
)

// maxReasons is how many reasons are listed under a verdict
const maxReasons = 6

// Renderer prints controller state to a terminal
type Renderer struct {
	out io.Writer

	colorRed    *color.Color
	colorGreen  *color.Color
	colorYellow *color.Color
	colorBlue   *color.Color
	colorCyan   *color.Color
	colorDim    *color.Color
}

// NewRenderer creates a renderer. Colors are dropped when noColor is set.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	r := &Renderer{
		out:         out,
		colorRed:    color.New(color.FgRed, color.Bold),
		colorGreen:  color.New(color.FgGreen, color.Bold),
		colorYellow: color.New(color.FgYellow, color.Bold),
		colorBlue:   color.New(color.FgBlue, color.Bold),
		colorCyan:   color.New(color.FgCyan),
		colorDim:    color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{r.colorRed, r.colorGreen, r.colorYellow, r.colorBlue, r.colorCyan, r.colorDim} {
			c.DisableColor()
		}
	}
	return r
}

// StatusLabel is the headline shown for a status
func StatusLabel(status core.Status) string {
	switch status {
	case core.StatusHighRisk:
		return "Phishing Detected"
	case core.StatusLowRisk:
		return "Suspicious"
	case core.StatusSafe:
		return "Safe"
	case core.StatusUnavailable:
		return "Unavailable"
	default:
		return "Analyzing"
	}
}

func (r *Renderer) statusColor(status core.Status) *color.Color {
	switch status {
	case core.StatusHighRisk:
		return r.colorRed
	case core.StatusLowRisk:
		return r.colorYellow
	case core.StatusSafe:
		return r.colorGreen
	default:
		return r.colorBlue
	}
}

// Verdict formats a result as a single line
func (r *Renderer) Verdict(result core.AnalysisResult, loading bool) string {
	if loading {
		return r.colorBlue.Sprint("Analyzing...")
	}
	label := r.statusColor(result.Status).Sprint(StatusLabel(result.Status))
	return fmt.Sprintf("%s  risk %d%%", label, result.Percent())
}

func (r *Renderer) reasons(indent string, reasons []string) {
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	for _, reason := range reasons {
		fmt.Fprintf(r.out, "%s- %s\n", indent, reason)
	}
}

// Render prints the full view for the current mode
func (r *Renderer) Render(s controller.State) {
	live := s.Live()

	fmt.Fprintf(r.out, "%s %s\n", r.colorCyan.Sprint("Mode:"), strings.ToUpper(string(s.Mode)))
	switch s.Mode {
	case core.ModeEmail:
		if !s.Email.HasContent() {
			fmt.Fprintln(r.out, r.colorDim.Sprint("No open email detected"))
		} else {
			fmt.Fprintf(r.out, "From:    %s\nSubject: %s\n", s.Email.Sender, s.Email.Subject)
		}
	default:
		if s.URL == "" {
			fmt.Fprintln(r.out, r.colorDim.Sprint("No active tab"))
		} else {
			fmt.Fprintf(r.out, "URL:     %s\n", s.URL)
		}
		if s.Signals != nil {
			fmt.Fprintf(r.out, "Page:    %q, %d links, password form: %t\n",
				s.Signals.Title, s.Signals.LinkCount, s.Signals.HasPasswordForm)
		}
	}

	fmt.Fprintf(r.out, "Verdict: %s\n", r.Verdict(live.Result, live.Loading))
	if !live.Loading {
		r.reasons("  ", live.Result.Reasons)
	}

	sb := s.Sandbox()
	switch {
	case sb.Loading:
		fmt.Fprintf(r.out, "Sandbox: %s\n", r.Verdict(core.AnalysisResult{}, true))
	case sb.Displayed() != nil:
		shown := sb.Displayed()
		fmt.Fprintf(r.out, "Sandbox: %s  (%s)\n", r.Verdict(shown.Result, false), describeInput(shown.Input))
		r.reasons("  ", shown.Result.Reasons)
	}
	if sb.LastError != "" {
		fmt.Fprintf(r.out, "%s %s\n", r.colorRed.Sprint("Sandbox error:"), sb.LastError)
	}

	if s.Report != nil {
		fmt.Fprintf(r.out, "%s %s\n", r.colorGreen.Sprint("Report received:"), s.Report.Kind)
	}
}

// RenderResult prints one verdict with its reasons under a heading
func (r *Renderer) RenderResult(heading string, result core.AnalysisResult) {
	fmt.Fprintf(r.out, "%s %s\n", r.colorCyan.Sprint(heading+":"), r.Verdict(result, false))
	r.reasons("  ", result.Reasons)
}

func describeInput(in core.SandboxInput) string {
	if in.URL != "" {
		return in.URL
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{in.Sender, in.Subject} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "email body"
	}
	return strings.Join(parts, " / ")
}
