package controller

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/phishlens/internal/analysis"
	"github.com/mikey/phishlens/internal/core"
)

// fakeExtraction stands in for the relay client
type fakeExtraction struct {
	mu        sync.Mutex
	url       string
	urlErr    error
	email     core.EmailRecord
	emailErr  error
	emailGate chan struct{}
	signals   core.PageSignals

	emailCalls int
}

func (f *fakeExtraction) ActiveTabURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, f.urlErr
}

func (f *fakeExtraction) OpenEmail(ctx context.Context) (core.EmailRecord, error) {
	f.mu.Lock()
	f.emailCalls++
	gate := f.emailGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return core.EmailRecord{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email, f.emailErr
}

func (f *fakeExtraction) PageSignals(ctx context.Context) (core.PageSignals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signals, nil
}

func (f *fakeExtraction) setURL(url string) {
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
}

func (f *fakeExtraction) setEmail(email core.EmailRecord) {
	f.mu.Lock()
	f.email = email
	f.mu.Unlock()
}

// fakeScorer is the backend behind a real analysis.Client. Results and
// errors are keyed by URL or by email sender; a gate holds a call until it
// is closed.
type fakeScorer struct {
	mu      sync.Mutex
	results map[string]core.AnalysisResult
	errs    map[string]error
	gates   map[string]chan struct{}

	urls   []string
	emails []core.EmailRecord
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{
		results: make(map[string]core.AnalysisResult),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

func (s *fakeScorer) respond(ctx context.Context, key string) (core.AnalysisResult, error) {
	s.mu.Lock()
	gate := s.gates[key]
	result, err := s.results[key], s.errs[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return core.AnalysisResult{}, ctx.Err()
		}
	}
	if err != nil {
		return core.AnalysisResult{}, err
	}
	return result, nil
}

func (s *fakeScorer) ScoreURL(ctx context.Context, url string) (core.AnalysisResult, error) {
	s.mu.Lock()
	s.urls = append(s.urls, url)
	s.mu.Unlock()
	return s.respond(ctx, url)
}

func (s *fakeScorer) ScoreEmail(ctx context.Context, email core.EmailRecord) (core.AnalysisResult, error) {
	s.mu.Lock()
	s.emails = append(s.emails, email)
	s.mu.Unlock()
	return s.respond(ctx, email.Sender)
}

func (s *fakeScorer) set(key string, result core.AnalysisResult, err error) {
	s.mu.Lock()
	s.results[key] = result
	s.errs[key] = err
	s.mu.Unlock()
}

func (s *fakeScorer) gate(key string) chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[key] = ch
	s.mu.Unlock()
	return ch
}

func (s *fakeScorer) urlCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func (s *fakeScorer) emailCalls() []core.EmailRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.EmailRecord(nil), s.emails...)
}

type harness struct {
	c      *Controller
	ext    *fakeExtraction
	scorer *fakeScorer
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, ext *fakeExtraction, opts Options) *harness {
	t.Helper()
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(obsCore)
	scorer := newFakeScorer()

	opts.Logger = logger
	c := New(ext, analysis.NewClient(scorer, core.StatusSafe, logger), opts)
	t.Cleanup(func() { c.Close() })

	return &harness{c: c, ext: ext, scorer: scorer, logs: logs}
}

func (h *harness) waitFor(t *testing.T, what string, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s, err := h.c.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last state %+v", what, s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) waitForLog(t *testing.T, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.logs.FilterMessage(msg).Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for log %q", msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitForStale waits until a response for slot s has been discarded
func (h *harness) waitForStale(t *testing.T, s slot) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		for _, entry := range h.logs.FilterMessage("Discarding stale response").All() {
			if entry.ContextMap()["slot"] == s.String() {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for a stale %s response", s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var paypalVerdict = core.AnalysisResult{
	RiskScore: 0.92,
	Status:    core.StatusHighRisk,
	Reasons:   []string{"suspicious domain"},
}

func TestStartAnalyzesActiveTab(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "login.paypal-secure.verify.com"}, Options{})
	h.scorer.set("login.paypal-secure.verify.com", paypalVerdict, nil)

	if err := h.c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := h.waitFor(t, "url verdict", func(s State) bool {
		return s.URLAnalysis.Result.Status == core.StatusHighRisk && !s.URLAnalysis.Loading
	})

	if s.Mode != core.ModeURL || s.URL != "login.paypal-secure.verify.com" {
		t.Fatalf("unexpected state %+v", s)
	}
	if got := s.Live().Result.Percent(); got != 92 {
		t.Fatalf("expected 92%%, got %d%%", got)
	}
	if !reflect.DeepEqual(s.Live().Result.Reasons, []string{"suspicious domain"}) {
		t.Fatalf("unexpected reasons %v", s.Live().Result.Reasons)
	}
	if calls := h.scorer.urlCalls(); len(calls) != 1 {
		t.Fatalf("expected exactly one request, got %v", calls)
	}
}

func TestStartWithoutActiveTabDoesNotAnalyze(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})

	if err := h.c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.waitFor(t, "page signals", func(s State) bool { return s.Signals != nil })

	s, _ := h.c.Snapshot()
	if s.URL != "" || s.URLAnalysis.Loading {
		t.Fatalf("unexpected state %+v", s)
	}
	if calls := h.scorer.urlCalls(); len(calls) != 0 {
		t.Fatalf("expected no requests, got %v", calls)
	}
}

func TestChannelFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, &fakeExtraction{urlErr: errors.New("no runtime")}, Options{})

	if err := h.c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.waitForLog(t, "Failed to get active tab URL")

	s, _ := h.c.Snapshot()
	if s.URL != "" || !reflect.DeepEqual(s.URLAnalysis.Result, core.SafeResult()) {
		t.Fatalf("state must be unchanged, got %+v", s)
	}
	if len(h.scorer.urlCalls()) != 0 {
		t.Fatal("no analysis expected after a channel failure")
	}
}

func TestReenteringURLModeReanalyzes(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://bank.example/"}, Options{})
	h.scorer.set("https://bank.example/", core.AnalysisResult{RiskScore: 0.1, Status: core.StatusSafe}, nil)

	h.c.Start()
	h.waitFor(t, "first verdict", func(s State) bool { return s.URL != "" && !s.URLAnalysis.Loading })

	h.c.SelectMode(core.ModeEmail)
	h.c.SelectMode(core.ModeURL)
	h.waitFor(t, "second verdict", func(s State) bool {
		return s.Mode == core.ModeURL && !s.URLAnalysis.Loading && len(h.scorer.urlCalls()) == 2
	})
}

func TestSelectingCurrentModeIsNoop(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://bank.example/"}, Options{})
	h.c.Start()
	h.waitFor(t, "first verdict", func(s State) bool { return s.URL != "" && !s.URLAnalysis.Loading })

	if err := h.c.SelectMode(core.ModeURL); err != nil {
		t.Fatalf("SelectMode: %v", err)
	}
	s, _ := h.c.Snapshot()
	if s.URLAnalysis.Loading || len(h.scorer.urlCalls()) != 1 {
		t.Fatalf("selecting the current mode must not trigger analysis, calls=%v", h.scorer.urlCalls())
	}
}

func TestLiveFailureResetsToSafeDefault(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://a.example/"}, Options{})
	h.scorer.set("https://a.example/", paypalVerdict, nil)
	h.scorer.set("https://b.example/", core.AnalysisResult{}, errors.New("connection refused"))

	h.c.Start()
	h.waitFor(t, "high risk", func(s State) bool { return s.URLAnalysis.Result.Status == core.StatusHighRisk })

	h.ext.setURL("https://b.example/")
	h.c.Refresh()
	s := h.waitFor(t, "fallback", func(s State) bool {
		return s.URL == "https://b.example/" && !s.URLAnalysis.Loading
	})

	want := core.AnalysisResult{RiskScore: 0, Status: core.StatusSafe, Reasons: []string{}}
	if !reflect.DeepEqual(s.URLAnalysis.Result, want) {
		t.Fatalf("expected %+v, got %+v", want, s.URLAnalysis.Result)
	}
}

func TestStaleLiveResponseIsDiscarded(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://slow.example/"}, Options{})
	release := h.scorer.gate("https://slow.example/")
	h.scorer.set("https://slow.example/", paypalVerdict, nil)
	h.scorer.set("https://fast.example/", core.AnalysisResult{RiskScore: 0.3, Status: core.StatusLowRisk}, nil)

	h.c.Start()
	h.waitFor(t, "slow request", func(s State) bool { return len(h.scorer.urlCalls()) == 1 })

	h.ext.setURL("https://fast.example/")
	h.c.Refresh()
	h.waitFor(t, "fast verdict", func(s State) bool {
		return s.URLAnalysis.Result.Status == core.StatusLowRisk && !s.URLAnalysis.Loading
	})

	close(release)
	h.waitForLog(t, "Discarding stale response")

	s, _ := h.c.Snapshot()
	if s.URLAnalysis.Result.Status != core.StatusLowRisk || s.URL != "https://fast.example/" {
		t.Fatalf("stale response overwrote the latest one: %+v", s.URLAnalysis)
	}
}

func TestStaleEmailResponseIsDiscarded(t *testing.T) {
	slow := core.EmailRecord{Provider: core.ProviderGmail, Sender: "slow@example.com", Subject: "Invoice"}
	fast := core.EmailRecord{Provider: core.ProviderGmail, Sender: "fast@example.com", Subject: "Lunch"}
	h := newHarness(t, &fakeExtraction{email: slow}, Options{})
	release := h.scorer.gate("slow@example.com")
	h.scorer.set("slow@example.com", paypalVerdict, nil)
	h.scorer.set("fast@example.com", core.AnalysisResult{RiskScore: 0.3, Status: core.StatusLowRisk}, nil)

	h.c.Start()
	h.c.SelectMode(core.ModeEmail)
	h.waitFor(t, "slow request", func(s State) bool { return len(h.scorer.emailCalls()) == 1 })

	h.ext.setEmail(fast)
	h.c.Refresh()
	h.waitFor(t, "fast verdict", func(s State) bool {
		return s.EmailAnalysis.Result.Status == core.StatusLowRisk && !s.EmailAnalysis.Loading
	})

	close(release)
	h.waitForStale(t, slotLiveEmail)

	s, _ := h.c.Snapshot()
	if s.EmailAnalysis.Result.Status != core.StatusLowRisk || s.Email.Sender != "fast@example.com" {
		t.Fatalf("stale response overwrote the latest one: %+v", s.EmailAnalysis)
	}
}

func TestEmailModeWithoutExtractionDoesNotAnalyze(t *testing.T) {
	h := newHarness(t, &fakeExtraction{email: core.UnknownEmail()}, Options{})
	h.c.Start()

	if err := h.c.SelectMode(core.ModeEmail); err != nil {
		t.Fatalf("SelectMode: %v", err)
	}
	h.waitForLog(t, "No open email found")

	s, _ := h.c.Snapshot()
	if s.Mode != core.ModeEmail || s.EmailAnalysis.Loading {
		t.Fatalf("unexpected state %+v", s)
	}
	if calls := h.scorer.emailCalls(); len(calls) != 0 {
		t.Fatalf("expected no email analysis, got %v", calls)
	}
}

func TestEmailModePopulatesFieldsAndSeedsSandbox(t *testing.T) {
	email := core.EmailRecord{Provider: core.ProviderGmail, Sender: "PayPal", Subject: "Account suspended", Body: "Verify now"}
	h := newHarness(t, &fakeExtraction{email: email}, Options{})
	h.scorer.set("PayPal", paypalVerdict, nil)

	h.c.Start()
	h.c.SelectMode(core.ModeEmail)
	s := h.waitFor(t, "email verdict", func(s State) bool {
		return s.EmailAnalysis.Result.Status == core.StatusHighRisk && !s.EmailAnalysis.Loading
	})

	if s.Email != email {
		t.Fatalf("expected live fields %+v, got %+v", email, s.Email)
	}
	want := EmailInput{Sender: "PayPal", Subject: "Account suspended", Body: "Verify now"}
	if s.EmailSandboxInput != want {
		t.Fatalf("expected sandbox seed %+v, got %+v", want, s.EmailSandboxInput)
	}
	if s.EmailSandbox.Result != nil {
		t.Fatal("seeding must not submit the sandbox")
	}
	calls := h.scorer.emailCalls()
	if len(calls) != 1 || calls[0] != (core.EmailRecord{Sender: "PayPal", Subject: "Account suspended", Body: "Verify now"}) {
		t.Fatalf("unexpected email requests %v", calls)
	}
}

func TestEmailArrivingInURLModeWaitsForModeEntry(t *testing.T) {
	ext := &fakeExtraction{
		email:     core.EmailRecord{Provider: core.ProviderGmail, Subject: "Invoice"},
		emailGate: make(chan struct{}),
	}
	h := newHarness(t, ext, Options{})

	h.c.Start()
	h.c.SelectMode(core.ModeEmail)
	h.c.SelectMode(core.ModeURL)
	close(ext.emailGate)

	h.waitFor(t, "email stored", func(s State) bool { return s.Email.Subject == "Invoice" })
	if calls := h.scorer.emailCalls(); len(calls) != 0 {
		t.Fatalf("email must not be analyzed outside email mode, got %v", calls)
	}

	h.c.SelectMode(core.ModeEmail)
	h.waitFor(t, "email verdict", func(s State) bool {
		return !s.EmailAnalysis.Loading && len(h.scorer.emailCalls()) == 1
	})
}

func TestSandboxGuardRejectsBlankInput(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})

	h.c.SetURLSandboxInput("   ")
	ok, err := h.c.SubmitURLSandbox()
	if err != nil || ok {
		t.Fatalf("expected blank url to be rejected, got ok=%v err=%v", ok, err)
	}

	h.c.SetEmailSandboxInput(EmailInput{Sender: " ", Subject: "\t", Body: "\n"})
	ok, err = h.c.SubmitEmailSandbox()
	if err != nil || ok {
		t.Fatalf("expected blank email to be rejected, got ok=%v err=%v", ok, err)
	}

	s, _ := h.c.Snapshot()
	if s.URLSandbox.Loading || s.EmailSandbox.Loading {
		t.Fatal("rejected submissions must not set loading")
	}
	if len(h.scorer.urlCalls())+len(h.scorer.emailCalls()) != 0 {
		t.Fatal("rejected submissions must not issue requests")
	}
}

func TestSandboxEmailWithOnlySender(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	h.scorer.set("a@b.com", core.AnalysisResult{RiskScore: 0.05, Status: core.StatusSafe}, nil)

	h.c.SetEmailSandboxInput(EmailInput{Sender: "  a@b.com ", Subject: "", Body: "  "})
	ok, err := h.c.SubmitEmailSandbox()
	if err != nil || !ok {
		t.Fatalf("expected submission to be accepted, got ok=%v err=%v", ok, err)
	}

	s := h.waitFor(t, "sandbox verdict", func(s State) bool {
		return s.EmailSandbox.Result != nil && !s.EmailSandbox.Loading
	})

	calls := h.scorer.emailCalls()
	if len(calls) != 1 || calls[0] != (core.EmailRecord{Sender: "a@b.com"}) {
		t.Fatalf("expected exactly one trimmed request, got %v", calls)
	}
	if s.EmailSandbox.Result.Input != (core.SandboxInput{Sender: "a@b.com"}) {
		t.Fatalf("unexpected echoed input %+v", s.EmailSandbox.Result.Input)
	}
}

func TestSandboxFailureKeepsPreviousResult(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	h.scorer.set("https://ok.example/", paypalVerdict, nil)
	h.scorer.set("https://down.example/", core.AnalysisResult{}, errors.New("HTTP 503"))

	h.c.SetURLSandboxInput("https://ok.example/")
	h.c.SubmitURLSandbox()
	h.waitFor(t, "first sandbox verdict", func(s State) bool {
		return s.URLSandbox.Result != nil && !s.URLSandbox.Loading
	})

	h.c.SetURLSandboxInput("https://down.example/")
	h.c.SubmitURLSandbox()
	s := h.waitFor(t, "failed submission", func(s State) bool {
		return !s.URLSandbox.Loading && s.URLSandbox.LastError != ""
	})

	shown := s.URLSandbox.Displayed()
	if shown == nil || shown.Input.URL != "https://ok.example/" || shown.Result.Status != core.StatusHighRisk {
		t.Fatalf("expected previous result to remain, got %+v", shown)
	}
	if !reflect.DeepEqual(s.URLAnalysis.Result, core.SafeResult()) {
		t.Fatalf("sandbox must not touch live detection, got %+v", s.URLAnalysis.Result)
	}
}

func TestSandboxResultHiddenWhileLoading(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	h.scorer.set("https://first.example/", paypalVerdict, nil)
	h.scorer.set("https://second.example/", core.AnalysisResult{RiskScore: 0.4, Status: core.StatusLowRisk}, nil)

	h.c.SetURLSandboxInput("https://first.example/")
	h.c.SubmitURLSandbox()
	h.waitFor(t, "first verdict", func(s State) bool { return s.URLSandbox.Displayed() != nil })

	release := h.scorer.gate("https://second.example/")
	h.c.SetURLSandboxInput("https://second.example/")
	if ok, err := h.c.SubmitURLSandbox(); !ok || err != nil {
		t.Fatalf("SubmitURLSandbox: ok=%v err=%v", ok, err)
	}

	s, _ := h.c.Snapshot()
	if !s.URLSandbox.Loading || s.URLSandbox.Displayed() != nil {
		t.Fatalf("expected loading with nothing displayed, got %+v", s.URLSandbox)
	}

	close(release)
	s = h.waitFor(t, "second verdict", func(s State) bool { return !s.URLSandbox.Loading })
	if s.URLSandbox.Displayed().Result.Status != core.StatusLowRisk {
		t.Fatalf("unexpected result %+v", s.URLSandbox.Displayed())
	}
}

func TestStaleURLSandboxResponseIsDiscarded(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	release := h.scorer.gate("https://slow.example/")
	h.scorer.set("https://slow.example/", paypalVerdict, nil)
	h.scorer.set("https://fast.example/", core.AnalysisResult{RiskScore: 0.2, Status: core.StatusSafe}, nil)

	h.c.SetURLSandboxInput("https://slow.example/")
	h.c.SubmitURLSandbox()
	h.waitFor(t, "slow request", func(s State) bool { return len(h.scorer.urlCalls()) == 1 })

	h.c.SetURLSandboxInput("https://fast.example/")
	h.c.SubmitURLSandbox()
	h.waitFor(t, "fast verdict", func(s State) bool {
		return s.URLSandbox.Displayed() != nil && !s.URLSandbox.Loading
	})

	close(release)
	h.waitForStale(t, slotSandboxURL)

	s, _ := h.c.Snapshot()
	shown := s.URLSandbox.Displayed()
	if shown == nil || shown.Input.URL != "https://fast.example/" || shown.Result.Status != core.StatusSafe {
		t.Fatalf("stale sandbox response overwrote the latest one: %+v", shown)
	}
}

func TestStaleEmailSandboxResponseIsDiscarded(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	release := h.scorer.gate("slow@example.com")
	h.scorer.set("slow@example.com", paypalVerdict, nil)
	h.scorer.set("fast@example.com", core.AnalysisResult{RiskScore: 0.1, Status: core.StatusSafe}, nil)

	h.c.SetEmailSandboxInput(EmailInput{Sender: "slow@example.com", Subject: "Verify"})
	h.c.SubmitEmailSandbox()
	h.waitFor(t, "slow request", func(s State) bool { return len(h.scorer.emailCalls()) == 1 })

	h.c.SetEmailSandboxInput(EmailInput{Sender: "fast@example.com", Subject: "Hello"})
	h.c.SubmitEmailSandbox()
	h.waitFor(t, "fast verdict", func(s State) bool {
		return s.EmailSandbox.Displayed() != nil && !s.EmailSandbox.Loading
	})

	close(release)
	h.waitForStale(t, slotSandboxEmail)

	s, _ := h.c.Snapshot()
	shown := s.EmailSandbox.Displayed()
	if shown == nil || shown.Input.Sender != "fast@example.com" || shown.Result.Status != core.StatusSafe {
		t.Fatalf("stale sandbox response overwrote the latest one: %+v", shown)
	}
}

func TestModeSwitchKeepsSandboxResults(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	h.scorer.set("https://probe.example/", paypalVerdict, nil)

	h.c.Start()
	h.c.SetURLSandboxInput("https://probe.example/")
	h.c.SubmitURLSandbox()
	h.waitFor(t, "sandbox verdict", func(s State) bool { return s.URLSandbox.Displayed() != nil })

	h.c.SelectMode(core.ModeEmail)
	h.c.SelectMode(core.ModeURL)

	s, _ := h.c.Snapshot()
	if s.Sandbox().Displayed() == nil || s.Sandbox().Displayed().Input.URL != "https://probe.example/" {
		t.Fatalf("sandbox result lost across mode switch: %+v", s.URLSandbox)
	}
}

func TestReportExpires(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{ReportInterval: 200 * time.Millisecond})

	if err := h.c.SubmitReport(core.ReportPhishing); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	s, _ := h.c.Snapshot()
	if s.Report == nil || s.Report.Kind != core.ReportPhishing || s.Report.ID == "" {
		t.Fatalf("expected pending report, got %+v", s.Report)
	}

	time.Sleep(120 * time.Millisecond)
	h.c.SubmitReport(core.ReportFalsePositive)
	time.Sleep(120 * time.Millisecond)

	s, _ = h.c.Snapshot()
	if s.Report == nil || s.Report.Kind != core.ReportFalsePositive {
		t.Fatalf("a newer report must restart the display window, got %+v", s.Report)
	}

	h.waitFor(t, "report expiry", func(s State) bool { return s.Report == nil })
}

func TestInvalidArguments(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})

	if err := h.c.SelectMode(core.Mode("sms")); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if err := h.c.SubmitReport(core.ReportKind("spam")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestClosedController(t *testing.T) {
	h := newHarness(t, &fakeExtraction{}, Options{})
	h.c.Close()

	if err := h.c.SelectMode(core.ModeEmail); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := h.c.Snapshot(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := h.c.SubmitURLSandbox(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := h.c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestObserversSeeChanges(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://watched.example/"}, Options{})
	states := make(chan State, 64)

	if err := h.c.Subscribe(func(s State) {
		select {
		case states <- s:
		default:
		}
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	h.c.Start()

	first := <-states
	if first.URL != "" {
		t.Fatalf("first notification should carry the initial state, got %+v", first)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.URL == "https://watched.example/" {
				return
			}
		case <-timeout:
			t.Fatal("observer never saw the active tab URL")
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	h := newHarness(t, &fakeExtraction{url: "https://copy.example/"}, Options{})
	h.scorer.set("https://copy.example/", paypalVerdict, nil)
	h.c.Start()

	s := h.waitFor(t, "verdict", func(s State) bool { return s.URLAnalysis.Result.Status == core.StatusHighRisk })
	s.URLAnalysis.Result.Reasons[0] = "mutated"

	again, _ := h.c.Snapshot()
	if again.URLAnalysis.Result.Reasons[0] != "suspicious domain" {
		t.Fatal("snapshot shares memory with controller state")
	}
}
