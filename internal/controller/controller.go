// Package controller is the orchestrator behind the UI surface. It owns the
// mode state machine, decides when to extract and when to call the scorer,
// and reconciles asynchronous responses with mode switches.
//
// All state lives on a single event-loop goroutine. Extraction and analysis
// calls run in their own goroutines and post their completions back to the
// loop, where a per-slot sequence number discards anything superseded.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
)

var (
	// ErrClosed is returned by every method once Close has been called
	ErrClosed = errors.New("controller: closed")
	// ErrUnknownMode is returned by SelectMode for anything but url or email
	ErrUnknownMode = errors.New("controller: unknown mode")
	// ErrUnknownKind is returned by SubmitReport for an unsupported report kind
	ErrUnknownKind = errors.New("controller: unknown report kind")
)

// DefaultReportInterval is how long a report acknowledgment stays visible
const DefaultReportInterval = 2 * time.Second

type slot int

const (
	slotTabURL slot = iota
	slotSignals
	slotOpenEmail
	slotLiveURL
	slotLiveEmail
	slotSandboxURL
	slotSandboxEmail
	slotReport
	slotCount
)

var slotNames = [slotCount]string{
	"tab_url", "page_signals", "open_email",
	"live_url", "live_email",
	"sandbox_url", "sandbox_email",
	"report",
}

func (s slot) String() string {
	return slotNames[s]
}

// Observer receives a copy of the state after every change. Observers run on
// the event loop and must not call back into the controller.
type Observer func(State)

// Options tunes a Controller
type Options struct {
	// ReportInterval defaults to DefaultReportInterval
	ReportInterval time.Duration
	Logger         *zap.Logger
	// Clock defaults to time.Now
	Clock func() time.Time
}

// event runs on the loop and reports whether it changed the state
type event func() bool

// Controller is the orchestrator
type Controller struct {
	extraction     core.Extraction
	analyzer       core.Analyzer
	reportInterval time.Duration
	now            func() time.Time
	logger         *zap.Logger

	events   chan event
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	workers  sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once

	// Owned by the loop
	state       State
	seq         [slotCount]uint64
	observers   []Observer
	reportTimer *time.Timer
}

// New creates a controller and starts its event loop. Nothing is fetched
// until Start is called.
func New(extraction core.Extraction, analyzer core.Analyzer, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		extraction:     extraction,
		analyzer:       analyzer,
		reportInterval: opts.ReportInterval,
		now:            opts.Clock,
		logger:         opts.Logger,
		events:         make(chan event, 64),
		ctx:            ctx,
		cancel:         cancel,
		loopDone:       make(chan struct{}),
		state:          initialState(),
	}
	go c.loop()
	return c
}

// Start enters the initial url mode. Calls after the first are no-ops.
func (c *Controller) Start() error {
	var err error
	c.startOnce.Do(func() {
		err = c.post(func() bool {
			return c.enterMode(core.ModeURL)
		})
	})
	return err
}

// Close stops the loop, cancels in-flight calls and waits for them to return
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.loopDone
		c.workers.Wait()
	})
	return nil
}

// Subscribe registers an observer. It is called immediately with the
// current state and then after every change.
func (c *Controller) Subscribe(o Observer) error {
	return c.post(func() bool {
		c.observers = append(c.observers, o)
		o(c.state.Clone())
		return false
	})
}

// Snapshot returns a deep copy of the current state
func (c *Controller) Snapshot() (State, error) {
	return query(c, func() (State, bool) {
		return c.state.Clone(), false
	})
}

// SelectMode switches mode. Selecting the current mode is a no-op.
func (c *Controller) SelectMode(mode core.Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}
	return c.post(func() bool {
		if c.state.Mode == mode {
			return false
		}
		return c.enterMode(mode)
	})
}

// Refresh asks the relay again for the current mode's subject. Analysis
// fires only if the subject changed.
func (c *Controller) Refresh() error {
	return c.post(func() bool {
		c.fetchForMode()
		return false
	})
}

// SetURLSandboxInput replaces the URL sandbox input buffer
func (c *Controller) SetURLSandboxInput(url string) error {
	return c.post(func() bool {
		c.state.URLSandboxInput = url
		return true
	})
}

// SetEmailSandboxInput replaces the email sandbox input buffers
func (c *Controller) SetEmailSandboxInput(in EmailInput) error {
	return c.post(func() bool {
		c.state.EmailSandboxInput = in
		return true
	})
}

// SubmitURLSandbox analyzes the URL sandbox input. It reports false without
// issuing a request when the input is blank.
func (c *Controller) SubmitURLSandbox() (bool, error) {
	return query(c, func() (bool, bool) {
		url := strings.TrimSpace(c.state.URLSandboxInput)
		if url == "" {
			return false, false
		}
		c.submitSandbox(slotSandboxURL, &c.state.URLSandbox, core.SandboxInput{URL: url},
			func(ctx context.Context) (core.AnalysisResult, error) {
				return c.analyzer.AnalyzeURL(ctx, url)
			})
		return true, true
	})
}

// SubmitEmailSandbox analyzes the email sandbox input. It reports false
// without issuing a request when every field is blank.
func (c *Controller) SubmitEmailSandbox() (bool, error) {
	return query(c, func() (bool, bool) {
		in := core.EmailRecord{
			Sender:  c.state.EmailSandboxInput.Sender,
			Subject: c.state.EmailSandboxInput.Subject,
			Body:    c.state.EmailSandboxInput.Body,
		}.Trimmed()
		if !in.HasContent() {
			return false, false
		}
		input := core.SandboxInput{Sender: in.Sender, Subject: in.Subject, Body: in.Body}
		c.submitSandbox(slotSandboxEmail, &c.state.EmailSandbox, input,
			func(ctx context.Context) (core.AnalysisResult, error) {
				return c.analyzer.AnalyzeEmail(ctx, in.Sender, in.Subject, in.Body)
			})
		return true, true
	})
}

// SubmitReport records a report acknowledgment that expires after the
// report interval. A newer report restarts the interval.
func (c *Controller) SubmitReport(kind core.ReportKind) error {
	if k, ok := core.ParseReportKind(string(kind)); !ok || k != kind {
		return ErrUnknownKind
	}
	return c.post(func() bool {
		seq := c.next(slotReport)
		c.state.Report = &core.ReportEvent{ID: uuid.NewString(), Kind: kind, At: c.now()}
		c.logger.Info("Report acknowledged", zap.String("kind", string(kind)))

		if c.reportTimer != nil {
			c.reportTimer.Stop()
		}
		c.reportTimer = time.AfterFunc(c.reportInterval, func() {
			_ = c.post(func() bool {
				if !c.latest(slotReport, seq) {
					return false
				}
				c.state.Report = nil
				return true
			})
		})
		return true
	})
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.ctx.Done():
			if c.reportTimer != nil {
				c.reportTimer.Stop()
			}
			return
		case ev := <-c.events:
			if ev() {
				c.notify()
			}
		}
	}
}

func (c *Controller) notify() {
	for _, o := range c.observers {
		o(c.state.Clone())
	}
}

func (c *Controller) post(ev event) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// query runs fn on the loop and waits for its value
func query[T any](c *Controller, fn func() (T, bool)) (T, error) {
	var zero T
	reply := make(chan T, 1)
	err := c.post(func() bool {
		v, changed := fn()
		reply <- v
		return changed
	})
	if err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.loopDone:
		return zero, ErrClosed
	}
}

// spawn runs work off the loop and posts the event it returns
func (c *Controller) spawn(work func(ctx context.Context) event) {
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		_ = c.post(work(c.ctx))
	}()
}

func (c *Controller) next(s slot) uint64 {
	c.seq[s]++
	return c.seq[s]
}

func (c *Controller) latest(s slot, seq uint64) bool {
	if c.seq[s] == seq {
		return true
	}
	c.logger.Debug("Discarding stale response",
		zap.Stringer("slot", s),
		zap.Uint64("seq", seq),
		zap.Uint64("latest", c.seq[s]))
	return false
}

func (c *Controller) enterMode(mode core.Mode) bool {
	c.state.Mode = mode
	c.logger.Debug("Mode entered", zap.String("mode", string(mode)))

	c.fetchForMode()

	// Entering a mode re-evaluates the trigger with whatever is already known
	switch mode {
	case core.ModeURL:
		if c.state.URL != "" {
			c.analyzeURL()
		}
	case core.ModeEmail:
		if c.state.Email.HasContent() {
			c.analyzeEmail()
		}
	}
	return true
}

func (c *Controller) fetchForMode() {
	switch c.state.Mode {
	case core.ModeURL:
		c.fetchActiveTabURL()
		c.fetchPageSignals()
	case core.ModeEmail:
		c.fetchOpenEmail()
	}
}

func (c *Controller) fetchActiveTabURL() {
	seq := c.next(slotTabURL)
	c.spawn(func(ctx context.Context) event {
		url, err := c.extraction.ActiveTabURL(ctx)
		return func() bool {
			if !c.latest(slotTabURL, seq) {
				return false
			}
			if err != nil {
				c.logger.Warn("Failed to get active tab URL", zap.Error(err))
				return false
			}
			if url == "" || url == c.state.URL {
				return false
			}
			c.state.URL = url
			if c.state.Mode == core.ModeURL {
				c.analyzeURL()
			}
			return true
		}
	})
}

func (c *Controller) fetchPageSignals() {
	seq := c.next(slotSignals)
	c.spawn(func(ctx context.Context) event {
		signals, err := c.extraction.PageSignals(ctx)
		return func() bool {
			if !c.latest(slotSignals, seq) {
				return false
			}
			if err != nil {
				c.logger.Warn("Failed to get page signals", zap.Error(err))
				return false
			}
			c.state.Signals = &signals
			return true
		}
	})
}

func (c *Controller) fetchOpenEmail() {
	seq := c.next(slotOpenEmail)
	c.spawn(func(ctx context.Context) event {
		email, err := c.extraction.OpenEmail(ctx)
		return func() bool {
			if !c.latest(slotOpenEmail, seq) {
				return false
			}
			if err != nil {
				c.logger.Warn("Failed to get open email", zap.Error(err))
				return false
			}
			if !email.HasContent() {
				c.logger.Debug("No open email found", zap.String("provider", email.Provider))
				return false
			}

			changed := email.Sender != c.state.Email.Sender ||
				email.Subject != c.state.Email.Subject ||
				email.Body != c.state.Email.Body
			c.state.Email = email
			c.state.EmailSandboxInput = EmailInput{
				Sender:  email.Sender,
				Subject: email.Subject,
				Body:    email.Body,
			}

			if changed && c.state.Mode == core.ModeEmail {
				c.analyzeEmail()
			}
			return true
		}
	})
}

func (c *Controller) analyzeURL() {
	url := c.state.URL
	c.analyzeLive(slotLiveURL, &c.state.URLAnalysis, func(ctx context.Context) (core.AnalysisResult, error) {
		return c.analyzer.AnalyzeURL(ctx, url)
	})
}

func (c *Controller) analyzeEmail() {
	email := c.state.Email
	c.analyzeLive(slotLiveEmail, &c.state.EmailAnalysis, func(ctx context.Context) (core.AnalysisResult, error) {
		return c.analyzer.AnalyzeEmail(ctx, email.Sender, email.Subject, email.Body)
	})
}

// analyzeLive issues one live-detection request. A failed call still
// replaces the slot, with the analyzer's fallback verdict.
func (c *Controller) analyzeLive(s slot, live *Live, call func(context.Context) (core.AnalysisResult, error)) {
	seq := c.next(s)
	live.Loading = true

	c.spawn(func(ctx context.Context) event {
		result, err := call(ctx)
		return func() bool {
			if !c.latest(s, seq) {
				return false
			}
			if err != nil {
				c.logger.Debug("Live analysis failed", zap.Stringer("slot", s), zap.Error(err))
				if result.Status == "" {
					result = core.SafeResult()
				}
			}
			live.Result = result.Clone()
			live.Loading = false
			return true
		}
	})
}

// submitSandbox issues one sandbox request. A failed call keeps the last
// successful result and records the error.
func (c *Controller) submitSandbox(s slot, sb *Sandbox, input core.SandboxInput, call func(context.Context) (core.AnalysisResult, error)) {
	seq := c.next(s)
	sb.Loading = true
	sb.LastError = ""

	c.spawn(func(ctx context.Context) event {
		result, err := call(ctx)
		return func() bool {
			if !c.latest(s, seq) {
				return false
			}
			sb.Loading = false
			if err != nil {
				c.logger.Warn("Sandbox analysis failed", zap.Stringer("slot", s), zap.Error(err))
				sb.LastError = err.Error()
				return true
			}
			sb.Result = &core.SandboxResult{Input: input, Result: result.Clone()}
			return true
		}
	})
}
