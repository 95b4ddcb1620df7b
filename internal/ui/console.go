// Package ui is the terminal surface: it renders controller state and turns
// typed commands into controller actions.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/controller"
	"github.com/mikey/phishlens/internal/core"
)

// Controller is the part of the orchestrator the console drives
type Controller interface {
	SelectMode(mode core.Mode) error
	Refresh() error
	SetURLSandboxInput(url string) error
	SetEmailSandboxInput(in controller.EmailInput) error
	SubmitURLSandbox() (bool, error)
	SubmitEmailSandbox() (bool, error)
	SubmitReport(kind core.ReportKind) error
	Snapshot() (controller.State, error)
	Subscribe(o controller.Observer) error
}

// ErrSandboxMode is returned for a sandbox command aimed at the mode that is
// not shown
var ErrSandboxMode = errors.New("sandbox not shown in this mode")

// Console reads commands and prints verdicts as they change
type Console struct {
	ctrl     Controller
	in       io.Reader
	renderer *Renderer
	logger   *zap.Logger

	mu      sync.Mutex
	out     io.Writer
	lastKey string
}

// NewConsole creates a console over in and out
func NewConsole(ctrl Controller, in io.Reader, out io.Writer, noColor bool, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{
		ctrl:     ctrl,
		in:       in,
		out:      out,
		renderer: NewRenderer(out, noColor),
		logger:   logger,
	}
}

// Run processes commands until quit, end of input or ctx cancellation
func (c *Console) Run(ctx context.Context) error {
	if err := c.ctrl.Subscribe(c.onChange); err != nil {
		return err
	}
	c.println(Usage)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			quit, err := c.Execute(line)
			if err != nil {
				if errors.Is(err, controller.ErrClosed) {
					return err
				}
				if !errors.Is(err, ErrEmptyCommand) {
					c.logger.Debug("Command failed", zap.String("line", line), zap.Error(err))
					c.println("error: " + err.Error())
				}
				continue
			}
			if quit {
				return nil
			}
		}
	}
}

// Execute runs one command line. It reports true when the user asked to quit.
func (c *Console) Execute(line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return false, err
	}

	switch cmd.Kind {
	case CmdQuit:
		return true, nil
	case CmdHelp:
		c.println(Usage)
	case CmdURLMode:
		return false, c.ctrl.SelectMode(core.ModeURL)
	case CmdEmailMode:
		return false, c.ctrl.SelectMode(core.ModeEmail)
	case CmdRefresh:
		return false, c.ctrl.Refresh()
	case CmdReport:
		return false, c.ctrl.SubmitReport(cmd.Report)
	case CmdShow:
		s, err := c.ctrl.Snapshot()
		if err != nil {
			return false, err
		}
		c.mu.Lock()
		c.renderer.Render(s)
		c.mu.Unlock()
	case CmdSandboxURL:
		if err := c.requireMode(core.ModeURL); err != nil {
			return false, err
		}
		if err := c.ctrl.SetURLSandboxInput(cmd.URL); err != nil {
			return false, err
		}
		ok, err := c.ctrl.SubmitURLSandbox()
		if err != nil {
			return false, err
		}
		if !ok {
			c.println("Nothing to analyze: enter a URL")
		}
	case CmdSandboxEmail:
		if err := c.requireMode(core.ModeEmail); err != nil {
			return false, err
		}
		if err := c.ctrl.SetEmailSandboxInput(cmd.Email); err != nil {
			return false, err
		}
		ok, err := c.ctrl.SubmitEmailSandbox()
		if err != nil {
			return false, err
		}
		if !ok {
			c.println("Nothing to analyze: enter a sender, subject or body")
		}
	}
	return false, nil
}

// requireMode refuses sandbox input for a mode whose sandbox would never be
// printed
func (c *Console) requireMode(mode core.Mode) error {
	s, err := c.ctrl.Snapshot()
	if err != nil {
		return err
	}
	if s.Mode != mode {
		return fmt.Errorf("%w: switch to %s mode first", ErrSandboxMode, mode)
	}
	return nil
}

// onChange prints a one-line update whenever the visible verdicts change.
// It runs on the controller loop, so it only writes.
func (c *Console) onChange(s controller.State) {
	live := s.Live()
	sb := s.Sandbox()

	line := fmt.Sprintf("[%s] %s", s.Mode, c.renderer.Verdict(live.Result, live.Loading))
	if shown := sb.Displayed(); shown != nil || sb.Loading {
		result := core.AnalysisResult{}
		if shown != nil {
			result = shown.Result
		}
		line += "  | sandbox: " + c.renderer.Verdict(result, sb.Loading)
	}
	if s.Report != nil {
		line += "  | report received: " + string(s.Report.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if line == c.lastKey {
		return
	}
	c.lastKey = line
	fmt.Fprintln(c.out, line)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
