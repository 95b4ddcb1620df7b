// Package browser attaches to a Chrome instance over the DevTools protocol
// and exposes its tabs to the relay.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/extractor"
	"github.com/mikey/phishlens/internal/messaging"
	"github.com/mikey/phishlens/internal/relay"
	"github.com/mikey/phishlens/internal/utils"
)

// ErrNotConfigured is returned when neither a control URL nor launching is configured
var ErrNotConfigured = errors.New("browser.control_url is empty and browser.launch is false")

const focusScript = `() => ({
	visible: document.visibilityState === "visible",
	focused: document.hasFocus()
})`

// Browser is a relay.TabRegistry and relay.TabMessenger over a DevTools connection
type Browser struct {
	rod            *rod.Browser
	launcher       *launcher.Launcher
	inspectTimeout time.Duration
	tp             *utils.TextProcessor
	logger         *zap.Logger
}

// Connect attaches to the configured browser, launching one when asked to
func Connect(ctx context.Context, cfg config.BrowserConfig, tp *utils.TextProcessor, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Browser{inspectTimeout: cfg.InspectTimeout, tp: tp, logger: logger}

	controlURL := cfg.ControlURL
	switch {
	case controlURL != "":
		resolved, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve browser control url: %w", err)
		}
		controlURL = resolved
	case cfg.Launch:
		b.launcher = launcher.New().Headless(cfg.Headless)
		launched, err := b.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = launched
	default:
		return nil, ErrNotConfigured
	}

	b.rod = rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.rod.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logger.Info("Connected to browser",
		zap.String("control_url", controlURL),
		zap.Bool("launched", b.launcher != nil))
	return b, nil
}

// Close disconnects, and kills the browser if it was launched here
func (b *Browser) Close() error {
	var err error
	if b.rod != nil {
		err = b.rod.Close()
	}
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

// OpenTab opens url in a new tab
func (b *Browser) OpenTab(ctx context.Context, rawURL string) (relay.Tab, error) {
	page, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{URL: rawURL})
	if err != nil {
		return relay.Tab{}, fmt.Errorf("failed to open tab: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		b.logger.Warn("Tab did not finish loading", zap.String("url", rawURL), zap.Error(err))
	}
	return relay.Tab{ID: string(page.TargetID), URL: rawURL}, nil
}

type tabState struct {
	tab     relay.Tab
	visible bool
	focused bool
}

// ActiveTab implements relay.TabRegistry. The focused visible tab wins; a
// visible tab is accepted when no window has focus.
func (b *Browser) ActiveTab(ctx context.Context) (relay.Tab, error) {
	pages, err := b.rod.Context(ctx).Pages()
	if err != nil {
		return relay.Tab{}, fmt.Errorf("failed to list tabs: %w", err)
	}

	states := inspectAll(ctx, pages, b.inspectTimeout, b.inspect, b.logger)
	tab, ok := pickActive(states)
	if !ok {
		return relay.Tab{}, relay.ErrNoActiveTab
	}
	return tab, nil
}

// inspectAll queries every tab, each bounded by timeout when it is positive.
// A tab that errors or stalls, for instance on an open alert(), is skipped.
func inspectAll[P any](
	ctx context.Context,
	pages []P,
	timeout time.Duration,
	inspect func(context.Context, P) (tabState, error),
	logger *zap.Logger,
) []tabState {
	states := make([]tabState, 0, len(pages))
	for i, page := range pages {
		tabCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			tabCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		state, err := inspect(tabCtx, page)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Debug("Skipping tab", zap.Int("index", i), zap.Error(err))
			continue
		}
		states = append(states, state)
	}
	return states
}

func (b *Browser) inspect(ctx context.Context, page *rod.Page) (tabState, error) {
	page = page.Context(ctx)

	info, err := page.Info()
	if err != nil {
		return tabState{}, err
	}
	if string(info.Type) != "page" {
		return tabState{}, fmt.Errorf("target type %s", info.Type)
	}

	obj, err := page.Eval(focusScript)
	if err != nil {
		return tabState{}, err
	}

	return tabState{
		tab:     relay.Tab{ID: string(info.TargetID), URL: info.URL, Title: info.Title},
		visible: obj.Value.Get("visible").Bool(),
		focused: obj.Value.Get("focused").Bool(),
	}, nil
}

func pickActive(states []tabState) (relay.Tab, bool) {
	for _, s := range states {
		if s.visible && s.focused {
			return s.tab, true
		}
	}
	for _, s := range states {
		if s.visible {
			return s.tab, true
		}
	}
	return relay.Tab{}, false
}

// SendToTab implements relay.TabMessenger. Each message is answered by an
// extractor bound to the tab's live DOM.
func (b *Browser) SendToTab(ctx context.Context, tabID string, msg messaging.Message) (json.RawMessage, error) {
	page, err := b.rod.PageFromTarget(proto.TargetTargetID(tabID))
	if err != nil {
		return nil, fmt.Errorf("%w: tab %s: %v", messaging.ErrNoReceiver, tabID, err)
	}

	logger := b.logger.With(zap.String("tab_id", tabID))
	router := messaging.NewRouter("tab:"+tabID, logger)
	if err := extractor.New(&pageSource{page: page}, b.tp, logger).Register(router); err != nil {
		return nil, err
	}
	return router.Send(ctx, msg)
}

// pageSource reads a tab's URL and serialised DOM on demand
type pageSource struct {
	page *rod.Page
}

func (s *pageSource) URL(ctx context.Context) (*url.URL, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read tab info: %w", err)
	}
	return url.Parse(info.URL)
}

func (s *pageSource) Document(ctx context.Context) (*extractor.Document, error) {
	page := s.page.Context(ctx)
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read tab info: %w", err)
	}
	markup, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read tab DOM: %w", err)
	}
	return extractor.ParseDocument(info.URL, strings.NewReader(markup))
}
