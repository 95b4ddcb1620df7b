// Package relay is the privileged background context. It answers questions
// about the browser's tabs and routes messages to the content extractor of
// whichever tab is active.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/messaging"
)

// ErrNoActiveTab is returned when the focused window has no active tab
var ErrNoActiveTab = errors.New("relay: no active tab")

// Tab is a browser tab as known to the tab registry
type Tab struct {
	ID    string
	URL   string
	Title string
}

// TabRegistry answers which tab is active in the focused window
type TabRegistry interface {
	ActiveTab(ctx context.Context) (Tab, error)
}

// TabMessenger delivers a message to the content extractor of a tab
type TabMessenger interface {
	SendToTab(ctx context.Context, tabID string, msg messaging.Message) (json.RawMessage, error)
}

// Background is the background relay
type Background struct {
	tabs      TabRegistry
	messenger TabMessenger
	logger    *zap.Logger
}

// NewBackground creates the relay over a tab registry and messenger
func NewBackground(tabs TabRegistry, messenger TabMessenger, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Background{
		tabs:      tabs,
		messenger: messenger,
		logger:    logger,
	}
}

// Register installs the GET_ACTIVE_TAB listener on the runtime router
func (b *Background) Register(r *messaging.Router) error {
	return messaging.Handle(r, messaging.KindGetActiveTab, func(ctx context.Context, msg messaging.Message) *messaging.Future[messaging.ActiveTabReply] {
		f := messaging.NewFuture[messaging.ActiveTabReply]()
		go func() {
			f.Resolve(messaging.ActiveTabReply{URL: b.ActiveTabURL(ctx)})
		}()
		return f
	})
}

// ActiveTabURL returns the active tab's URL, or an empty string when there is
// no active tab or the registry query fails. Failures are logged, not returned.
func (b *Background) ActiveTabURL(ctx context.Context) string {
	tab, err := b.tabs.ActiveTab(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveTab) {
			b.logger.Debug("No active tab")
		} else {
			b.logger.Warn("Failed to query active tab", zap.Error(err))
		}
		return ""
	}
	return tab.URL
}

// SendToActiveTab resolves the active tab and delivers msg to its extractor.
// The tab is looked up again on every call.
func (b *Background) SendToActiveTab(ctx context.Context, msg messaging.Message) (json.RawMessage, error) {
	tab, err := b.tabs.ActiveTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active tab: %w", err)
	}
	if tab.ID == "" {
		return nil, ErrNoActiveTab
	}

	b.logger.Debug("Forwarding message to tab",
		zap.String("tab_id", tab.ID),
		zap.String("type", string(msg.Type)),
		zap.String("id", msg.ID))

	return b.messenger.SendToTab(ctx, tab.ID, msg)
}

// ActiveTabEndpoint returns an endpoint that forwards to the active tab
func (b *Background) ActiveTabEndpoint() messaging.Endpoint {
	return activeTabEndpoint{b: b}
}

type activeTabEndpoint struct {
	b *Background
}

func (e activeTabEndpoint) Send(ctx context.Context, msg messaging.Message) (json.RawMessage, error) {
	return e.b.SendToActiveTab(ctx, msg)
}
