package relay

import (
	"context"
	"errors"

	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/messaging"
)

// ErrNoRuntime is returned when the UI runs without a background context
var ErrNoRuntime = errors.New("relay: runtime unavailable")

// Client is the UI-side view of the relay. It implements core.Extraction.
type Client struct {
	runtime messaging.Endpoint
	tabs    messaging.Endpoint
}

// NewClient creates a client. runtime reaches the background relay; tabs
// reaches the active tab's extractor. Either may be nil when the UI runs
// outside a browser.
func NewClient(runtime, tabs messaging.Endpoint) *Client {
	return &Client{runtime: runtime, tabs: tabs}
}

// ActiveTabURL implements core.Extraction
func (c *Client) ActiveTabURL(ctx context.Context) (string, error) {
	if c.runtime == nil {
		return "", ErrNoRuntime
	}
	reply, err := messaging.Call[messaging.ActiveTabReply](ctx, c.runtime, messaging.KindGetActiveTab)
	if err != nil {
		return "", err
	}
	return reply.URL, nil
}

// OpenEmail implements core.Extraction
func (c *Client) OpenEmail(ctx context.Context) (core.EmailRecord, error) {
	if c.tabs == nil {
		return core.EmailRecord{}, ErrNoRuntime
	}
	reply, err := messaging.Call[messaging.OpenEmailReply](ctx, c.tabs, messaging.KindGetOpenEmail)
	if err != nil {
		return core.EmailRecord{}, err
	}
	record := reply.Email
	if record.Provider == "" {
		record.Provider = reply.Provider
	}
	return record, nil
}

// PageSignals implements core.Extraction
func (c *Client) PageSignals(ctx context.Context) (core.PageSignals, error) {
	if c.tabs == nil {
		return core.PageSignals{}, ErrNoRuntime
	}
	reply, err := messaging.Call[messaging.PageSignalsReply](ctx, c.tabs, messaging.KindGetPageSignals)
	if err != nil {
		return core.PageSignals{}, err
	}
	return reply.Signals, nil
}
