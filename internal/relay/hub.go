package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/messaging"
)

// Hub is an in-memory tab registry. Each tab may carry the router its
// content extractor listens on; a tab without one behaves like a page the
// extractor was never injected into.
type Hub struct {
	mu     sync.RWMutex
	tabs   map[string]*hubTab
	active string
	logger *zap.Logger
}

type hubTab struct {
	tab      Tab
	listener *messaging.Router
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		tabs:   make(map[string]*hubTab),
		logger: logger,
	}
}

// Open adds a tab and makes it active
func (h *Hub) Open(tab Tab, listener *messaging.Router) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tabs[tab.ID] = &hubTab{tab: tab, listener: listener}
	h.active = tab.ID
	h.logger.Debug("Tab opened", zap.String("tab_id", tab.ID), zap.String("url", tab.URL))
}

// Activate focuses an existing tab
func (h *Hub) Activate(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.tabs[id]; !ok {
		return fmt.Errorf("unknown tab %q", id)
	}
	h.active = id
	return nil
}

// Navigate changes a tab's URL
func (h *Hub) Navigate(id, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tabs[id]
	if !ok {
		return fmt.Errorf("unknown tab %q", id)
	}
	t.tab.URL = url
	return nil
}

// Close removes a tab. Closing the active tab leaves no tab active.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.tabs, id)
	if h.active == id {
		h.active = ""
	}
}

// ActiveTab implements TabRegistry
func (h *Hub) ActiveTab(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.tabs[h.active]
	if !ok {
		return Tab{}, ErrNoActiveTab
	}
	return t.tab, nil
}

// SendToTab implements TabMessenger
func (h *Hub) SendToTab(ctx context.Context, tabID string, msg messaging.Message) (json.RawMessage, error) {
	h.mu.RLock()
	t, ok := h.tabs[tabID]
	h.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown tab %q", tabID)
	}
	if t.listener == nil {
		return nil, fmt.Errorf("%w: tab %s has no listener", messaging.ErrNoReceiver, tabID)
	}
	return t.listener.Send(ctx, msg)
}
