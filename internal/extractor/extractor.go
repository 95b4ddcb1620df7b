// Package extractor is the content extractor injected into each tab. It
// answers GET_PAGE_SIGNALS and GET_OPEN_EMAIL from the page's DOM; it never
// touches the network and keeps no state between requests.
package extractor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/messaging"
	"github.com/mikey/phishlens/internal/utils"
)

// Extractor computes page signals and reads open emails for one tab
type Extractor struct {
	source    DocumentSource
	providers []Provider
	tp        *utils.TextProcessor
	logger    *zap.Logger
}

// New creates an extractor over source. When no providers are given, Gmail is used.
func New(source DocumentSource, tp *utils.TextProcessor, logger *zap.Logger, providers ...Provider) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tp == nil {
		tp = utils.NewTextProcessor(logger)
	}
	if len(providers) == 0 {
		providers = []Provider{NewGmail(tp)}
	}
	return &Extractor{
		source:    source,
		providers: providers,
		tp:        tp,
		logger:    logger,
	}
}

// PageSignals captures the DOM and summarises it
func (e *Extractor) PageSignals(ctx context.Context) (core.PageSignals, error) {
	doc, err := e.source.Document(ctx)
	if err != nil {
		return core.PageSignals{}, fmt.Errorf("failed to capture page: %w", err)
	}
	return collectPageSignals(doc, e.tp), nil
}

// OpenEmail reads the open email when the page belongs to a known provider.
// For any other page it returns an unknown record without inspecting the DOM.
func (e *Extractor) OpenEmail(ctx context.Context) (core.EmailRecord, error) {
	u, err := e.source.URL(ctx)
	if err != nil {
		return core.EmailRecord{}, fmt.Errorf("failed to read page url: %w", err)
	}

	host := (&Document{URL: u}).Host()
	for _, p := range e.providers {
		if !p.Matches(host) {
			continue
		}

		doc, err := e.source.Document(ctx)
		if err != nil {
			return core.EmailRecord{}, fmt.Errorf("failed to capture page: %w", err)
		}
		record := p.Extract(doc)
		e.logger.Debug("Extracted open email",
			zap.String("provider", record.Provider),
			zap.Bool("has_sender", record.Sender != ""),
			zap.Bool("has_subject", record.Subject != ""),
			zap.Bool("has_body", record.Body != ""))
		return record, nil
	}

	return core.UnknownEmail(), nil
}

// Register installs the extractor's listeners on the tab's router
func (e *Extractor) Register(r *messaging.Router) error {
	err := messaging.Handle(r, messaging.KindGetPageSignals, func(ctx context.Context, msg messaging.Message) *messaging.Future[messaging.PageSignalsReply] {
		f := messaging.NewFuture[messaging.PageSignalsReply]()
		go func() {
			signals, err := e.PageSignals(ctx)
			if err != nil {
				f.Reject(err)
				return
			}
			f.Resolve(messaging.PageSignalsReply{Signals: signals})
		}()
		return f
	})
	if err != nil {
		return err
	}

	return messaging.Handle(r, messaging.KindGetOpenEmail, func(ctx context.Context, msg messaging.Message) *messaging.Future[messaging.OpenEmailReply] {
		f := messaging.NewFuture[messaging.OpenEmailReply]()
		go func() {
			record, err := e.OpenEmail(ctx)
			if err != nil {
				f.Reject(err)
				return
			}
			f.Resolve(messaging.OpenEmailReply{Provider: record.Provider, Email: record})
		}()
		return f
	})
}
