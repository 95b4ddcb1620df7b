package extractor

import (
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

// Provider is a webmail integration able to read the open message of a page.
// Supporting a new webmail means adding a Provider, not branching the extractor.
type Provider interface {
	// Name is reported as EmailRecord.Provider
	Name() string

	// Matches reports whether the page host belongs to this provider
	Matches(host string) bool

	// Extract reads the open email. Fields the page does not expose are empty.
	Extract(doc *Document) core.EmailRecord
}

// Gmail reads the message open in Gmail's reading view. It does not check
// that a message is actually open: on the inbox list it returns whatever
// (usually empty) matches the selectors find.
type Gmail struct {
	tp      *utils.TextProcessor
	sender  cascadia.Selector
	subject cascadia.Selector
	body    cascadia.Selector
}

// NewGmail creates the Gmail provider with its fixed selector set
func NewGmail(tp *utils.TextProcessor) *Gmail {
	return &Gmail{
		tp:      tp,
		sender:  cascadia.MustCompile("span.gD, span.go"),
		subject: cascadia.MustCompile("h2.hP"),
		body:    cascadia.MustCompile("div.a3s"),
	}
}

// Name implements Provider
func (g *Gmail) Name() string {
	return core.ProviderGmail
}

// Matches implements Provider
func (g *Gmail) Matches(host string) bool {
	return strings.Contains(strings.ToLower(host), "mail.google.com")
}

// Extract implements Provider
func (g *Gmail) Extract(doc *Document) core.EmailRecord {
	return core.EmailRecord{
		Provider: g.Name(),
		Sender:   g.firstText(doc, g.sender),
		Subject:  g.firstText(doc, g.subject),
		Body:     g.firstText(doc, g.body),
	}
}

func (g *Gmail) firstText(doc *Document, sel cascadia.Selector) string {
	if doc == nil || doc.Root == nil {
		return ""
	}
	n := cascadia.Query(doc.Root, sel)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(g.tp.SanitizeUTF8(renderedText(n, g.tp)))
}
