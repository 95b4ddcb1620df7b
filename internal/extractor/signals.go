package extractor

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/utils"
)

var (
	titleSel    = cascadia.MustCompile("title")
	bodySel     = cascadia.MustCompile("body")
	baseSel     = cascadia.MustCompile("base[href]")
	passwordSel = cascadia.MustCompile(`input[type="password"]`)
	anchorSel   = cascadia.MustCompile("a[href]")
)

// collectPageSignals computes PageSignals from the document. It never fails:
// a document without title or body simply yields empty strings.
func collectPageSignals(doc *Document, tp *utils.TextProcessor) core.PageSignals {
	if doc == nil || doc.Root == nil {
		return core.PageSignals{}
	}

	signals := core.PageSignals{
		HasPasswordForm: cascadia.Query(doc.Root, passwordSel) != nil,
		LinkCount:       countWebLinks(doc),
	}

	if title := cascadia.Query(doc.Root, titleSel); title != nil {
		signals.Title = tp.CollapseSpace(textContent(title))
	}

	if body := cascadia.Query(doc.Root, bodySel); body != nil {
		text := tp.SanitizeUTF8(renderedText(body, tp))
		signals.TextSample = tp.TruncateRunes(text, core.MaxTextSample)
	}

	return signals
}

// countWebLinks counts anchors whose resolved href uses the http or https scheme
func countWebLinks(doc *Document) int {
	base := doc.URL
	if b := cascadia.Query(doc.Root, baseSel); b != nil {
		if ref, err := url.Parse(strings.TrimSpace(attr(b, "href"))); err == nil {
			if base != nil {
				base = base.ResolveReference(ref)
			} else {
				base = ref
			}
		}
	}

	count := 0
	for _, a := range cascadia.QueryAll(doc.Root, anchorSel) {
		ref, err := url.Parse(strings.TrimSpace(attr(a, "href")))
		if err != nil {
			continue
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		switch strings.ToLower(ref.Scheme) {
		case "http", "https":
			count++
		}
	}
	return count
}

// textContent concatenates every descendant text node, rendered or not
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
