package classify

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"storewatch/models"
)

// Result is the classification of a fetched page.
type Result struct {
	Online bool
	Reason string
}

// Keywords that mark a storefront as closed when they appear in the status
// banner region of a static page. Matched case-insensitively as substrings.
var bannerClosedKeywords = []string{
	"closed",
	"temporarily unavailable",
	"not available",
}

// Overlay fragments foodpanda renders when a store is not taking orders.
var renderedClosedMarkers = []string{
	"Temporarily unavailable",
	"Closed for now",
	"Out of delivery area",
}

// Classify maps page content to online/offline. The rules are deliberately
// conservative toward online: silence means open, so a page with no
// recognized closed indicator always classifies online.
func Classify(content string, platform models.Platform) Result {
	if platform.Rendered() {
		return classifyRendered(content)
	}
	return classifyStatic(content)
}

func classifyStatic(content string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// Unparseable markup is not evidence of closure.
		return Result{Online: true}
	}

	// 1. Status banner keyword scan
	if banner := doc.Find(".status-banner").First(); banner.Length() > 0 {
		text := strings.ToLower(strings.TrimSpace(banner.Text()))
		for _, kw := range bannerClosedKeywords {
			if strings.Contains(text, kw) {
				return Result{Online: false, Reason: "status banner shows " + kw}
			}
		}
	}

	// 2. Exact "closed" token on any block-level element
	closed := false
	doc.Find("div, span, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.Text()), "closed") {
			closed = true
			return false
		}
		return true
	})
	if closed {
		return Result{Online: false, Reason: "page shows closed"}
	}

	// 3. No closed indicator
	return Result{Online: true}
}

func classifyRendered(content string) Result {
	for _, marker := range renderedClosedMarkers {
		if strings.Contains(content, marker) {
			return Result{Online: false, Reason: "store shows as closed"}
		}
	}
	return Result{Online: true}
}
