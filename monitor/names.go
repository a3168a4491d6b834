package monitor

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"storewatch/httputil"
)

// nameResolver scrapes a display name from a storefront page. It only runs
// on a store's first sighting; after that the registered name is reused.
type nameResolver struct {
	client *http.Client
}

func newNameResolver(client *http.Client) *nameResolver {
	return &nameResolver{client: client}
}

// Resolve is best-effort: any scrape failure falls back to a name derived
// from the URL slug, so registration never blocks on a flaky page.
func (n *nameResolver) Resolve(ctx context.Context, url string) string {
	if name := n.scrapeTitle(ctx, url); name != "" {
		return name
	}
	return slugToTitle(url)
}

func (n *nameResolver) scrapeTitle(ctx context.Context, url string) string {
	req, err := httputil.NewRequest(ctx, url)
	if err != nil {
		return ""
	}
	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("name scrape %s: %v", url, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	// Block pages render a heading too; never register one as a store name.
	if title == "" || strings.Contains(strings.ToLower(title), "403 error") {
		return ""
	}
	return title
}

// slugToTitle turns the last URL path segment into a readable name:
// ".../mang-inasal-bacoor" becomes "Mang Inasal Bacoor".
func slugToTitle(url string) string {
	slug := strings.TrimRight(url, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	if i := strings.IndexAny(slug, "?#"); i >= 0 {
		slug = slug[:i]
	}

	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	name := strings.TrimSpace(strings.Join(words, " "))
	if name == "" {
		return url
	}
	return name
}
