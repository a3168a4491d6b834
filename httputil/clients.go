package httputil

import (
	"context"
	"net/http"
	"time"
)

// UserAgent is sent on every static-page probe. Storefront CDNs serve the
// desktop markup we classify against, so this must look like a real browser.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/115.0.0.0 Safari/537.36"

// NewScrapingClient builds the client used for static storefront fetches.
func NewScrapingClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// NewRequest builds a GET request with the scraping user agent set.
func NewRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}
