package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// renderSession is one scoped rendering session. Fetch acquires a fresh
// session per probe and releases it on every exit path; sessions are never
// reused across stores.
type renderSession interface {
	Render(target string) (string, error)
	Close() error
}

// BrowserFetcher renders a client-side storefront page in an isolated
// headless Chromium session.
type BrowserFetcher struct {
	navTimeout  time.Duration
	settleDelay time.Duration
	launch      func() (renderSession, error)
}

func NewBrowser(navTimeout, settleDelay time.Duration) *BrowserFetcher {
	f := &BrowserFetcher{
		navTimeout:  navTimeout,
		settleDelay: settleDelay,
	}
	f.launch = f.launchChromium
	return f
}

func (f *BrowserFetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, &ProbeError{Reason: ReasonRenderError, ElapsedMS: elapsedMS(start), Err: err}
	}

	sess, err := f.launch()
	if err != nil {
		return nil, &ProbeError{Reason: ReasonRenderError, ElapsedMS: elapsedMS(start), Err: err}
	}
	defer sess.Close()

	content, err := sess.Render(target)
	if err != nil {
		reason := ReasonRenderError
		if strings.Contains(err.Error(), "Timeout") {
			reason = ReasonTimeout
		}
		return nil, &ProbeError{Reason: reason, ElapsedMS: elapsedMS(start), Err: err}
	}

	return &Result{Content: content, ElapsedMS: elapsedMS(start)}, nil
}

// chromiumSession owns a playwright runtime plus one launched browser; both
// are torn down together by Close.
type chromiumSession struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	navTimeout  time.Duration
	settleDelay time.Duration
}

func (f *BrowserFetcher) launchChromium() (renderSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, err
	}

	return &chromiumSession{
		pw:          pw,
		browser:     browser,
		navTimeout:  f.navTimeout,
		settleDelay: f.settleDelay,
	}, nil
}

func (s *chromiumSession) Render(target string) (string, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return "", err
	}

	_, err = page.Goto(target, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.navTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return "", err
	}

	// Give dynamic overlays time to finish rendering before inspection.
	page.WaitForTimeout(float64(s.settleDelay.Milliseconds()))

	return page.Content()
}

func (s *chromiumSession) Close() error {
	err := s.browser.Close()
	s.pw.Stop()
	return err
}
