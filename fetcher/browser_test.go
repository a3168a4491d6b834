package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"storewatch/classify"
	"storewatch/models"
)

type fakeSession struct {
	content string
	err     error
	renders int
	closes  int
}

func (s *fakeSession) Render(target string) (string, error) {
	s.renders++
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

func newFakeBrowser(sess *fakeSession, launchErr error) (*BrowserFetcher, *int) {
	launches := 0
	f := NewBrowser(60*time.Second, 3*time.Second)
	f.launch = func() (renderSession, error) {
		launches++
		if launchErr != nil {
			return nil, launchErr
		}
		return sess, nil
	}
	return f, &launches
}

func TestBrowserFetch_SessionClosedOnceOnSuccess(t *testing.T) {
	sess := &fakeSession{content: "<html><body><h1>Alpha</h1></body></html>"}
	f, _ := newFakeBrowser(sess, nil)

	res, err := f.Fetch(context.Background(), "https://www.foodpanda.ph/restaurant/b1/alpha")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Content != sess.content {
		t.Fatalf("unexpected content %q", res.Content)
	}
	if sess.closes != 1 {
		t.Fatalf("expected exactly 1 close, got %d", sess.closes)
	}

	// A page with no closed marker stays online after a clean session.
	if verdict := classify.Classify(res.Content, models.PlatformFoodpanda); !verdict.Online {
		t.Fatalf("expected online verdict, got offline: %s", verdict.Reason)
	}
}

func TestBrowserFetch_SessionClosedOnceOnClosedStore(t *testing.T) {
	sess := &fakeSession{content: "<html><body><p>Temporarily unavailable</p></body></html>"}
	f, _ := newFakeBrowser(sess, nil)

	res, err := f.Fetch(context.Background(), "https://www.foodpanda.ph/restaurant/b1/alpha")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if sess.closes != 1 {
		t.Fatalf("expected exactly 1 close, got %d", sess.closes)
	}
	if verdict := classify.Classify(res.Content, models.PlatformFoodpanda); verdict.Online {
		t.Fatal("expected offline verdict for closed marker")
	}
}

func TestBrowserFetch_SessionClosedOnceOnRenderError(t *testing.T) {
	sess := &fakeSession{err: errors.New("net::ERR_CONNECTION_RESET")}
	f, _ := newFakeBrowser(sess, nil)

	_, err := f.Fetch(context.Background(), "https://www.foodpanda.ph/restaurant/b1/alpha")
	if err == nil {
		t.Fatal("expected render error")
	}

	var perr *ProbeError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if perr.Reason != ReasonRenderError {
		t.Fatalf("expected reason %s, got %s", ReasonRenderError, perr.Reason)
	}
	if sess.closes != 1 {
		t.Fatalf("expected exactly 1 close, got %d", sess.closes)
	}
}

func TestBrowserFetch_NavigationTimeoutReason(t *testing.T) {
	sess := &fakeSession{err: errors.New("Timeout 60000ms exceeded")}
	f, _ := newFakeBrowser(sess, nil)

	_, err := f.Fetch(context.Background(), "https://www.foodpanda.ph/restaurant/b1/alpha")

	var perr *ProbeError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if perr.Reason != ReasonTimeout {
		t.Fatalf("expected reason %s, got %s", ReasonTimeout, perr.Reason)
	}
	if sess.closes != 1 {
		t.Fatalf("expected exactly 1 close, got %d", sess.closes)
	}
}

func TestBrowserFetch_LaunchFailure(t *testing.T) {
	f, launches := newFakeBrowser(nil, errors.New("chromium not installed"))

	_, err := f.Fetch(context.Background(), "https://www.foodpanda.ph/restaurant/b1/alpha")
	if err == nil {
		t.Fatal("expected launch error")
	}
	if *launches != 1 {
		t.Fatalf("expected 1 launch attempt, got %d", *launches)
	}

	var perr *ProbeError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if perr.Reason != ReasonRenderError {
		t.Fatalf("expected reason %s, got %s", ReasonRenderError, perr.Reason)
	}
}

func TestBrowserFetch_CanceledContextSkipsLaunch(t *testing.T) {
	sess := &fakeSession{content: "ignored"}
	f, launches := newFakeBrowser(sess, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "https://www.foodpanda.ph/restaurant/b1/alpha")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if *launches != 0 {
		t.Fatalf("expected no launches, got %d", *launches)
	}
	if sess.closes != 0 {
		t.Fatalf("expected no closes, got %d", sess.closes)
	}
}
