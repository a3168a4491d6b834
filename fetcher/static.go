package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"storewatch/httputil"
)

// StaticFetcher does a single desktop-UA GET against a server-rendered
// storefront page. Any non-2xx status, connection error, or timeout is a
// probe failure.
type StaticFetcher struct {
	client *http.Client
}

func NewStatic(timeout time.Duration) *StaticFetcher {
	return &StaticFetcher{client: httputil.NewScrapingClient(timeout)}
}

func (f *StaticFetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	start := time.Now()

	req, err := httputil.NewRequest(ctx, target)
	if err != nil {
		return nil, &ProbeError{Reason: ReasonNetworkError, ElapsedMS: elapsedMS(start), Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		reason := ReasonNetworkError
		if isTimeout(err) {
			reason = ReasonTimeout
		}
		return nil, &ProbeError{Reason: reason, ElapsedMS: elapsedMS(start), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := elapsedMS(start)
	if err != nil {
		return nil, &ProbeError{Reason: ReasonNetworkError, ElapsedMS: elapsed, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProbeError{
			Reason:    ReasonHTTPError,
			ElapsedMS: elapsed,
			Err:       fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	return &Result{Content: string(body), ElapsedMS: elapsed}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Timeout()
	}
	return false
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
