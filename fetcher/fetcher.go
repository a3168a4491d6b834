package fetcher

import (
	"context"
)

// Result is a successful page fetch: the raw (or rendered) markup plus the
// time the fetch took.
type Result struct {
	Content   string
	ElapsedMS int64
}

// Reason tags why a probe failed. Failures are recorded as offline
// observations, never escalated; the tag ends up in error_message.
type Reason string

const (
	ReasonNetworkError Reason = "network-error"
	ReasonHTTPError    Reason = "http-error"
	ReasonTimeout      Reason = "timeout"
	ReasonRenderError  Reason = "render-error"
)

// ProbeError is a failed fetch. Elapsed time is still measured so the check
// row keeps a response time even for failures.
type ProbeError struct {
	Reason    Reason
	ElapsedMS int64
	Err       error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return string(e.Reason) + ": " + e.Err.Error()
	}
	return string(e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves a storefront page. Implementations do not retry: a
// failed probe is itself a meaningful offline signal.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}
