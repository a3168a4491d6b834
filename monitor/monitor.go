// Package monitor runs a full probe cycle: resolve each store, fetch its
// page, classify it, persist the run atomically, and deliver the digest.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storewatch/aggregate"
	"storewatch/classify"
	"storewatch/config"
	"storewatch/fetcher"
	"storewatch/httputil"
	"storewatch/models"
	"storewatch/notify"
	"storewatch/report"
	"storewatch/storage"
)

// Runner probes stores sequentially. One Runner instance serves every run
// in a daemon process; runs never overlap.
type Runner struct {
	store    storage.Store
	static   fetcher.Fetcher
	browser  fetcher.Fetcher
	notifier notify.Notifier

	probeDelay    time.Duration
	notifyRetries int
	notifyDelay   time.Duration

	names *nameResolver
	sleep func(time.Duration)
	now   func() time.Time
}

// Outcome carries what a run produced. It is populated even when digest
// delivery fails, because the run's data has already been committed.
type Outcome struct {
	RunID   string
	Summary models.SummaryReport
	Results []models.StoreResult
	Digest  string
}

// NotificationError means the run's data was recorded but the digest could
// not be delivered within the retry budget.
type NotificationError struct {
	Attempts int
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("digest delivery failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// New wires a Runner from the monitor configuration. notifier may be nil,
// in which case the digest is built but not delivered.
func New(cfg config.MonitorConfig, store storage.Store, notifier notify.Notifier) *Runner {
	staticTimeout := time.Duration(cfg.StaticTimeoutSec) * time.Second
	return &Runner{
		store:         store,
		static:        fetcher.NewStatic(staticTimeout),
		browser:       fetcher.NewBrowser(time.Duration(cfg.BrowserTimeoutSec)*time.Second, time.Duration(cfg.SettleDelayMS)*time.Millisecond),
		notifier:      notifier,
		probeDelay:    time.Duration(cfg.ProbeDelayMS) * time.Millisecond,
		notifyRetries: cfg.NotifyRetries,
		notifyDelay:   time.Duration(cfg.NotifyDelaySec) * time.Second,
		names:         newNameResolver(httputil.NewScrapingClient(staticTimeout)),
		sleep:         time.Sleep,
		now:           time.Now,
	}
}

// Run executes one monitoring cycle over urls. A persistence failure aborts
// the run with nothing committed; a delivery failure returns the outcome
// alongside a NotificationError.
func (r *Runner) Run(ctx context.Context, urls []string) (*Outcome, error) {
	runID := uuid.NewString()[:8]
	log.Printf("[run %s] checking %d store(s)", runID, len(urls))
	started := r.now()

	var checks []models.StatusCheck
	var results []models.StoreResult
	online, offline := 0, 0

	for i, url := range urls {
		if i > 0 && r.probeDelay > 0 {
			r.sleep(r.probeDelay)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		store, err := r.store.ResolveStore(ctx, url, func() string {
			return r.names.Resolve(ctx, url)
		})
		if err != nil {
			return nil, fmt.Errorf("[run %s] resolve %s: %w", runID, url, err)
		}

		check := r.probe(ctx, store)
		checks = append(checks, check)
		results = append(results, models.StoreResult{
			Name:     store.Name,
			URL:      store.URL,
			IsOnline: check.IsOnline,
		})
		if check.IsOnline {
			online++
		} else {
			offline++
			log.Printf("[run %s] OFFLINE %s: %s", runID, store.Name, check.ErrorMessage)
		}
	}

	summary := models.NewSummary(online, offline, r.now().UTC())
	if err := r.store.RecordRun(ctx, checks, summary); err != nil {
		return nil, fmt.Errorf("[run %s] record: %w", runID, err)
	}

	outcome := &Outcome{
		RunID:   runID,
		Summary: summary,
		Results: results,
		Digest:  report.Build(results, summary.ReportTime.In(aggregate.ReportZone)),
	}
	log.Printf("[run %s] done in %s: %d/%d online (%.1f%%)",
		runID, r.now().Sub(started).Round(time.Millisecond),
		online, summary.TotalStores, summary.OnlinePercentage)

	if r.notifier != nil {
		if err := r.deliver(ctx, outcome.Digest); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// probe fetches and classifies one store. Failures are facts, not errors:
// they become an offline check carrying the failure reason.
func (r *Runner) probe(ctx context.Context, store models.Store) models.StatusCheck {
	check := models.StatusCheck{
		StoreID:   store.ID,
		CheckedAt: r.now().UTC(),
	}

	f := r.static
	if store.Platform.Rendered() {
		f = r.browser
	}

	res, err := f.Fetch(ctx, store.URL)
	if err != nil {
		check.IsOnline = false
		var perr *fetcher.ProbeError
		if errors.As(err, &perr) {
			ms := perr.ElapsedMS
			check.ResponseTimeMS = &ms
			check.ErrorMessage = string(perr.Reason)
		} else {
			check.ErrorMessage = err.Error()
		}
		return check
	}

	ms := res.ElapsedMS
	check.ResponseTimeMS = &ms

	verdict := classify.Classify(res.Content, store.Platform)
	check.IsOnline = verdict.Online
	if !verdict.Online {
		check.ErrorMessage = verdict.Reason
	}
	return check
}

func (r *Runner) deliver(ctx context.Context, digest string) error {
	attempts := r.notifyRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = r.notifier.Send(ctx, report.Subject, digest)
		if lastErr == nil {
			return nil
		}
		log.Printf("digest delivery failed (attempt %d/%d): %v", attempt, attempts, lastErr)
		if attempt < attempts {
			r.sleep(r.notifyDelay)
		}
	}
	return &NotificationError{Attempts: attempts, Err: lastErr}
}
