package storage

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// RetryPolicy bounds retries against the single-writer engine. Backoff and
// Sleep are injectable so tests can exercise the policy without real delays.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       func(time.Duration)
	Retryable   func(error) bool
}

// LinearBackoff waits attempt-index seconds between attempts: 1s, 2s, 3s...
func LinearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * time.Second
}

// DefaultRetryPolicy matches the production write path: 5 attempts with
// linearly increasing backoff, retrying only busy-store conditions.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Backoff:     LinearBackoff,
		Sleep:       time.Sleep,
		Retryable:   IsBusy,
	}
}

// Do runs fn, retrying transient failures per the policy. Failures surface
// as a PersistenceError once the budget is spent or the error is not
// retryable.
func (p RetryPolicy) Do(op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsBusy
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return &PersistenceError{Op: op, Attempts: attempt, Err: err}
		}
		if attempt < attempts {
			log.Printf("%s: store busy (attempt %d/%d), backing off", op, attempt, attempts)
			if p.Backoff != nil {
				sleep(p.Backoff(attempt))
			}
		}
	}
	return &PersistenceError{Op: op, Attempts: attempts, Err: err}
}

// IsBusy reports whether err is SQLite's transient write-contention error.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return strings.Contains(err.Error(), "database is locked")
}
