package storage

import (
	"context"
	"fmt"

	"storewatch/models"
)

// Store is the single writer of the monitoring schema. Readers use the
// aggregate package instead.
type Store interface {
	// ResolveStore returns the durable identity for a storefront URL,
	// registering it on first sighting. nameFn is invoked only when a new
	// row is needed, so callers can skip the name scrape for known stores.
	// Name and platform are never updated after creation.
	ResolveStore(ctx context.Context, url string, nameFn func() string) (models.Store, error)

	// RecordRun writes all of a run's status checks plus its summary row as
	// one atomic unit. Partial runs are never visible to readers.
	RecordRun(ctx context.Context, checks []models.StatusCheck, summary models.SummaryReport) error

	Close() error
}

// PersistenceError is a write that failed after its retry budget, or an
// unrecoverable mid-run failure. The run's transaction has been rolled back.
type PersistenceError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
