package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storewatch/models"
)

// PostgresStore is the production recording backend, selected when
// DATABASE_URL is set. Semantics match SQLiteStore: one transaction per run,
// retried writes, first-write-wins store registration.
type PostgresStore struct {
	pool  *pgxpool.Pool
	retry RetryPolicy
}

func NewPostgres(ctx context.Context, connString string, retry RetryPolicy) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// The monitor probes sequentially; a small pool is plenty.
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool, retry: withPgRetryable(retry)}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		platform TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS status_checks (
		id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL REFERENCES stores(id),
		is_online BOOLEAN NOT NULL,
		checked_at TIMESTAMPTZ NOT NULL,
		response_time_ms INTEGER,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS summary_reports (
		id BIGSERIAL PRIMARY KEY,
		total_stores INTEGER NOT NULL,
		online_stores INTEGER NOT NULL,
		offline_stores INTEGER NOT NULL,
		online_percentage DOUBLE PRECISION NOT NULL,
		report_time TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checks_store_time ON status_checks(store_id, checked_at);
	CREATE INDEX IF NOT EXISTS idx_checks_time ON status_checks(checked_at);
	CREATE INDEX IF NOT EXISTS idx_reports_time ON summary_reports(report_time);
	`
	return s.retry.Do("migrate", func() error {
		_, err := s.pool.Exec(ctx, schema)
		return err
	})
}

func (s *PostgresStore) ResolveStore(ctx context.Context, url string, nameFn func() string) (models.Store, error) {
	var store models.Store
	selectStore := func() error {
		return s.pool.QueryRow(ctx, `
			SELECT id, name, url, platform, created_at
			FROM stores WHERE url = $1`, url).
			Scan(&store.ID, &store.Name, &store.URL, &store.Platform, &store.CreatedAt)
	}

	err := s.retry.Do("resolve store", func() error {
		err := selectStore()
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		store = models.Store{
			Name:      nameFn(),
			URL:       url,
			Platform:  models.PlatformForURL(url),
			CreatedAt: time.Now().UTC(),
		}
		err = s.pool.QueryRow(ctx, `
			INSERT INTO stores (name, url, platform, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (url) DO NOTHING
			RETURNING id`,
			store.Name, store.URL, store.Platform, store.CreatedAt).Scan(&store.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost an insert race; the row exists now.
			return selectStore()
		}
		return err
	})
	return store, err
}

func (s *PostgresStore) RecordRun(ctx context.Context, checks []models.StatusCheck, summary models.SummaryReport) error {
	return s.retry.Do("record run", func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, c := range checks {
			_, err := tx.Exec(ctx, `
				INSERT INTO status_checks (store_id, is_online, checked_at, response_time_ms, error_message)
				VALUES ($1, $2, $3, $4, NULLIF($5, ''))`,
				c.StoreID, c.IsOnline, c.CheckedAt.UTC(), c.ResponseTimeMS, c.ErrorMessage)
			if err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO summary_reports (total_stores, online_stores, offline_stores, online_percentage, report_time)
			VALUES ($1, $2, $3, $4, $5)`,
			summary.TotalStores, summary.OnlineStores, summary.OfflineStores,
			summary.OnlinePercentage, summary.ReportTime.UTC())
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}

// withPgRetryable swaps in the Postgres contention matcher. Callers hand in
// policies tuned for the default engine, so the matcher is always replaced,
// never merely defaulted.
func withPgRetryable(retry RetryPolicy) RetryPolicy {
	retry.Retryable = isPgContention
	return retry
}

// isPgContention matches serialization, deadlock, and lock-timeout failures.
func isPgContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}
