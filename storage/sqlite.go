package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"storewatch/models"
)

// SQLiteStore records probe facts in a local SQLite database. The database
// is a single-writer resource: one connection is held for the whole run and
// every write goes through the retry policy.
type SQLiteStore struct {
	db    *sql.DB
	retry RetryPolicy
}

func NewSQLite(dbPath string, retry RetryPolicy) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, retry: retry}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate is idempotent and safe against an already-initialized database.
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		platform TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS status_checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(id),
		is_online BOOLEAN NOT NULL,
		checked_at DATETIME NOT NULL,
		response_time_ms INTEGER,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS summary_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		total_stores INTEGER NOT NULL,
		online_stores INTEGER NOT NULL,
		offline_stores INTEGER NOT NULL,
		online_percentage REAL NOT NULL,
		report_time DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checks_store_time ON status_checks(store_id, checked_at);
	CREATE INDEX IF NOT EXISTS idx_checks_time ON status_checks(checked_at);
	CREATE INDEX IF NOT EXISTS idx_reports_time ON summary_reports(report_time);
	`
	return s.retry.Do("migrate", func() error {
		_, err := s.db.Exec(schema)
		return err
	})
}

func (s *SQLiteStore) ResolveStore(ctx context.Context, url string, nameFn func() string) (models.Store, error) {
	var store models.Store
	err := s.retry.Do("resolve store", func() error {
		err := s.db.QueryRowContext(ctx, `
			SELECT id, name, url, platform, created_at
			FROM stores WHERE url = ?`, url).
			Scan(&store.ID, &store.Name, &store.URL, &store.Platform, &store.CreatedAt)
		if err == nil {
			return nil
		}
		if err != sql.ErrNoRows {
			return err
		}

		// First sighting: platform and name are fixed here, forever.
		store = models.Store{
			Name:      nameFn(),
			URL:       url,
			Platform:  models.PlatformForURL(url),
			CreatedAt: time.Now().UTC(),
		}
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO stores (name, url, platform, created_at)
			VALUES (?, ?, ?, ?)`,
			store.Name, store.URL, store.Platform, store.CreatedAt)
		if err != nil {
			return err
		}
		store.ID, err = res.LastInsertId()
		return err
	})
	return store, err
}

func (s *SQLiteStore) RecordRun(ctx context.Context, checks []models.StatusCheck, summary models.SummaryReport) error {
	return s.retry.Do("record run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, c := range checks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO status_checks (store_id, is_online, checked_at, response_time_ms, error_message)
				VALUES (?, ?, ?, ?, ?)`,
				c.StoreID, c.IsOnline, c.CheckedAt.UTC(), c.ResponseTimeMS, nullString(c.ErrorMessage))
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO summary_reports (total_stores, online_stores, offline_stores, online_percentage, report_time)
			VALUES (?, ?, ?, ?, ?)`,
			summary.TotalStores, summary.OnlineStores, summary.OfflineStores,
			summary.OnlinePercentage, summary.ReportTime.UTC())
		if err != nil {
			return err
		}

		return tx.Commit()
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
