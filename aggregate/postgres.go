package aggregate

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storewatch/models"
)

// PostgresClient reads rollups from the production database. It keeps its
// own small pool, separate from the recording path.
type PostgresClient struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, connString string) (*PostgresClient, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresClient{pool: pool}, nil
}

func (c *PostgresClient) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresClient) LatestStatuses(ctx context.Context) ([]StoreStatus, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT DISTINCT ON (s.id) s.name, s.url, s.platform,
			sc.is_online, sc.checked_at, sc.response_time_ms
		FROM stores s
		JOIN status_checks sc ON sc.store_id = s.id
		ORDER BY s.id, sc.checked_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []StoreStatus{}
	for rows.Next() {
		var st StoreStatus
		var respTime sql.NullInt64
		if err := rows.Scan(&st.Name, &st.URL, &st.Platform, &st.IsOnline, &st.CheckedAt, &respTime); err != nil {
			return nil, err
		}
		if respTime.Valid {
			st.ResponseTimeMS = &respTime.Int64
		}
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses, nil
}

func (c *PostgresClient) HourlyRollup(ctx context.Context, day time.Time) ([]HourlySlot, error) {
	start, end := DayBounds(day)

	rows, err := c.pool.Query(ctx, `
		SELECT EXTRACT(HOUR FROM (report_time AT TIME ZONE 'UTC') + INTERVAL '8 hours')::int AS hour,
			AVG(online_percentage),
			COUNT(*)
		FROM summary_reports
		WHERE report_time >= $1 AND report_time < $2
		GROUP BY hour
		ORDER BY hour`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []HourlySlot{}
	for rows.Next() {
		var h, runs int
		var avgOnline float64
		if err := rows.Scan(&h, &avgOnline, &runs); err != nil {
			return nil, err
		}
		online := math.Round(avgOnline)
		slots = append(slots, HourlySlot{
			Hour:       h,
			OnlinePct:  online,
			OfflinePct: 100 - online,
			Runs:       runs,
		})
	}
	return slots, rows.Err()
}

func (c *PostgresClient) DailyUptime(ctx context.Context, day time.Time) ([]StoreUptime, error) {
	start, end := DayBounds(day)

	rows, err := c.pool.Query(ctx, `
		SELECT s.name, s.platform,
			COUNT(sc.id),
			COUNT(sc.id) FILTER (WHERE sc.is_online)
		FROM stores s
		JOIN status_checks sc ON sc.store_id = s.id
		WHERE sc.checked_at >= $1 AND sc.checked_at < $2
		GROUP BY s.id, s.name, s.platform`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uptimes := []StoreUptime{}
	for rows.Next() {
		var u StoreUptime
		var platform models.Platform
		if err := rows.Scan(&u.Name, &platform, &u.ChecksToday, &u.OnlineChecks); err != nil {
			return nil, err
		}
		u.Platform = platform
		u.UptimePct = roundPct(u.OnlineChecks, u.ChecksToday)
		uptimes = append(uptimes, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(uptimes, func(i, j int) bool {
		if uptimes[i].UptimePct != uptimes[j].UptimePct {
			return uptimes[i].UptimePct > uptimes[j].UptimePct
		}
		return uptimes[i].Name < uptimes[j].Name
	})
	return uptimes, nil
}
