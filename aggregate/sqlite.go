package aggregate

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"storewatch/models"
)

// SQLiteClient reads rollups from the local monitoring database over its own
// connection, independent of the writer.
type SQLiteClient struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_query_only=true")
	if err != nil {
		return nil, err
	}
	return &SQLiteClient{db: db}, nil
}

func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

func (c *SQLiteClient) LatestStatuses(ctx context.Context) ([]StoreStatus, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT s.name, s.url, s.platform, sc.is_online, sc.checked_at, sc.response_time_ms
		FROM stores s
		JOIN status_checks sc ON sc.store_id = s.id
		JOIN (
			SELECT store_id, MAX(checked_at) AS latest_check
			FROM status_checks
			GROUP BY store_id
		) latest ON sc.store_id = latest.store_id AND sc.checked_at = latest.latest_check
		ORDER BY s.name`)
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
	return statuses, rows.Err()
}

func (c *SQLiteClient) HourlyRollup(ctx context.Context, day time.Time) ([]HourlySlot, error) {
	start, end := DayBounds(day)

	rows, err := c.db.QueryContext(ctx, `
		SELECT strftime('%H', report_time, '+8 hours') AS hour,
			AVG(online_percentage),
			COUNT(*)
		FROM summary_reports
		WHERE report_time >= ? AND report_time < ?
		GROUP BY hour
		ORDER BY hour`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []HourlySlot{}
	for rows.Next() {
		var hour string
		var avgOnline float64
		var runs int
		if err := rows.Scan(&hour, &avgOnline, &runs); err != nil {
			return nil, err
		}
		h, err := strconv.Atoi(hour)
		if err != nil {
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

func (c *SQLiteClient) DailyUptime(ctx context.Context, day time.Time) ([]StoreUptime, error) {
	start, end := DayBounds(day)

	rows, err := c.db.QueryContext(ctx, `
		SELECT s.name, s.platform,
			COUNT(sc.id),
			SUM(CASE WHEN sc.is_online = 1 THEN 1 ELSE 0 END)
		FROM stores s
		JOIN status_checks sc ON sc.store_id = s.id
		WHERE sc.checked_at >= ? AND sc.checked_at < ?
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

	// Best performers first, matching the reporting surface's ranking.
	sort.Slice(uptimes, func(i, j int) bool {
		if uptimes[i].UptimePct != uptimes[j].UptimePct {
			return uptimes[i].UptimePct > uptimes[j].UptimePct
		}
		return uptimes[i].Name < uptimes[j].Name
	})
	return uptimes, nil
}
