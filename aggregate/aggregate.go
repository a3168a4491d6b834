// Package aggregate holds the read-only rollup queries consumed by the
// reporting surface. Clients open their own short-lived connections and
// never write.
package aggregate

import (
	"context"
	"time"

	"storewatch/models"
)

// ReportZone is the fixed reporting timezone (Philippines, UTC+8). All
// "today" windows are calendar days in this zone.
var ReportZone = time.FixedZone("UTC+8", 8*60*60)

// StoreStatus is a store's most recent check.
type StoreStatus struct {
	Name           string
	URL            string
	Platform       models.Platform
	IsOnline       bool
	CheckedAt      time.Time
	ResponseTimeMS *int64
}

// HourlySlot is the averaged online rate of all runs in one local hour.
type HourlySlot struct {
	Hour       int
	OnlinePct  float64
	OfflinePct float64
	Runs       int
}

// StoreUptime is one store's share of online checks over a local day.
// Stores with no checks in the window do not appear.
type StoreUptime struct {
	Name         string
	Platform     models.Platform
	ChecksToday  int
	OnlineChecks int
	UptimePct    int
}

// Source is the aggregation query surface. Every query tolerates an empty
// database by returning an empty slice.
type Source interface {
	LatestStatuses(ctx context.Context) ([]StoreStatus, error)
	HourlyRollup(ctx context.Context, day time.Time) ([]HourlySlot, error)
	DailyUptime(ctx context.Context, day time.Time) ([]StoreUptime, error)
	Close() error
}

// DayBounds returns the UTC instants bounding day's calendar date in the
// reporting timezone: [start, end).
func DayBounds(day time.Time) (time.Time, time.Time) {
	local := day.In(ReportZone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ReportZone)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

func roundPct(online, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(online)*100.0/float64(total) + 0.5)
}
