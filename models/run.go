package models

import "time"

// SummaryReport is the one-per-run rollup row. total = online + offline and
// online_percentage is 100*online/total, or 0 when no stores were checked.
type SummaryReport struct {
	ID               int64     `json:"id" db:"id"`
	TotalStores      int       `json:"total_stores" db:"total_stores"`
	OnlineStores     int       `json:"online_stores" db:"online_stores"`
	OfflineStores    int       `json:"offline_stores" db:"offline_stores"`
	OnlinePercentage float64   `json:"online_percentage" db:"online_percentage"`
	ReportTime       time.Time `json:"report_time" db:"report_time"`
}

// NewSummary builds a consistent SummaryReport from run counts.
func NewSummary(online, offline int, reportTime time.Time) SummaryReport {
	total := online + offline
	pct := 0.0
	if total > 0 {
		pct = 100.0 * float64(online) / float64(total)
	}
	return SummaryReport{
		TotalStores:      total,
		OnlineStores:     online,
		OfflineStores:    offline,
		OnlinePercentage: pct,
		ReportTime:       reportTime,
	}
}

// StoreResult is one store's outcome within a run, used for the digest.
type StoreResult struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	IsOnline bool   `json:"is_online"`
}
