package models

import "time"

// StatusCheck is an append-only probe fact: one row per store per run.
type StatusCheck struct {
	ID             int64     `json:"id" db:"id"`
	StoreID        int64     `json:"store_id" db:"store_id"`
	IsOnline       bool      `json:"is_online" db:"is_online"`
	CheckedAt      time.Time `json:"checked_at" db:"checked_at"`
	ResponseTimeMS *int64    `json:"response_time_ms" db:"response_time_ms"`
	ErrorMessage   string    `json:"error_message" db:"error_message"`
}
