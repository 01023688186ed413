package model

import "time"

// Delivery is one audit row per processed record, persisted in the deliveries table.
type Delivery struct {
	RecordID    string    `db:"record_id"   json:"record_id"`
	Outcome     Outcome   `db:"outcome"     json:"outcome"`
	Title       string    `db:"title"       json:"title"`
	WebhookHost string    `db:"webhook_host" json:"webhook_host"`
	StatusCode  int       `db:"status_code" json:"status_code"` // 0 when no response
	ErrorKind   string    `db:"error_kind"  json:"error_kind,omitempty"`
	Error       string    `db:"error"       json:"error,omitempty"`
	DurationMs  int64     `db:"duration_ms" json:"duration_ms"`
	Source      string    `db:"source"      json:"source"` // http|kafka|redis|cli
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}
