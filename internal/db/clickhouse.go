package db

import (
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmehdipour/teams-notify/internal/config"
	"github.com/jmoiron/sqlx"
)

// NewClickHouseConnection opens the reporting database, e.g.
// clickhouse://default:@localhost:9000/teams_notify?dial_timeout=5s&compress=true
func NewClickHouseConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	return open("clickhouse", cfg, 3*time.Second)
}
