package repository

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// DeliveriesRepository persists the delivery audit trail (one row per routed record).
type DeliveriesRepository interface {
	InsertBatch(ctx context.Context, rows []model.Delivery) error
}

type DeliveriesRepositoryImpl struct {
	db *sqlx.DB
}

func NewDeliveriesRepository(db *sqlx.DB) *DeliveriesRepositoryImpl {
	return &DeliveriesRepositoryImpl{db: db}
}

var _ DeliveriesRepository = (*DeliveriesRepositoryImpl)(nil)

const deliveryColumns = 10

// InsertBatch writes all rows in a single multi-row INSERT inside one
// transaction. Re-inserting a record_id/outcome pair is a no-op.
func (r *DeliveriesRepositoryImpl) InsertBatch(ctx context.Context, rows []model.Delivery) error {
	if len(rows) == 0 {
		return nil
	}

	query, args := buildDeliveriesInsert(rows)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func buildDeliveriesInsert(rows []model.Delivery) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(rows)*deliveryColumns)

	sb.WriteString(`INSERT INTO deliveries
		(record_id, outcome, title, webhook_host, status_code, error_kind, error, duration_ms, source, created_at)
	VALUES `)
	for i, d := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			truncate(d.RecordID, model.MaxRecordIDLen), d.Outcome.String(), truncate(d.Title, 512), d.WebhookHost, d.StatusCode,
			d.ErrorKind, truncate(d.Error, 1024), d.DurationMs, d.Source, d.CreatedAt,
		)
	}
	sb.WriteString(` ON DUPLICATE KEY UPDATE id = id`)
	return sb.String(), args
}

// truncate keeps at most max bytes, cut on a rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > max {
			break
		}
		cut += size
	}
	return s[:cut]
}
