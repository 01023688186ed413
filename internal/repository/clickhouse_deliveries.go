package repository

import (
	"context"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHDeliveriesRepository lists deliveries from ClickHouse (analytical copy).
type CHDeliveriesRepository interface {
	List(ctx context.Context, outcome model.Outcome, source string, limit, offset int) ([]model.Delivery, error)
}

type chDeliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHDeliveriesRepository(ch *sqlx.DB) CHDeliveriesRepository {
	return &chDeliveriesRepository{ch: ch}
}

func (r *chDeliveriesRepository) List(ctx context.Context, outcome model.Outcome, source string, limit, offset int) ([]model.Delivery, error) {
	q, args := buildDeliveriesList(outcome, source, limit, offset)

	var rows []model.Delivery
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func buildDeliveriesList(outcome model.Outcome, source string, limit, offset int) (string, []any) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT record_id, outcome, title, webhook_host, status_code, error_kind, error, duration_ms, source, created_at
		FROM teams_notify.deliveries
		WHERE 1 = 1
	`
	var args []any

	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome.String())
	}
	if source != "" {
		q += " AND source = ?"
		args = append(args, source)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return q, args
}
