package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements RepositoryPort over pgx.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores one alert row.
func (r *Repository) Insert(ctx context.Context, alert Alert) (Alert, error) {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO low_stock_alerts
			(item_id, item_name, unit, quantity_on_hand, min_stock_level, acknowledged, created_at)
		VALUES ($1,$2,$3,$4,$5,false,$6)
		RETURNING id`,
		alert.ItemID, alert.ItemName, alert.Unit, alert.QuantityOnHand,
		alert.MinStockLevel, alert.CreatedAt).Scan(&alert.ID)
	return alert, err
}

// List returns alerts matching the filter, newest first, plus the unpaged
// total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Alert, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ItemID > 0 {
		where = append(where, "item_id="+arg(filter.ItemID))
	}
	if filter.Unacked {
		where = append(where, "acknowledged=false")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM low_stock_alerts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_id, item_name, unit, quantity_on_hand, min_stock_level, acknowledged, created_at
		FROM low_stock_alerts WHERE `+cond+
		` ORDER BY created_at DESC, id DESC LIMIT `+arg(perPage)+` OFFSET `+arg((page-1)*perPage), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts := make([]Alert, 0, perPage)
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.ItemID, &a.ItemName, &a.Unit,
			&a.QuantityOnHand, &a.MinStockLevel, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, a)
	}
	return alerts, total, rows.Err()
}

// Acknowledge marks one alert as seen.
func (r *Repository) Acknowledge(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE low_stock_alerts SET acknowledged=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
