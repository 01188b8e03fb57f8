package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, name, category, unit, costing_method, current_unit_cost, min_stock_level, produced_in_house, nutrient_info, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.CostingMethod,
		&item.CurrentUnitCost, &item.MinStockLevel, &item.ProducedInHouse, &item.NutrientInfo,
		&item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (r *Repository) Create(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO feed_items (name, category, unit, costing_method, current_unit_cost, min_stock_level, produced_in_house, nutrient_info, created_at, updated_at)
VALUES ($1,$2,$3,$4,0,$5,$6,$7,NOW(),NOW())
RETURNING `+itemColumns,
		item.Name, string(item.Category), item.Unit, string(item.CostingMethod),
		item.MinStockLevel, item.ProducedInHouse, item.NutrientInfo)
	created, err := scanItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Item{}, ErrDuplicateName
		}
		return Item{}, fmt.Errorf("catalog: create item: %w", err)
	}
	return created, nil
}

func (r *Repository) Update(ctx context.Context, id int64, item Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE feed_items
SET name=$2, category=$3, unit=$4, costing_method=$5, min_stock_level=$6, produced_in_house=$7, nutrient_info=$8, updated_at=NOW()
WHERE id=$1`,
		id, item.Name, string(item.Category), item.Unit, string(item.CostingMethod),
		item.MinStockLevel, item.ProducedInHouse, item.NutrientInfo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("catalog: update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM feed_items WHERE id=$1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("catalog: get item: %w", err)
	}
	return item, nil
}

func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%') AND ($2 = '' OR category = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feed_items `+where, filters.Search, string(filters.Category)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count items: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM feed_items `+where+` ORDER BY name ASC LIMIT $3 OFFSET $4`,
		filters.Search, string(filters.Category), perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) BalanceQuantity(ctx context.Context, itemID int64) (decimal.Decimal, bool, error) {
	var qty decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT quantity_on_hand FROM stock_balances WHERE item_id=$1`, itemID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("catalog: balance quantity: %w", err)
	}
	return qty, true, nil
}

func (r *Repository) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+prefixedItemColumns("i")+`, b.quantity_on_hand
FROM feed_items i
JOIN stock_balances b ON b.item_id = i.id
WHERE b.quantity_on_hand <= i.min_stock_level
ORDER BY i.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list low stock: %w", err)
	}
	defer rows.Close()

	result := []LowStockItem{}
	for rows.Next() {
		var entry LowStockItem
		err := rows.Scan(&entry.Item.ID, &entry.Item.Name, &entry.Item.Category, &entry.Item.Unit,
			&entry.Item.CostingMethod, &entry.Item.CurrentUnitCost, &entry.Item.MinStockLevel,
			&entry.Item.ProducedInHouse, &entry.Item.NutrientInfo, &entry.Item.CreatedAt,
			&entry.Item.UpdatedAt, &entry.QuantityOnHand)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func prefixedItemColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.category, ` + alias + `.unit, ` +
		alias + `.costing_method, ` + alias + `.current_unit_cost, ` + alias + `.min_stock_level, ` +
		alias + `.produced_in_house, ` + alias + `.nutrient_info, ` + alias + `.created_at, ` + alias + `.updated_at`
}
