package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/platform/db"
)

// Repository implements RepositoryPort over pgx.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction, handing it a
// transaction-scoped repository.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetBalance returns the current balance row for an item.
func (r *Repository) GetBalance(ctx context.Context, itemID int64) (Balance, error) {
	return scanBalance(r.pool.QueryRow(ctx, `
		SELECT item_id, quantity_on_hand, location, updated_at
		FROM stock_balances WHERE item_id=$1`, itemID))
}

// ListLedger returns ledger entries matching the filter plus the unpaged
// total, newest date first.
func (r *Repository) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ItemID > 0 {
		where = append(where, "item_id="+arg(filter.ItemID))
	}
	if filter.Kind != "" {
		where = append(where, "kind="+arg(string(filter.Kind)))
	}
	if !filter.From.IsZero() {
		where = append(where, "entry_date>="+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "entry_date<="+arg(filter.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_ledger WHERE `+cond, args...).Scan(&total); err != nil {
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
	query := `
		SELECT id, item_id, kind, entry_date, quantity, unit_value, total_value,
		       previous_balance, new_balance, ref_kind, ref_id, note, actor_id, created_at
		FROM stock_ledger WHERE ` + cond +
		` ORDER BY entry_date DESC, id DESC LIMIT ` + arg(perPage) + ` OFFSET ` + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]LedgerEntry, 0, perPage)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

// SetExpenseRef records the finance-side expense identifier on the
// originating movement record so a later deletion can void it.
func (r *Repository) SetExpenseRef(ctx context.Context, refKind string, recordID int64, expenseRef string) error {
	table, ok := map[string]string{
		RefPurchase:    "feed_purchases",
		RefConsumption: "feed_consumptions",
		RefProduction:  "feed_productions",
	}[refKind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrMovementNotFound, refKind)
	}
	_, err := r.pool.Exec(ctx, `UPDATE `+table+` SET expense_ref=$2 WHERE id=$1`, recordID, expenseRef)
	return err
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetItemForUpdate(ctx context.Context, itemID int64) (Item, error) {
	var item Item
	err := r.tx.QueryRow(ctx, `
		SELECT id, name, unit, costing_method, current_unit_cost, min_stock_level, produced_in_house
		FROM feed_items WHERE id=$1 FOR UPDATE`, itemID).
		Scan(&item.ID, &item.Name, &item.Unit, &item.CostingMethod, &item.CurrentUnitCost,
			&item.MinStockLevel, &item.ProducedInHouse)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

func (r *txRepo) GetBalance(ctx context.Context, itemID int64) (Balance, error) {
	return scanBalance(r.tx.QueryRow(ctx, `
		SELECT item_id, quantity_on_hand, location, updated_at
		FROM stock_balances WHERE item_id=$1`, itemID))
}

func (r *txRepo) UpsertBalance(ctx context.Context, balance Balance) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_balances (item_id, quantity_on_hand, location, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE
		SET quantity_on_hand=EXCLUDED.quantity_on_hand, updated_at=EXCLUDED.updated_at`,
		balance.ItemID, balance.QuantityOnHand, balance.Location, time.Now().UTC())
	return err
}

func (r *txRepo) UpdateItemCost(ctx context.Context, itemID int64, cost decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE feed_items SET current_unit_cost=$2, updated_at=NOW() WHERE id=$1`, itemID, cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *txRepo) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_ledger
			(item_id, kind, entry_date, quantity, unit_value, total_value,
			 previous_balance, new_balance, ref_kind, ref_id, note, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at`,
		entry.ItemID, entry.Kind, entry.Date, entry.Quantity, entry.UnitValue, entry.TotalValue,
		entry.PreviousBalance, entry.NewBalance, entry.RefKind, entry.RefID, entry.Note,
		entry.ActorID, time.Now().UTC()).
		Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

func (r *txRepo) InsertPurchase(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO feed_purchases
			(item_id, purchase_date, supplier, quantity, cost_per_unit, total_cost,
			 invoice_number, payment_status, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		p.ItemID, p.Date, p.Supplier, p.Quantity, p.CostPerUnit, p.TotalCost,
		p.InvoiceNumber, p.PaymentStatus, p.Note, time.Now().UTC()).Scan(&id)
	return id, err
}

func (r *txRepo) InsertConsumption(ctx context.Context, c Consumption) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO feed_consumptions
			(item_id, consumption_date, quantity, consumed_by, consumer_ref,
			 cost_at_consumption, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		c.ItemID, c.Date, c.Quantity, c.ConsumedBy, c.ConsumerRef,
		c.CostAtConsumption, c.Note, time.Now().UTC()).Scan(&id)
	return id, err
}

func (r *txRepo) InsertProduction(ctx context.Context, p Production) (int64, error) {
	contributions, err := json.Marshal(p.Contributions)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.tx.QueryRow(ctx, `
		INSERT INTO feed_productions
			(item_id, production_date, quantity, contributions, total_cost,
			 cost_per_unit, location, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		p.ItemID, p.Date, p.Quantity, contributions, p.TotalCost,
		p.CostPerUnit, p.Location, p.Note, time.Now().UTC()).Scan(&id)
	return id, err
}

func (r *txRepo) InsertAdjustment(ctx context.Context, a Adjustment) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_adjustments (item_id, adjustment_date, quantity, reason, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		a.ItemID, a.Date, a.Quantity, a.Reason, time.Now().UTC()).Scan(&id)
	return id, err
}

func (r *txRepo) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.tx.QueryRow(ctx, `
		SELECT id, item_id, purchase_date, supplier, quantity, cost_per_unit, total_cost,
		       invoice_number, payment_status, note, COALESCE(expense_ref,''), created_at
		FROM feed_purchases WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.ItemID, &p.Date, &p.Supplier, &p.Quantity, &p.CostPerUnit, &p.TotalCost,
			&p.InvoiceNumber, &p.PaymentStatus, &p.Note, &p.ExpenseRef, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Purchase{}, ErrMovementNotFound
	}
	return p, err
}

func (r *txRepo) GetConsumption(ctx context.Context, id int64) (Consumption, error) {
	var c Consumption
	err := r.tx.QueryRow(ctx, `
		SELECT id, item_id, consumption_date, quantity, consumed_by, consumer_ref,
		       cost_at_consumption, note, COALESCE(expense_ref,''), created_at
		FROM feed_consumptions WHERE id=$1 FOR UPDATE`, id).
		Scan(&c.ID, &c.ItemID, &c.Date, &c.Quantity, &c.ConsumedBy, &c.ConsumerRef,
			&c.CostAtConsumption, &c.Note, &c.ExpenseRef, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Consumption{}, ErrMovementNotFound
	}
	return c, err
}

func (r *txRepo) GetProduction(ctx context.Context, id int64) (Production, error) {
	var (
		p             Production
		contributions []byte
	)
	err := r.tx.QueryRow(ctx, `
		SELECT id, item_id, production_date, quantity, contributions, total_cost,
		       cost_per_unit, location, note, COALESCE(expense_ref,''), created_at
		FROM feed_productions WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.ItemID, &p.Date, &p.Quantity, &contributions, &p.TotalCost,
			&p.CostPerUnit, &p.Location, &p.Note, &p.ExpenseRef, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Production{}, ErrMovementNotFound
	}
	if err != nil {
		return Production{}, err
	}
	if len(contributions) > 0 {
		if err := json.Unmarshal(contributions, &p.Contributions); err != nil {
			return Production{}, err
		}
	}
	return p, nil
}

func (r *txRepo) GetAdjustment(ctx context.Context, id int64) (Adjustment, error) {
	var a Adjustment
	err := r.tx.QueryRow(ctx, `
		SELECT id, item_id, adjustment_date, quantity, reason, created_at
		FROM stock_adjustments WHERE id=$1 FOR UPDATE`, id).
		Scan(&a.ID, &a.ItemID, &a.Date, &a.Quantity, &a.Reason, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Adjustment{}, ErrMovementNotFound
	}
	return a, err
}

func (r *txRepo) DeletePurchase(ctx context.Context, id int64) error {
	return r.deleteRecord(ctx, "feed_purchases", id)
}

func (r *txRepo) DeleteConsumption(ctx context.Context, id int64) error {
	return r.deleteRecord(ctx, "feed_consumptions", id)
}

func (r *txRepo) DeleteProduction(ctx context.Context, id int64) error {
	return r.deleteRecord(ctx, "feed_productions", id)
}

func (r *txRepo) DeleteAdjustment(ctx context.Context, id int64) error {
	return r.deleteRecord(ctx, "stock_adjustments", id)
}

func (r *txRepo) deleteRecord(ctx context.Context, table string, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

// StageNotification appends an outbox row inside the movement transaction
// so the event commits atomically with the movement itself.
func (r *txRepo) StageNotification(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("stock: marshal %s payload: %w", topic, err)
	}
	_, err = r.tx.Exec(ctx, `
		INSERT INTO outbox_messages (topic, payload, created_at)
		VALUES ($1, $2, $3)`, topic, body, time.Now().UTC())
	return err
}

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.ItemID, &b.QuantityOnHand, &b.Location, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	return b, err
}

func scanLedgerEntry(row pgx.Row) (LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.ItemID, &e.Kind, &e.Date, &e.Quantity, &e.UnitValue, &e.TotalValue,
		&e.PreviousBalance, &e.NewBalance, &e.RefKind, &e.RefID, &e.Note, &e.ActorID, &e.CreatedAt)
	return e, err
}
