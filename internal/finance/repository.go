package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// EnsureCategory returns the category with the given name, creating it on
// first use.
func (r *Repository) EnsureCategory(ctx context.Context, name, description string) (ExpenseCategory, error) {
	var c ExpenseCategory
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expense_categories (name, description, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
		RETURNING id, name, description, created_at`,
		name, description, time.Now().UTC()).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	return c, err
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]ExpenseCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []ExpenseCategory
	for rows.Next() {
		var c ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// InsertIfAbsent stores the record unless its ID already exists, in which
// case the stored row is returned with created=false.
func (r *Repository) InsertIfAbsent(ctx context.Context, record ExpenseRecord) (ExpenseRecord, bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO expense_records
			(id, category_id, expense_date, description, amount, supplier,
			 ref_kind, ref_id, consumer_ref, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`,
		record.ID, record.CategoryID, record.Date, record.Description, record.Amount,
		record.Supplier, record.RefKind, record.RefID, record.ConsumerRef,
		record.Status, time.Now().UTC())
	if err != nil {
		return ExpenseRecord{}, false, err
	}
	created := tag.RowsAffected() == 1
	stored, err := r.GetExpense(ctx, record.ID)
	return stored, created, err
}

// GetExpense returns one record by ID.
func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (ExpenseRecord, error) {
	var e ExpenseRecord
	err := r.pool.QueryRow(ctx, expenseSelect+` WHERE id=$1`, id).
		Scan(expenseFields(&e)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return ExpenseRecord{}, ErrExpenseNotFound
	}
	return e, err
}

// SetStatus updates the status of one record.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status ExpenseStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE expense_records SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// ListExpenses returns records matching the filter, newest first, plus the
// unpaged total.
func (r *Repository) ListExpenses(ctx context.Context, filter ListFilter) ([]ExpenseRecord, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		where = append(where, `category_id=(SELECT id FROM expense_categories WHERE name=`+arg(filter.Category)+`)`)
	}
	if filter.Status != "" {
		where = append(where, "status="+arg(string(filter.Status)))
	}
	if !filter.From.IsZero() {
		where = append(where, "expense_date>="+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "expense_date<="+arg(filter.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expense_records WHERE `+cond, args...).Scan(&total); err != nil {
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
	rows, err := r.pool.Query(ctx, expenseSelect+` WHERE `+cond+
		` ORDER BY expense_date DESC, created_at DESC LIMIT `+arg(perPage)+` OFFSET `+arg((page-1)*perPage), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]ExpenseRecord, 0, perPage)
	for rows.Next() {
		var e ExpenseRecord
		if err := rows.Scan(expenseFields(&e)...); err != nil {
			return nil, 0, err
		}
		records = append(records, e)
	}
	return records, total, rows.Err()
}

const expenseSelect = `
	SELECT id, category_id, expense_date, description, amount, COALESCE(supplier,''),
	       COALESCE(ref_kind,''), COALESCE(ref_id,0), COALESCE(consumer_ref,''), status, created_at
	FROM expense_records`

func expenseFields(e *ExpenseRecord) []any {
	return []any{&e.ID, &e.CategoryID, &e.Date, &e.Description, &e.Amount, &e.Supplier,
		&e.RefKind, &e.RefID, &e.ConsumerRef, &e.Status, &e.CreatedAt}
}
