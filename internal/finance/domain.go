package finance

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus marks whether an expense still counts towards totals.
type ExpenseStatus string

const (
	ExpenseActive ExpenseStatus = "ACTIVE"
	ExpenseVoided ExpenseStatus = "VOID"
)

// ExpenseCategory groups expense records for reporting.
type ExpenseCategory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExpenseRecord is one cost entry. Records sourced from stock movements use
// a deterministic ID derived from the originating record, so re-delivered
// events collapse onto the same row.
type ExpenseRecord struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Supplier    string          `json:"supplier,omitempty"`
	RefKind     string          `json:"ref_kind,omitempty"`
	RefID       int64           `json:"ref_id,omitempty"`
	ConsumerRef string          `json:"consumer_ref,omitempty"`
	Status      ExpenseStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExpenseInput describes an expense sourced from a stock movement.
type ExpenseInput struct {
	RefKind     string
	RefID       int64
	Date        time.Time
	Category    string
	Description string
	Amount      decimal.Decimal
	Supplier    string
	ConsumerRef string
}

// ListFilter narrows expense listings.
type ListFilter struct {
	Category string
	Status   ExpenseStatus
	From     time.Time
	To       time.Time
	Page     int
	PerPage  int
}

// ErrExpenseNotFound indicates an unknown expense record.
var ErrExpenseNotFound = errors.New("finance: expense not found")

// ErrInvalidExpense indicates a malformed expense input.
var ErrInvalidExpense = errors.New("finance: invalid expense")
