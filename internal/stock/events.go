package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outbox topics routed to the finance and alert collaborators.
const (
	TopicExpense     = "finance.expense"
	TopicExpenseVoid = "finance.expense.void"
	TopicLowStock    = "alerts.low_stock"
)

// ExpenseEvent asks the expense emitter to record a financial expense for
// a movement. Delivery is at-least-once; consumers dedupe on RefKind/RefID.
type ExpenseEvent struct {
	RefKind     string          `json:"ref_kind"`
	RefID       int64           `json:"ref_id"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Unit        string          `json:"unit"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Supplier    string          `json:"supplier,omitempty"`
	ConsumerRef string          `json:"consumer_ref,omitempty"`
}

// ExpenseVoidEvent asks the expense emitter to void the expense linked to a
// reversed movement record.
type ExpenseVoidEvent struct {
	RefKind    string `json:"ref_kind"`
	RefID      int64  `json:"ref_id"`
	ExpenseRef string `json:"expense_ref"`
}

// LowStockEvent notifies the alert emitter that an item balance crossed at
// or below its minimum stock level. Emitted only on the crossing, not while
// the balance stays low.
type LowStockEvent struct {
	ItemID         int64           `json:"item_id"`
	ItemName       string          `json:"item_name"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	At             time.Time       `json:"at"`
}
