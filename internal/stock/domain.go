package stock

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/catalog"
)

// MovementKind enumerates balance-affecting movement types.
type MovementKind string

const (
	// MovementPurchase is an inbound purchase from a supplier.
	MovementPurchase MovementKind = "PURCHASE"
	// MovementConsumption is an outbound issue to the herd.
	MovementConsumption MovementKind = "CONSUMPTION"
	// MovementProduction is an inbound in-house production run.
	MovementProduction MovementKind = "PRODUCTION"
	// MovementAdjustment is a manual correction, signed either way.
	MovementAdjustment MovementKind = "ADJUSTMENT"
	// MovementReversal compensates a deleted movement record.
	MovementReversal MovementKind = "REVERSAL"
)

// Reference kinds used to link ledger entries to their originating record.
const (
	RefPurchase    = "purchase"
	RefConsumption = "consumption"
	RefProduction  = "production"
	RefAdjustment  = "adjustment"
)

// Item is the stock module's view of a catalog item, loaded under a row lock
// for the duration of a movement.
type Item struct {
	ID              int64
	Name            string
	Unit            string
	CostingMethod   catalog.CostingMethod
	CurrentUnitCost decimal.Decimal
	MinStockLevel   decimal.Decimal
	ProducedInHouse bool
}

// Balance is the current on-hand quantity for one item.
type Balance struct {
	ItemID         int64           `json:"item_id"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	Location       string          `json:"location,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// LedgerEntry is one immutable audit record of a balance-affecting event.
// Entries are only ever inserted; no update or delete path exists.
type LedgerEntry struct {
	ID              int64           `json:"id"`
	ItemID          int64           `json:"item_id"`
	Kind            MovementKind    `json:"kind"`
	Date            time.Time       `json:"date"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitValue       decimal.Decimal `json:"unit_value"`
	TotalValue      decimal.Decimal `json:"total_value"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	RefKind         string          `json:"ref_kind,omitempty"`
	RefID           int64           `json:"ref_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	ActorID         int64           `json:"actor_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ConsumedBy attributes a consumption to a herd scope.
type ConsumedBy string

const (
	ConsumedByWholeHerd  ConsumedBy = "WHOLE_HERD"
	ConsumedByGroup      ConsumedBy = "GROUP"
	ConsumedByIndividual ConsumedBy = "INDIVIDUAL"
)

// PaymentStatus tracks supplier settlement on a purchase.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPartial PaymentStatus = "PARTIAL"
)

// Purchase records stock bought from a supplier.
type Purchase struct {
	ID            int64           `json:"id"`
	ItemID        int64           `json:"item_id"`
	Date          time.Time       `json:"date"`
	Supplier      string          `json:"supplier,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Note          string          `json:"note,omitempty"`
	ExpenseRef    string          `json:"expense_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Consumption records stock issued to the herd.
type Consumption struct {
	ID                int64           `json:"id"`
	ItemID            int64           `json:"item_id"`
	Date              time.Time       `json:"date"`
	Quantity          decimal.Decimal `json:"quantity"`
	ConsumedBy        ConsumedBy      `json:"consumed_by"`
	ConsumerRef       string          `json:"consumer_ref,omitempty"`
	CostAtConsumption decimal.Decimal `json:"cost_at_consumption"`
	Note              string          `json:"note,omitempty"`
	ExpenseRef        string          `json:"expense_ref,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CostContribution is one externally-referenced cost line of a production run.
type CostContribution struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Production records an in-house production run. Unit cost is derived from
// the contribution total over the produced quantity.
type Production struct {
	ID            int64              `json:"id"`
	ItemID        int64              `json:"item_id"`
	Date          time.Time          `json:"date"`
	Quantity      decimal.Decimal    `json:"quantity"`
	Contributions []CostContribution `json:"contributions"`
	TotalCost     decimal.Decimal    `json:"total_cost"`
	CostPerUnit   decimal.Decimal    `json:"cost_per_unit"`
	Location      string             `json:"location,omitempty"`
	Note          string             `json:"note,omitempty"`
	ExpenseRef    string             `json:"expense_ref,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Adjustment records a manual balance correction.
type Adjustment struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	Date      time.Time       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// PurchaseInput describes a purchase command.
type PurchaseInput struct {
	ItemID         int64
	Date           time.Time
	Quantity       decimal.Decimal
	CostPerUnit    decimal.Decimal
	Supplier       string
	InvoiceNumber  string
	PaymentStatus  PaymentStatus
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// ConsumptionInput describes a consumption command.
type ConsumptionInput struct {
	ItemID         int64
	Date           time.Time
	Quantity       decimal.Decimal
	ConsumedBy     ConsumedBy
	ConsumerRef    string
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// ProductionInput describes an in-house production command.
type ProductionInput struct {
	ItemID         int64
	Date           time.Time
	Quantity       decimal.Decimal
	Contributions  []CostContribution
	Location       string
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// AdjustmentInput describes a manual adjustment command.
type AdjustmentInput struct {
	ItemID         int64
	Date           time.Time
	Quantity       decimal.Decimal
	Reason         string
	ActorID        int64
	IdempotencyKey string
}

// DeleteInput identifies a movement record to reverse and remove.
type DeleteInput struct {
	RefKind  string
	RecordID int64
	ActorID  int64
}

// MovementResult reports the outcome of one posted movement.
type MovementResult struct {
	RefKind  string      `json:"ref_kind"`
	RecordID int64       `json:"record_id"`
	Entry    LedgerEntry `json:"entry"`
	LowStock bool        `json:"low_stock"`
	// Warning carries non-blocking follow-up information, e.g. a failed
	// notification dispatch that the worker will re-drive.
	Warning string `json:"warning,omitempty"`
}

// LedgerFilter narrows ledger listings.
type LedgerFilter struct {
	ItemID  int64
	Kind    MovementKind
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

// ErrItemNotFound indicates an unknown item reference.
var ErrItemNotFound = errors.New("stock: item not found")

// ErrBalanceNotFound indicates a missing balance row.
var ErrBalanceNotFound = errors.New("stock: balance not found")

// ErrMovementNotFound indicates an unknown movement record.
var ErrMovementNotFound = errors.New("stock: movement record not found")

// ErrInvalidQuantity indicates a zero or wrongly-signed quantity.
var ErrInvalidQuantity = errors.New("stock: invalid quantity")

// ErrInvalidUnitCost indicates a negative unit cost.
var ErrInvalidUnitCost = errors.New("stock: unit cost must be >= 0")

// ErrInsufficientStock is raised when a movement would drive the balance
// below zero.
var ErrInsufficientStock = errors.New("stock: insufficient stock")

// ErrWouldUnderflow is the deletion-time variant of ErrInsufficientStock:
// reversing the record would retroactively invalidate later consumption.
var ErrWouldUnderflow = errors.New("stock: reversal would underflow balance")

// ErrNotProducible indicates a production against an item that is not
// flagged as producible in-house.
var ErrNotProducible = errors.New("stock: item not producible in-house")

// ErrMissingConsumer indicates group/individual consumption without a
// consumer reference.
var ErrMissingConsumer = errors.New("stock: consumer reference required")
