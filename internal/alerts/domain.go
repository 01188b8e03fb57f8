package alerts

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockNotice is the decoded low-stock event handed to the service.
type LowStockNotice struct {
	ItemID         int64           `json:"item_id"`
	ItemName       string          `json:"item_name"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	At             time.Time       `json:"at"`
}

// Alert is one persisted low-stock alert.
type Alert struct {
	ID             int64           `json:"id"`
	ItemID         int64           `json:"item_id"`
	ItemName       string          `json:"item_name"`
	Unit           string          `json:"unit"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	Acknowledged   bool            `json:"acknowledged"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ListFilter narrows alert listings.
type ListFilter struct {
	ItemID  int64
	Unacked bool
	Page    int
	PerPage int
}

// ErrAlertNotFound indicates an unknown alert.
var ErrAlertNotFound = errors.New("alerts: alert not found")
