package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups feed items by their agronomic kind.
type Category string

const (
	CategoryGreen       Category = "GREEN"
	CategoryDry         Category = "DRY"
	CategoryConcentrate Category = "CONCENTRATE"
	CategorySupplement  Category = "SUPPLEMENT"
	CategoryOther       Category = "OTHER"
)

// CostingMethod selects how outbound cost is valued for an item.
// Only weighted average has an implementation; FIFO and LIFO remain in the
// enum for forward compatibility but are rejected at registration.
type CostingMethod string

const (
	CostingWeightedAverage CostingMethod = "AVG"
	CostingFIFO            CostingMethod = "FIFO"
	CostingLIFO            CostingMethod = "LIFO"
)

// Item is a stockable kind of feed or fodder.
type Item struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	Unit            string          `json:"unit"`
	CostingMethod   CostingMethod   `json:"costing_method"`
	CurrentUnitCost decimal.Decimal `json:"current_unit_cost"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	ProducedInHouse bool            `json:"produced_in_house"`
	NutrientInfo    string          `json:"nutrient_info,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ItemInput describes a catalog registration or update request.
type ItemInput struct {
	Name            string
	Category        Category
	Unit            string
	CostingMethod   CostingMethod
	MinStockLevel   *decimal.Decimal
	ProducedInHouse bool
	NutrientInfo    string
}

// LowStockItem pairs an item with its current balance for alert listings.
type LowStockItem struct {
	Item           Item            `json:"item"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Search   string
	Category Category
	Page     int
	PerPage  int
}

// ErrInvalidConfiguration signals malformed catalog input such as a negative
// cost or minimum stock level.
var ErrInvalidConfiguration = errors.New("catalog: invalid configuration")

// ErrUnsupportedCostingMethod is returned for declared-but-unimplemented
// costing methods (FIFO, LIFO).
var ErrUnsupportedCostingMethod = errors.New("catalog: costing method not supported")

// ErrDuplicateName indicates the item name is already registered.
var ErrDuplicateName = errors.New("catalog: item name already exists")

// ErrItemNotFound indicates a missing item.
var ErrItemNotFound = errors.New("catalog: item not found")

func validCategory(c Category) bool {
	switch c {
	case CategoryGreen, CategoryDry, CategoryConcentrate, CategorySupplement, CategoryOther:
		return true
	}
	return false
}
