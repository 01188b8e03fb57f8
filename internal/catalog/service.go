package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts persistence for the catalog service.
type RepositoryPort interface {
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, id int64, item Item) error
	Get(ctx context.Context, id int64) (Item, error)
	List(ctx context.Context, filters ListFilters) ([]Item, int, error)
	BalanceQuantity(ctx context.Context, itemID int64) (decimal.Decimal, bool, error)
	ListLowStock(ctx context.Context) ([]LowStockItem, error)
}

// ServiceConfig carries injected defaults that the original system read from
// a global settings row.
type ServiceConfig struct {
	DefaultMinStockLevel decimal.Decimal
}

// Service manages the registry of stockable items.
type Service struct {
	repo RepositoryPort
	cfg  ServiceConfig
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Register adds a new item to the catalog.
func (s *Service) Register(ctx context.Context, input ItemInput) (Item, error) {
	item, err := s.buildItem(input)
	if err != nil {
		return Item{}, err
	}
	return s.repo.Create(ctx, item)
}

// Update modifies an existing item. The current unit cost is derived by the
// stock module and deliberately cannot be set here.
func (s *Service) Update(ctx context.Context, id int64, input ItemInput) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("%w: invalid item id", ErrInvalidConfiguration)
	}
	item, err := s.buildItem(input)
	if err != nil {
		return Item{}, err
	}
	if err := s.repo.Update(ctx, id, item); err != nil {
		return Item{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, ErrItemNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns items matching the filters plus the total match count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

// IsBelowMinimum reports whether the item's balance sits at or under its
// minimum stock level. An item with no balance row is considered not yet
// stocked rather than deficient.
func (s *Service) IsBelowMinimum(ctx context.Context, itemID int64) (bool, error) {
	item, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return false, err
	}
	qty, found, err := s.repo.BalanceQuantity(ctx, itemID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return qty.LessThanOrEqual(item.MinStockLevel), nil
}

// ListLowStock returns all stocked items at or under their minimum level.
func (s *Service) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) buildItem(input ItemInput) (Item, error) {
	if input.Name == "" {
		return Item{}, fmt.Errorf("%w: name required", ErrInvalidConfiguration)
	}
	if input.Unit == "" {
		return Item{}, fmt.Errorf("%w: unit required", ErrInvalidConfiguration)
	}
	if !validCategory(input.Category) {
		return Item{}, fmt.Errorf("%w: unknown category %q", ErrInvalidConfiguration, input.Category)
	}
	method := input.CostingMethod
	if method == "" {
		method = CostingWeightedAverage
	}
	switch method {
	case CostingWeightedAverage:
	case CostingFIFO, CostingLIFO:
		return Item{}, fmt.Errorf("%w: %s", ErrUnsupportedCostingMethod, method)
	default:
		return Item{}, fmt.Errorf("%w: unknown costing method %q", ErrInvalidConfiguration, method)
	}
	minStock := s.cfg.DefaultMinStockLevel
	if input.MinStockLevel != nil {
		minStock = *input.MinStockLevel
	}
	if minStock.IsNegative() {
		return Item{}, fmt.Errorf("%w: minimum stock level cannot be negative", ErrInvalidConfiguration)
	}
	return Item{
		Name:            input.Name,
		Category:        input.Category,
		Unit:            input.Unit,
		CostingMethod:   method,
		MinStockLevel:   minStock,
		ProducedInHouse: input.ProducedInHouse,
		NutrientInfo:    input.NutrientInfo,
	}, nil
}
