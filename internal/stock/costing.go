package stock

import (
	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/catalog"
)

// costScale is the number of decimal places kept on derived unit costs.
const costScale = 4

// CostingStrategy computes the item unit cost after an inbound movement.
// One implementation exists per supported costing method; the catalog
// rejects methods that have no strategy here.
type CostingStrategy interface {
	Method() catalog.CostingMethod
	Blend(prevQty, prevCost, inQty, inCost decimal.Decimal) decimal.Decimal
}

// WeightedAverageCosting blends the prior stock value with the inbound value,
// weighted by quantity.
type WeightedAverageCosting struct{}

// Method reports the catalog costing method this strategy implements.
func (WeightedAverageCosting) Method() catalog.CostingMethod {
	return catalog.CostingWeightedAverage
}

// Blend returns (prevQty*prevCost + inQty*inCost) / (prevQty + inQty).
// When the combined quantity is zero the inbound cost is used as-is.
func (WeightedAverageCosting) Blend(prevQty, prevCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	totalQty := prevQty.Add(inQty)
	if totalQty.IsZero() {
		return inCost
	}
	totalValue := prevQty.Mul(prevCost).Add(inQty.Mul(inCost))
	return totalValue.Div(totalQty).Round(costScale)
}

func defaultStrategies() map[catalog.CostingMethod]CostingStrategy {
	avg := WeightedAverageCosting{}
	return map[catalog.CostingMethod]CostingStrategy{
		avg.Method(): avg,
	}
}
