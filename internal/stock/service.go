package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/catalog"
	"github.com/farmstead-erp/farmstead-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBalance(ctx context.Context, itemID int64) (Balance, error)
	ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error)
}

// TxRepository exposes the transactional operations used while posting a
// movement. GetItemForUpdate takes the per-item row lock that serializes
// concurrent movements against the same item.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, itemID int64) (Item, error)
	GetBalance(ctx context.Context, itemID int64) (Balance, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	UpdateItemCost(ctx context.Context, itemID int64, cost decimal.Decimal) error
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)

	InsertPurchase(ctx context.Context, p Purchase) (int64, error)
	InsertConsumption(ctx context.Context, c Consumption) (int64, error)
	InsertProduction(ctx context.Context, p Production) (int64, error)
	InsertAdjustment(ctx context.Context, a Adjustment) (int64, error)

	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	GetConsumption(ctx context.Context, id int64) (Consumption, error)
	GetProduction(ctx context.Context, id int64) (Production, error)
	GetAdjustment(ctx context.Context, id int64) (Adjustment, error)

	DeletePurchase(ctx context.Context, id int64) error
	DeleteConsumption(ctx context.Context, id int64) error
	DeleteProduction(ctx context.Context, id int64) error
	DeleteAdjustment(ctx context.Context, id int64) error

	StageNotification(ctx context.Context, topic string, payload any) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// DispatcherPort lets the service nudge the outbox dispatcher after a
// commit. Failures are non-blocking; the worker re-drives pending rows.
type DispatcherPort interface {
	DispatchPending(ctx context.Context) error
}

// MetricsPort counts movement postings for the monitoring dashboards.
type MetricsPort interface {
	ObserveMovement(kind string, err error)
}

// ServiceConfig carries injected defaults for the movement processors.
type ServiceConfig struct {
	DefaultLocation string
}

// Service runs the movement processors over the balance store and ledger.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	dispatcher  DispatcherPort
	metrics     MetricsPort
	strategies  map[catalog.CostingMethod]CostingStrategy
	cfg         ServiceConfig
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, dispatcher DispatcherPort, metrics MetricsPort, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		dispatcher:  dispatcher,
		metrics:     metrics,
		strategies:  defaultStrategies(),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Service) observeMovement(kind MovementKind, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(string(kind), err)
	}
}

// RecordPurchase posts an inbound purchase movement.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (MovementResult, error) {
	if input.ItemID <= 0 {
		return MovementResult{}, ErrItemNotFound
	}
	if !input.Quantity.IsPositive() {
		return MovementResult{}, fmt.Errorf("%w: purchase quantity must be positive", ErrInvalidQuantity)
	}
	if input.CostPerUnit.IsNegative() {
		return MovementResult{}, ErrInvalidUnitCost
	}
	payment := input.PaymentStatus
	if payment == "" {
		payment = PaymentPaid
	}
	totalCost := input.Quantity.Mul(input.CostPerUnit)
	params := movementParams{
		itemID:         input.ItemID,
		kind:           MovementPurchase,
		date:           movementDate(input.Date),
		qtyChange:      input.Quantity,
		unitValue:      input.CostPerUnit,
		recompute:      true,
		note:           purchaseNote(input.Supplier),
		actorID:        input.ActorID,
		idempotencyKey: input.IdempotencyKey,
		insertRecord: func(ctx context.Context, tx TxRepository, item Item, unitValue decimal.Decimal) (string, int64, error) {
			id, err := tx.InsertPurchase(ctx, Purchase{
				ItemID:        input.ItemID,
				Date:          movementDate(input.Date),
				Supplier:      input.Supplier,
				Quantity:      input.Quantity,
				CostPerUnit:   input.CostPerUnit,
				TotalCost:     totalCost,
				InvoiceNumber: input.InvoiceNumber,
				PaymentStatus: payment,
				Note:          input.Note,
			})
			return RefPurchase, id, err
		},
		expenseEvent: func(item Item, refKind string, refID int64) *ExpenseEvent {
			return &ExpenseEvent{
				RefKind:     refKind,
				RefID:       refID,
				ItemID:      item.ID,
				ItemName:    item.Name,
				Unit:        item.Unit,
				Date:        movementDate(input.Date),
				Category:    "Feed",
				Description: fmt.Sprintf("Purchase of %s %s of %s", input.Quantity, item.Unit, item.Name),
				Amount:      totalCost,
				Supplier:    input.Supplier,
			}
		},
	}
	return s.postMovement(ctx, params)
}

// RecordConsumption posts an outbound consumption movement. The ledger unit
// value is the item's current cost at the time of consumption.
func (s *Service) RecordConsumption(ctx context.Context, input ConsumptionInput) (MovementResult, error) {
	if input.ItemID <= 0 {
		return MovementResult{}, ErrItemNotFound
	}
	if !input.Quantity.IsPositive() {
		return MovementResult{}, fmt.Errorf("%w: consumption quantity must be positive", ErrInvalidQuantity)
	}
	consumedBy := input.ConsumedBy
	if consumedBy == "" {
		consumedBy = ConsumedByWholeHerd
	}
	switch consumedBy {
	case ConsumedByWholeHerd:
	case ConsumedByGroup, ConsumedByIndividual:
		if input.ConsumerRef == "" {
			return MovementResult{}, ErrMissingConsumer
		}
	default:
		return MovementResult{}, fmt.Errorf("%w: unknown consumer scope %q", ErrInvalidQuantity, consumedBy)
	}
	params := movementParams{
		itemID:         input.ItemID,
		kind:           MovementConsumption,
		date:           movementDate(input.Date),
		qtyChange:      input.Quantity.Neg(),
		note:           fmt.Sprintf("Consumed by %s", consumerLabel(consumedBy, input.ConsumerRef)),
		actorID:        input.ActorID,
		idempotencyKey: input.IdempotencyKey,
		insertRecord: func(ctx context.Context, tx TxRepository, item Item, unitValue decimal.Decimal) (string, int64, error) {
			id, err := tx.InsertConsumption(ctx, Consumption{
				ItemID:            input.ItemID,
				Date:              movementDate(input.Date),
				Quantity:          input.Quantity,
				ConsumedBy:        consumedBy,
				ConsumerRef:       input.ConsumerRef,
				CostAtConsumption: input.Quantity.Mul(unitValue).Round(2),
				Note:              input.Note,
			})
			return RefConsumption, id, err
		},
		expenseEvent: func(item Item, refKind string, refID int64) *ExpenseEvent {
			// Cost attribution is only emitted when the consumption is
			// pinned to a group or individual.
			if consumedBy == ConsumedByWholeHerd {
				return nil
			}
			return &ExpenseEvent{
				RefKind:     refKind,
				RefID:       refID,
				ItemID:      item.ID,
				ItemName:    item.Name,
				Unit:        item.Unit,
				Date:        movementDate(input.Date),
				Category:    "Herd Feed Cost",
				Description: fmt.Sprintf("Consumption of %s %s of %s by %s", input.Quantity, item.Unit, item.Name, consumerLabel(consumedBy, input.ConsumerRef)),
				Amount:      input.Quantity.Mul(item.CurrentUnitCost).Round(2),
				ConsumerRef: input.ConsumerRef,
			}
		},
	}
	return s.postMovement(ctx, params)
}

// RecordProduction posts an inbound in-house production movement. Unit cost
// derives from the sum of the cost contributions over the produced quantity.
func (s *Service) RecordProduction(ctx context.Context, input ProductionInput) (MovementResult, error) {
	if input.ItemID <= 0 {
		return MovementResult{}, ErrItemNotFound
	}
	if !input.Quantity.IsPositive() {
		return MovementResult{}, fmt.Errorf("%w: production quantity must be positive", ErrInvalidQuantity)
	}
	totalCost := decimal.Zero
	for _, c := range input.Contributions {
		if c.Amount.IsNegative() {
			return MovementResult{}, fmt.Errorf("%w: contribution %q is negative", ErrInvalidUnitCost, c.Label)
		}
		totalCost = totalCost.Add(c.Amount)
	}
	costPerUnit := decimal.Zero
	if input.Quantity.IsPositive() {
		costPerUnit = totalCost.Div(input.Quantity).Round(costScale)
	}
	location := input.Location
	if location == "" {
		location = s.cfg.DefaultLocation
	}
	params := movementParams{
		itemID:            input.ItemID,
		kind:              MovementProduction,
		date:              movementDate(input.Date),
		qtyChange:         input.Quantity,
		unitValue:         costPerUnit,
		totalValue:        &totalCost,
		recompute:         true,
		requireProducible: true,
		note:              fmt.Sprintf("In-house production at %s", locationLabel(location)),
		actorID:           input.ActorID,
		idempotencyKey:    input.IdempotencyKey,
		insertRecord: func(ctx context.Context, tx TxRepository, item Item, unitValue decimal.Decimal) (string, int64, error) {
			id, err := tx.InsertProduction(ctx, Production{
				ItemID:        input.ItemID,
				Date:          movementDate(input.Date),
				Quantity:      input.Quantity,
				Contributions: input.Contributions,
				TotalCost:     totalCost,
				CostPerUnit:   costPerUnit,
				Location:      location,
				Note:          input.Note,
			})
			return RefProduction, id, err
		},
		expenseEvent: func(item Item, refKind string, refID int64) *ExpenseEvent {
			if totalCost.IsZero() {
				return nil
			}
			return &ExpenseEvent{
				RefKind:     refKind,
				RefID:       refID,
				ItemID:      item.ID,
				ItemName:    item.Name,
				Unit:        item.Unit,
				Date:        movementDate(input.Date),
				Category:    "Feed Production",
				Description: fmt.Sprintf("Production of %s %s of %s", input.Quantity, item.Unit, item.Name),
				Amount:      totalCost,
			}
		},
	}
	return s.postMovement(ctx, params)
}

// AdjustBalance posts a manual correction. The signed quantity is applied
// as-is; the unit value recorded is the item's current cost and the average
// cost itself is left untouched.
func (s *Service) AdjustBalance(ctx context.Context, input AdjustmentInput) (MovementResult, error) {
	if input.ItemID <= 0 {
		return MovementResult{}, ErrItemNotFound
	}
	if input.Quantity.IsZero() {
		return MovementResult{}, fmt.Errorf("%w: adjustment quantity must be non-zero", ErrInvalidQuantity)
	}
	if input.Reason == "" {
		return MovementResult{}, fmt.Errorf("%w: adjustment reason required", ErrInvalidQuantity)
	}
	params := movementParams{
		itemID:         input.ItemID,
		kind:           MovementAdjustment,
		date:           movementDate(input.Date),
		qtyChange:      input.Quantity,
		note:           input.Reason,
		actorID:        input.ActorID,
		idempotencyKey: input.IdempotencyKey,
		insertRecord: func(ctx context.Context, tx TxRepository, item Item, unitValue decimal.Decimal) (string, int64, error) {
			id, err := tx.InsertAdjustment(ctx, Adjustment{
				ItemID:   input.ItemID,
				Date:     movementDate(input.Date),
				Quantity: input.Quantity,
				Reason:   input.Reason,
			})
			return RefAdjustment, id, err
		},
	}
	return s.postMovement(ctx, params)
}

// GetBalance returns the current balance for an item. An item that has never
// moved reports a zero balance.
func (s *Service) GetBalance(ctx context.Context, itemID int64) (Balance, error) {
	if itemID <= 0 {
		return Balance{}, ErrItemNotFound
	}
	balance, err := s.repo.GetBalance(ctx, itemID)
	if errors.Is(err, ErrBalanceNotFound) {
		return Balance{ItemID: itemID, Location: s.cfg.DefaultLocation}, nil
	}
	return balance, err
}

// ListLedger returns ledger entries matching the filter, ordered by date
// then creation order.
func (s *Service) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error) {
	return s.repo.ListLedger(ctx, filter)
}

type movementParams struct {
	itemID            int64
	kind              MovementKind
	date              time.Time
	qtyChange         decimal.Decimal
	unitValue         decimal.Decimal
	totalValue        *decimal.Decimal
	recompute         bool
	requireProducible bool
	note              string
	actorID           int64
	idempotencyKey    string
	insertRecord      func(ctx context.Context, tx TxRepository, item Item, unitValue decimal.Decimal) (string, int64, error)
	expenseEvent      func(item Item, refKind string, refID int64) *ExpenseEvent
}

func (s *Service) postMovement(ctx context.Context, p movementParams) (MovementResult, error) {
	if p.qtyChange.IsZero() {
		return MovementResult{}, ErrInvalidQuantity
	}
	claimedKey := false
	if s.idempotency != nil && p.idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, p.idempotencyKey, "stock"); err != nil {
			return MovementResult{}, err
		}
		claimedKey = true
	}

	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, p.itemID)
		if err != nil {
			return err
		}
		if p.requireProducible && !item.ProducedInHouse {
			return ErrNotProducible
		}

		balance, err := tx.GetBalance(ctx, p.itemID)
		if errors.Is(err, ErrBalanceNotFound) {
			balance = Balance{ItemID: p.itemID, Location: s.cfg.DefaultLocation}
		} else if err != nil {
			return err
		}
		hadBalance := !errors.Is(err, ErrBalanceNotFound)

		prevQty := balance.QuantityOnHand
		newQty := prevQty.Add(p.qtyChange)
		if newQty.IsNegative() {
			return ErrInsufficientStock
		}

		unitValue := p.unitValue
		newCost := item.CurrentUnitCost
		if p.recompute {
			newCost = s.strategyFor(item.CostingMethod).Blend(prevQty, item.CurrentUnitCost, p.qtyChange, unitValue)
		} else if p.kind == MovementConsumption || p.kind == MovementAdjustment {
			unitValue = item.CurrentUnitCost
		}

		totalValue := p.qtyChange.Mul(unitValue).Round(2)
		if p.totalValue != nil {
			totalValue = *p.totalValue
		}

		refKind, refID, err := p.insertRecord(ctx, tx, item, unitValue)
		if err != nil {
			return err
		}

		entry, err := tx.InsertLedgerEntry(ctx, LedgerEntry{
			ItemID:          p.itemID,
			Kind:            p.kind,
			Date:            p.date,
			Quantity:        p.qtyChange,
			UnitValue:       unitValue,
			TotalValue:      totalValue,
			PreviousBalance: prevQty,
			NewBalance:      newQty,
			RefKind:         refKind,
			RefID:           refID,
			Note:            p.note,
			ActorID:         p.actorID,
		})
		if err != nil {
			return err
		}

		balance.QuantityOnHand = newQty
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return err
		}
		if !newCost.Equal(item.CurrentUnitCost) {
			if err := tx.UpdateItemCost(ctx, p.itemID, newCost); err != nil {
				return err
			}
		}

		if p.expenseEvent != nil {
			if evt := p.expenseEvent(item, refKind, refID); evt != nil {
				if err := tx.StageNotification(ctx, TopicExpense, evt); err != nil {
					return err
				}
			}
		}

		wasBelow := hadBalance && prevQty.LessThanOrEqual(item.MinStockLevel)
		isBelow := newQty.LessThanOrEqual(item.MinStockLevel)
		if isBelow && !wasBelow {
			evt := LowStockEvent{
				ItemID:         item.ID,
				ItemName:       item.Name,
				Unit:           item.Unit,
				QuantityOnHand: newQty,
				MinStockLevel:  item.MinStockLevel,
				At:             time.Now().UTC(),
			}
			if err := tx.StageNotification(ctx, TopicLowStock, evt); err != nil {
				return err
			}
			result.LowStock = true
		}

		result.RefKind = refKind
		result.RecordID = refID
		result.Entry = entry
		return nil
	})
	s.observeMovement(p.kind, err)
	if err != nil {
		if claimedKey {
			_ = s.idempotency.Release(ctx, p.idempotencyKey)
		}
		return MovementResult{}, err
	}

	s.afterCommit(ctx, string(p.kind), &result, p.actorID, map[string]any{
		"item_id":  p.itemID,
		"quantity": p.qtyChange.String(),
		"ref_kind": result.RefKind,
		"ref_id":   result.RecordID,
	})
	return result, nil
}

// DeleteMovement reverses and removes a movement record. The compensating
// REVERSAL entry is written before the record is deleted so the entry can
// still cite it. Quantity is restored exactly; the weighted-average cost is
// a forward-only estimate and is not recomputed.
func (s *Service) DeleteMovement(ctx context.Context, input DeleteInput) (MovementResult, error) {
	if input.RecordID <= 0 {
		return MovementResult{}, ErrMovementNotFound
	}

	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		itemID, effect, unitValue, expenseRef, err := loadMovementEffect(ctx, tx, input.RefKind, input.RecordID)
		if err != nil {
			return err
		}

		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		balance, err := tx.GetBalance(ctx, itemID)
		if errors.Is(err, ErrBalanceNotFound) {
			balance = Balance{ItemID: itemID, Location: s.cfg.DefaultLocation}
		} else if err != nil {
			return err
		}

		prevQty := balance.QuantityOnHand
		reversalQty := effect.Neg()
		newQty := prevQty.Add(reversalQty)
		if newQty.IsNegative() {
			return ErrWouldUnderflow
		}

		entry, err := tx.InsertLedgerEntry(ctx, LedgerEntry{
			ItemID:          itemID,
			Kind:            MovementReversal,
			Date:            time.Now().UTC().Truncate(24 * time.Hour),
			Quantity:        reversalQty,
			UnitValue:       unitValue,
			TotalValue:      reversalQty.Mul(unitValue).Round(2),
			PreviousBalance: prevQty,
			NewBalance:      newQty,
			RefKind:         input.RefKind,
			RefID:           input.RecordID,
			Note:            fmt.Sprintf("Reversal of deleted %s #%d", input.RefKind, input.RecordID),
			ActorID:         input.ActorID,
		})
		if err != nil {
			return err
		}

		balance.QuantityOnHand = newQty
		if err := tx.UpsertBalance(ctx, balance); err != nil {
			return err
		}

		if err := deleteMovementRecord(ctx, tx, input.RefKind, input.RecordID); err != nil {
			return err
		}

		if expenseRef != "" {
			evt := ExpenseVoidEvent{RefKind: input.RefKind, RefID: input.RecordID, ExpenseRef: expenseRef}
			if err := tx.StageNotification(ctx, TopicExpenseVoid, evt); err != nil {
				return err
			}
		}

		wasBelow := prevQty.LessThanOrEqual(item.MinStockLevel)
		isBelow := newQty.LessThanOrEqual(item.MinStockLevel)
		if isBelow && !wasBelow {
			evt := LowStockEvent{
				ItemID:         item.ID,
				ItemName:       item.Name,
				Unit:           item.Unit,
				QuantityOnHand: newQty,
				MinStockLevel:  item.MinStockLevel,
				At:             time.Now().UTC(),
			}
			if err := tx.StageNotification(ctx, TopicLowStock, evt); err != nil {
				return err
			}
			result.LowStock = true
		}

		result.RefKind = input.RefKind
		result.RecordID = input.RecordID
		result.Entry = entry
		return nil
	})
	s.observeMovement(MovementReversal, err)
	if err != nil {
		return MovementResult{}, err
	}

	s.afterCommit(ctx, "REVERSAL", &result, input.ActorID, map[string]any{
		"ref_kind": input.RefKind,
		"ref_id":   input.RecordID,
	})
	return result, nil
}

// afterCommit records the audit trail and nudges the outbox dispatcher.
// Both are best-effort: the movement is already durable.
func (s *Service) afterCommit(ctx context.Context, action string, result *MovementResult, actorID int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("stock:%s", action),
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%s:%d", result.RefKind, result.RecordID),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit record failed",
				slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchPending(ctx); err != nil {
			s.logger.Warn("notification dispatch deferred to worker",
				slog.String("action", action), slog.Any("error", err))
			result.Warning = "notifications deferred, will be retried"
		}
	}
}

func (s *Service) strategyFor(method catalog.CostingMethod) CostingStrategy {
	if strategy, ok := s.strategies[method]; ok {
		return strategy
	}
	// Catalog registration guarantees a supported method; fall back to
	// weighted average for legacy rows.
	return WeightedAverageCosting{}
}

func loadMovementEffect(ctx context.Context, tx TxRepository, refKind string, id int64) (itemID int64, effect, unitValue decimal.Decimal, expenseRef string, err error) {
	switch refKind {
	case RefPurchase:
		p, getErr := tx.GetPurchase(ctx, id)
		if getErr != nil {
			return 0, decimal.Zero, decimal.Zero, "", getErr
		}
		return p.ItemID, p.Quantity, p.CostPerUnit, p.ExpenseRef, nil
	case RefConsumption:
		c, getErr := tx.GetConsumption(ctx, id)
		if getErr != nil {
			return 0, decimal.Zero, decimal.Zero, "", getErr
		}
		unitValue := decimal.Zero
		if c.Quantity.IsPositive() {
			unitValue = c.CostAtConsumption.Div(c.Quantity).Round(costScale)
		}
		return c.ItemID, c.Quantity.Neg(), unitValue, c.ExpenseRef, nil
	case RefProduction:
		p, getErr := tx.GetProduction(ctx, id)
		if getErr != nil {
			return 0, decimal.Zero, decimal.Zero, "", getErr
		}
		return p.ItemID, p.Quantity, p.CostPerUnit, p.ExpenseRef, nil
	case RefAdjustment:
		a, getErr := tx.GetAdjustment(ctx, id)
		if getErr != nil {
			return 0, decimal.Zero, decimal.Zero, "", getErr
		}
		return a.ItemID, a.Quantity, decimal.Zero, "", nil
	default:
		return 0, decimal.Zero, decimal.Zero, "", fmt.Errorf("%w: unknown kind %q", ErrMovementNotFound, refKind)
	}
}

func deleteMovementRecord(ctx context.Context, tx TxRepository, refKind string, id int64) error {
	switch refKind {
	case RefPurchase:
		return tx.DeletePurchase(ctx, id)
	case RefConsumption:
		return tx.DeleteConsumption(ctx, id)
	case RefProduction:
		return tx.DeleteProduction(ctx, id)
	case RefAdjustment:
		return tx.DeleteAdjustment(ctx, id)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMovementNotFound, refKind)
	}
}

func movementDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return d
}

func purchaseNote(supplier string) string {
	if supplier == "" {
		supplier = "unknown supplier"
	}
	return fmt.Sprintf("Purchase from %s", supplier)
}

func consumerLabel(by ConsumedBy, ref string) string {
	switch by {
	case ConsumedByGroup:
		return fmt.Sprintf("group %s", ref)
	case ConsumedByIndividual:
		return fmt.Sprintf("animal %s", ref)
	default:
		return "whole herd"
	}
}

func locationLabel(location string) string {
	if location == "" {
		return "farm"
	}
	return location
}
