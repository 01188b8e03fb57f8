// Package integration binds outbox events from the stock module to their
// downstream consumers: expense records in finance and low-stock alerting.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/farmstead-erp/farmstead-erp/internal/alerts"
	"github.com/farmstead-erp/farmstead-erp/internal/finance"
	"github.com/farmstead-erp/farmstead-erp/internal/outbox"
	"github.com/farmstead-erp/farmstead-erp/internal/stock"
)

// ExpenseRefSetter writes the finance-side reference back onto the
// originating movement record.
type ExpenseRefSetter interface {
	SetExpenseRef(ctx context.Context, refKind string, recordID int64, expenseRef string) error
}

// Hooks routes stock events to finance and alerts.
type Hooks struct {
	finance    *finance.Service
	alerts     *alerts.Service
	expenseRef ExpenseRefSetter
	logger     *slog.Logger
}

// NewHooks constructs Hooks.
func NewHooks(financeSvc *finance.Service, alertSvc *alerts.Service, refSetter ExpenseRefSetter, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{finance: financeSvc, alerts: alertSvc, expenseRef: refSetter, logger: logger}
}

// Register binds the hooks to the dispatcher's topics.
func (h *Hooks) Register(d *outbox.Dispatcher) {
	d.Register(stock.TopicExpense, h.handleExpense)
	d.Register(stock.TopicExpenseVoid, h.handleExpenseVoid)
	d.Register(stock.TopicLowStock, h.handleLowStock)
}

func (h *Hooks) handleExpense(ctx context.Context, payload []byte) error {
	var evt stock.ExpenseEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("integration: decode expense event: %w", err)
	}
	record, err := h.finance.RecordFromMovement(ctx, finance.ExpenseInput{
		RefKind:     evt.RefKind,
		RefID:       evt.RefID,
		Date:        evt.Date,
		Category:    evt.Category,
		Description: evt.Description,
		Amount:      evt.Amount,
		Supplier:    evt.Supplier,
		ConsumerRef: evt.ConsumerRef,
	})
	if err != nil {
		return err
	}
	if err := h.expenseRef.SetExpenseRef(ctx, evt.RefKind, evt.RefID, record.ID.String()); err != nil {
		// The expense row exists and its ID is deterministic; losing the
		// back-link only degrades void-on-delete for this one record.
		h.logger.Warn("expense back-link failed",
			slog.String("ref_kind", evt.RefKind),
			slog.Int64("ref_id", evt.RefID),
			slog.Any("error", err))
	}
	return nil
}

func (h *Hooks) handleExpenseVoid(ctx context.Context, payload []byte) error {
	var evt stock.ExpenseVoidEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("integration: decode expense void event: %w", err)
	}
	return h.finance.Void(ctx, finance.ExpenseID(evt.RefKind, evt.RefID))
}

func (h *Hooks) handleLowStock(ctx context.Context, payload []byte) error {
	var evt stock.LowStockEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("integration: decode low-stock event: %w", err)
	}
	return h.alerts.HandleLowStock(ctx, alerts.LowStockNotice{
		ItemID:         evt.ItemID,
		ItemName:       evt.ItemName,
		Unit:           evt.Unit,
		QuantityOnHand: evt.QuantityOnHand,
		MinStockLevel:  evt.MinStockLevel,
		At:             evt.At,
	})
}
