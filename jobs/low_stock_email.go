package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/farmstead-erp/farmstead-erp/internal/alerts"
)

const (
	// TaskLowStockEmail delivers a low-stock alert to the farm operators.
	TaskLowStockEmail = "alerts:low_stock_email"
)

// LowStockEmailPayload carries the alert details for the email template.
type LowStockEmailPayload struct {
	AlertID        int64  `json:"alert_id"`
	ItemID         int64  `json:"item_id"`
	ItemName       string `json:"item_name"`
	Unit           string `json:"unit"`
	QuantityOnHand string `json:"quantity_on_hand"`
	MinStockLevel  string `json:"min_stock_level"`
	Recipient      string `json:"recipient"`
}

// NewLowStockEmailTask constructs an Asynq task for a low-stock alert.
func NewLowStockEmailTask(payload LowStockEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockEmail, data, asynq.Queue(QueueDefault)), nil
}

// HandleLowStockEmail processes TaskLowStockEmail tasks by reusing the
// transactional mail path.
func (m *Mailer) HandleLowStockEmail(ctx context.Context, t *asynq.Task) error {
	var payload LowStockEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return m.send(SendEmailPayload{
		To:      payload.Recipient,
		Subject: fmt.Sprintf("Low stock: %s", payload.ItemName),
		Body: fmt.Sprintf("%s is down to %s %s (minimum %s %s). Restock soon.",
			payload.ItemName, payload.QuantityOnHand, payload.Unit,
			payload.MinStockLevel, payload.Unit),
	})
}

// LowStockNotifier enqueues low-stock alert emails. It implements
// alerts.Notifier.
type LowStockNotifier struct {
	client    *Client
	recipient string
	logger    *slog.Logger
}

// NewLowStockNotifier constructs a notifier that targets the configured
// operations mailbox.
func NewLowStockNotifier(client *Client, recipient string, logger *slog.Logger) *LowStockNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockNotifier{client: client, recipient: recipient, logger: logger}
}

// NotifyLowStock enqueues the alert email.
func (n *LowStockNotifier) NotifyLowStock(ctx context.Context, alert alerts.Alert) error {
	if n == nil || n.client == nil {
		return nil
	}
	task, err := NewLowStockEmailTask(LowStockEmailPayload{
		AlertID:        alert.ID,
		ItemID:         alert.ItemID,
		ItemName:       alert.ItemName,
		Unit:           alert.Unit,
		QuantityOnHand: alert.QuantityOnHand.String(),
		MinStockLevel:  alert.MinStockLevel.String(),
		Recipient:      n.recipient,
	})
	if err != nil {
		return err
	}
	if _, err := n.client.client.EnqueueContext(ctx, task); err != nil {
		return err
	}
	n.logger.Debug("low-stock email enqueued", slog.Int64("alert_id", alert.ID))
	return nil
}
