package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RepositoryPort abstracts alert persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, alert Alert) (Alert, error)
	List(ctx context.Context, filter ListFilter) ([]Alert, int, error)
	Acknowledge(ctx context.Context, id int64) error
}

// Notifier delivers an alert out-of-band, typically by email via the job
// queue.
type Notifier interface {
	NotifyLowStock(ctx context.Context, alert Alert) error
}

// ServiceConfig tunes alert behaviour.
type ServiceConfig struct {
	// DebounceTTL suppresses repeat alerts for the same item within the
	// window. Re-delivered events from the outbox collapse here.
	DebounceTTL time.Duration
}

// Service persists and delivers low-stock alerts.
type Service struct {
	repo     RepositoryPort
	rdb      *redis.Client
	notifier Notifier
	metrics  MetricsPort
	cfg      ServiceConfig
	logger   *slog.Logger
}

// MetricsPort counts raised alerts for the monitoring dashboards.
type MetricsPort interface {
	ObserveLowStockAlert()
}

// NewService builds Service.
func NewService(repo RepositoryPort, rdb *redis.Client, notifier Notifier, metrics MetricsPort, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.DebounceTTL <= 0 {
		cfg.DebounceTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, rdb: rdb, notifier: notifier, metrics: metrics, cfg: cfg, logger: logger}
}

// HandleLowStock processes one low-stock notice. The redis claim makes the
// at-least-once event stream effectively once-per-window per item: only the
// first notice inside the debounce window produces an alert row and a
// notification.
func (s *Service) HandleLowStock(ctx context.Context, notice LowStockNotice) error {
	if notice.ItemID <= 0 {
		return fmt.Errorf("alerts: notice missing item id")
	}
	claimed, err := s.claim(ctx, notice.ItemID)
	if err != nil {
		return err
	}
	if !claimed {
		s.logger.Debug("low-stock alert debounced", slog.Int64("item_id", notice.ItemID))
		return nil
	}

	alert, err := s.repo.Insert(ctx, Alert{
		ItemID:         notice.ItemID,
		ItemName:       notice.ItemName,
		Unit:           notice.Unit,
		QuantityOnHand: notice.QuantityOnHand,
		MinStockLevel:  notice.MinStockLevel,
		CreatedAt:      notice.At,
	})
	if err != nil {
		// Give the claim back so the next delivery retries the insert.
		s.release(ctx, notice.ItemID)
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveLowStockAlert()
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyLowStock(ctx, alert); err != nil {
			// The alert row exists; delivery failure is logged, not fatal.
			s.logger.Warn("low-stock notification failed",
				slog.Int64("item_id", notice.ItemID), slog.Any("error", err))
		}
	}
	s.logger.Info("low-stock alert raised",
		slog.Int64("item_id", notice.ItemID),
		slog.String("item", notice.ItemName),
		slog.String("on_hand", notice.QuantityOnHand.String()),
		slog.String("min_level", notice.MinStockLevel.String()))
	return nil
}

// List returns alerts matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Alert, int, error) {
	return s.repo.List(ctx, filter)
}

// Acknowledge marks an alert as seen.
func (s *Service) Acknowledge(ctx context.Context, id int64) error {
	return s.repo.Acknowledge(ctx, id)
}

func (s *Service) claim(ctx context.Context, itemID int64) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}
	ok, err := s.rdb.SetNX(ctx, debounceKey(itemID), "1", s.cfg.DebounceTTL).Result()
	if err != nil {
		// Redis being down must not drop alerts; fall through undebounced.
		s.logger.Warn("alert debounce unavailable", slog.Any("error", err))
		return true, nil
	}
	return ok, nil
}

func (s *Service) release(ctx context.Context, itemID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, debounceKey(itemID)).Err(); err != nil {
		s.logger.Warn("alert debounce release failed", slog.Any("error", err))
	}
}

func debounceKey(itemID int64) string {
	return fmt.Sprintf("alerts:lowstock:%d", itemID)
}
