package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/platform/httpx"
	"github.com/farmstead-erp/farmstead-erp/internal/shared"
)

const dateLayout = "2006-01-02"

type ledgerPage struct {
	Entries []LedgerEntry
	Total   int
}

// Handler wires HTTP endpoints for the stock module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchases", h.recordPurchase)
	r.Post("/consumptions", h.recordConsumption)
	r.Post("/productions", h.recordProduction)
	r.Post("/adjustments", h.adjust)
	r.Delete("/movements/{refKind}/{recordID}", h.deleteMovement)
	r.Get("/balances/{itemID}", h.getBalance)
	r.Get("/ledger", h.listLedger)
}

type purchaseRequest struct {
	ItemID        int64  `json:"item_id" validate:"required,gt=0"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Quantity      string `json:"quantity" validate:"required"`
	CostPerUnit   string `json:"cost_per_unit" validate:"required"`
	Supplier      string `json:"supplier" validate:"omitempty,max=200"`
	InvoiceNumber string `json:"invoice_number" validate:"omitempty,max=100"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=PAID PENDING PARTIAL"`
	Note          string `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quantity, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	costPerUnit, err := parseDecimal("cost_per_unit", req.CostPerUnit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		ItemID:         req.ItemID,
		Date:           date,
		Quantity:       quantity,
		CostPerUnit:    costPerUnit,
		Supplier:       req.Supplier,
		InvoiceNumber:  req.InvoiceNumber,
		PaymentStatus:  PaymentStatus(req.PaymentStatus),
		Note:           req.Note,
		ActorID:        actorID(r),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		h.logger.Error("record purchase", slog.Int64("item_id", req.ItemID), slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type consumptionRequest struct {
	ItemID      int64  `json:"item_id" validate:"required,gt=0"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Quantity    string `json:"quantity" validate:"required"`
	ConsumedBy  string `json:"consumed_by" validate:"omitempty,oneof=WHOLE_HERD GROUP INDIVIDUAL"`
	ConsumerRef string `json:"consumer_ref" validate:"omitempty,max=100"`
	Note        string `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) recordConsumption(w http.ResponseWriter, r *http.Request) {
	var req consumptionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quantity, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.RecordConsumption(r.Context(), ConsumptionInput{
		ItemID:         req.ItemID,
		Date:           date,
		Quantity:       quantity,
		ConsumedBy:     ConsumedBy(req.ConsumedBy),
		ConsumerRef:    req.ConsumerRef,
		Note:           req.Note,
		ActorID:        actorID(r),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		h.logger.Error("record consumption", slog.Int64("item_id", req.ItemID), slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type contributionRequest struct {
	Label  string `json:"label" validate:"required,max=100"`
	Amount string `json:"amount" validate:"required"`
}

type productionRequest struct {
	ItemID        int64                 `json:"item_id" validate:"required,gt=0"`
	Date          string                `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Quantity      string                `json:"quantity" validate:"required"`
	Contributions []contributionRequest `json:"contributions" validate:"dive"`
	Location      string                `json:"location" validate:"omitempty,max=100"`
	Note          string                `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) recordProduction(w http.ResponseWriter, r *http.Request) {
	var req productionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quantity, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	contributions := make([]CostContribution, 0, len(req.Contributions))
	for _, c := range req.Contributions {
		amount, err := parseDecimal("amount", c.Amount)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		contributions = append(contributions, CostContribution{Label: c.Label, Amount: amount})
	}
	result, err := h.service.RecordProduction(r.Context(), ProductionInput{
		ItemID:         req.ItemID,
		Date:           date,
		Quantity:       quantity,
		Contributions:  contributions,
		Location:       req.Location,
		Note:           req.Note,
		ActorID:        actorID(r),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		h.logger.Error("record production", slog.Int64("item_id", req.ItemID), slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

type adjustmentRequest struct {
	ItemID   int64  `json:"item_id" validate:"required,gt=0"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Quantity string `json:"quantity" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quantity, err := parseDecimal("quantity", req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.AdjustBalance(r.Context(), AdjustmentInput{
		ItemID:         req.ItemID,
		Date:           date,
		Quantity:       quantity,
		Reason:         req.Reason,
		ActorID:        actorID(r),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		h.logger.Error("adjust balance", slog.Int64("item_id", req.ItemID), slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) deleteMovement(w http.ResponseWriter, r *http.Request) {
	refKind := chi.URLParam(r, "refKind")
	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil || recordID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid record id", httpx.ErrValidation))
		return
	}
	result, err := h.service.DeleteMovement(r.Context(), DeleteInput{
		RefKind:  refKind,
		RecordID: recordID,
		ActorID:  actorID(r),
	})
	if err != nil {
		h.logger.Error("delete movement",
			slog.String("ref_kind", refKind), slog.Int64("record_id", recordID), slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid item id", httpx.ErrValidation))
		return
	}
	balance, err := h.service.GetBalance(r.Context(), itemID)
	if err != nil {
		httpx.RespondError(w, mapStockError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filter := LedgerFilter{
		ItemID:  itemID,
		Kind:    MovementKind(q.Get("kind")),
		Page:    page,
		PerPage: perPage,
	}
	var err error
	if filter.From, err = parseDate(q.Get("from")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.To, err = parseDate(q.Get("to")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := fmt.Sprintf("%d|%s|%s|%s|%d|%d",
		filter.ItemID, filter.Kind,
		filter.From.Format(dateLayout), filter.To.Format(dateLayout),
		filter.Page, filter.PerPage)
	res, err, _ := singleflightLedger(r.Context(), key, func(ctx context.Context) (any, error) {
		entries, total, err := h.service.ListLedger(ctx, filter)
		if err != nil {
			return nil, err
		}
		return ledgerPage{Entries: entries, Total: total}, nil
	})
	if err != nil {
		h.logger.Error("list ledger", slog.Any("error", err))
		httpx.RespondError(w, mapStockError(err))
		return
	}
	pageRes := res.(ledgerPage)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    pageRes.Entries,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, pageRes.Total),
	})
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := h.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, field)
	}
	return value, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", httpx.ErrValidation)
	}
	return date, nil
}

func idempotencyKey(r *http.Request) string {
	return r.Header.Get("Idempotency-Key")
}

// actorID reads the acting user from the X-Actor-ID header. Authentication
// lives upstream; the ledger only records attribution.
func actorID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	return id
}

func mapStockError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrMovementNotFound), errors.Is(err, ErrBalanceNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost),
		errors.Is(err, ErrMissingConsumer), errors.Is(err, ErrNotProducible):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrWouldUnderflow):
		return fmt.Errorf("%w: %v", httpx.ErrConflict, err)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		return fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	default:
		return err
	}
}
