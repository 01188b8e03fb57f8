package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/platform/httpx"
	"github.com/farmstead-erp/farmstead-erp/internal/shared"
)

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.list)
	r.Post("/items", h.create)
	r.Get("/items/low-stock", h.listLowStock)
	r.Get("/items/{itemID}", h.get)
	r.Put("/items/{itemID}", h.update)
	r.Get("/items/{itemID}/below-minimum", h.belowMinimum)
}

type itemRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Category        string  `json:"category" validate:"required"`
	Unit            string  `json:"unit" validate:"required,max=20"`
	CostingMethod   string  `json:"costing_method" validate:"omitempty,oneof=AVG FIFO LIFO"`
	MinStockLevel   *string `json:"min_stock_level"`
	ProducedInHouse bool    `json:"produced_in_house"`
	NutrientInfo    string  `json:"nutrient_info"`
}

func (h *Handler) decodeItem(r *http.Request) (ItemInput, error) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return ItemInput{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return ItemInput{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	input := ItemInput{
		Name:            req.Name,
		Category:        Category(req.Category),
		Unit:            req.Unit,
		CostingMethod:   CostingMethod(req.CostingMethod),
		ProducedInHouse: req.ProducedInHouse,
		NutrientInfo:    req.NutrientInfo,
	}
	if req.MinStockLevel != nil {
		level, err := decimal.NewFromString(*req.MinStockLevel)
		if err != nil {
			return ItemInput{}, fmt.Errorf("%w: invalid min_stock_level", httpx.ErrValidation)
		}
		input.MinStockLevel = &level
	}
	return input, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeItem(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Register(r.Context(), input)
	if err != nil {
		h.logger.Error("register item", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	input, err := h.decodeItem(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("update item", slog.Int64("item_id", id), slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filters := ListFilters{
		Search:   q.Get("search"),
		Category: Category(q.Get("category")),
		Page:     page,
		PerPage:  perPage,
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListLowStock(r.Context())
	if err != nil {
		h.logger.Error("list low stock", slog.Any("error", err))
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *Handler) belowMinimum(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	below, err := h.service.IsBelowMinimum(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item_id": id, "below_minimum": below})
}

func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid item id", httpx.ErrValidation)
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, ErrDuplicateName):
		return fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	case errors.Is(err, ErrInvalidConfiguration), errors.Is(err, ErrUnsupportedCostingMethod):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		return err
	}
}
