package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmstead-erp/farmstead-erp/internal/platform/httpx"
	"github.com/farmstead-erp/farmstead-erp/internal/shared"
)

// Handler wires HTTP endpoints for the alerts module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the alerts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers alert routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/low-stock", h.list)
	r.Post("/low-stock/{alertID}/ack", h.acknowledge)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filter := ListFilter{
		ItemID:  itemID,
		Unacked: q.Get("unacked") == "true",
		Page:    page,
		PerPage: perPage,
	}
	alerts, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"alerts":     alerts,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid alert id", httpx.ErrValidation))
		return
	}
	if err := h.service.Acknowledge(r.Context(), id); err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
			return
		}
		h.logger.Error("acknowledge alert", slog.Int64("alert_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alert_id": id, "acknowledged": true})
}
