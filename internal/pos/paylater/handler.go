package paylater

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nimbus-retail/nimbus-retail/internal/platform/httpx"
	"github.com/nimbus-retail/nimbus-retail/internal/shared"
)

// OpenPayLaterRequest is the JSON payload for POST /pay-laters.
type OpenPayLaterRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0"`
}

// Handler exposes pay-later ledgers as JSON endpoints. Totals are written
// only by order reconciliation; this surface opens and reads records.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers pay-later routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pay-laters", h.List)
	r.Post("/pay-laters", h.Open)
	r.Get("/pay-laters/{id}", h.Show)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	customerID, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	if err != nil || customerID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: customer_id query parameter required", shared.ErrValidation))
		return
	}
	list, err := h.service.ListByCustomer(r.Context(), actor.CompanyID, customerID)
	if err != nil {
		h.logger.Error("list pay-laters", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pay_laters": list})
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req OpenPayLaterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}
	record, err := h.service.Open(r.Context(), actor.CompanyID, req.CustomerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid pay-later id", shared.ErrValidation))
		return
	}
	record, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}
