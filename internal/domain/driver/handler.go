package driver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/validator"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createDriverRequest struct {
	FullName           string     `json:"full_name" validate:"required"`
	PhoneNumber        string     `json:"phone_number" validate:"required"`
	PreferredBankID    *uuid.UUID `json:"preferred_bank_id"`
	TankCapacityLiters float64    `json:"tank_capacity_liters"`
	ConsumptionLPerKm  float64    `json:"consumption_l_per_km"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDriverRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	d := &Driver{
		FullName:           req.FullName,
		PhoneNumber:        req.PhoneNumber,
		PreferredBankID:    req.PreferredBankID,
		TankCapacityLiters: req.TankCapacityLiters,
		ConsumptionLPerKm:  req.ConsumptionLPerKm,
	}
	if err := h.repo.Create(r.Context(), d); err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, d)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid driver id")
		return
	}

	d, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDriverNotFound) {
			response.NotFound(w, "driver not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, d)
}

type setBankRequest struct {
	BankID uuid.UUID `json:"bank_id" validate:"required"`
}

func (h *Handler) SetBank(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid driver id")
		return
	}

	var req setBankRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.BankID == uuid.Nil {
		response.BadRequest(w, "bank_id is required")
		return
	}

	if err := h.repo.SetPreferredBank(r.Context(), id, req.BankID); err != nil {
		if errors.Is(err, ErrDriverNotFound) {
			response.NotFound(w, "driver not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/bank", h.SetBank)
	return r
}
