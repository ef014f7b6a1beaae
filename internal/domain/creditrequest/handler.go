package creditrequest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/jwt"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
)

// Handler handles credit request HTTP endpoints
type Handler struct {
	svc *Service
}

// NewHandler creates credit request handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the credit request router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/mine", h.ListMine)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(jwt.RoleAdmin))
		r.Get("/pending", h.ListPending)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})

	return r
}

type createRequest struct {
	BankID          uuid.UUID       `json:"bank_id"`
	StationID       *uuid.UUID      `json:"station_id,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	RequestedLimit  decimal.Decimal `json:"requested_limit"`
}

// Create files a credit line application for the authenticated driver
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.BankID == uuid.Nil {
		response.BadRequest(w, "bank_id is required")
		return
	}

	created, err := h.svc.Create(r.Context(), driverID, req.BankID, req.StationID,
		req.RequestedAmount, req.RequestedLimit)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "requested_amount and requested_limit must be positive")
		case errors.Is(err, driver.ErrDriverNotFound):
			response.NotFound(w, "driver not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, created)
}

// ListMine returns the caller's requests
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.svc.ListByDriver(r.Context(), driverID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"requests": items})
}

// ListPending returns pending requests for review
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var bankID *uuid.UUID
	if raw := r.URL.Query().Get("bank_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "invalid bank_id")
			return
		}
		bankID = &id
	}

	items, err := h.svc.ListPending(r.Context(), bankID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"requests": items})
}

type approveRequest struct {
	ApprovedLimit *decimal.Decimal `json:"approved_limit,omitempty"`
}

// Approve grants a pending request and opens the credit line
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	var req approveRequest
	if r.ContentLength > 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
	}

	approved, err := h.svc.Approve(r.Context(), id, req.ApprovedLimit)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, "credit request not found")
		case errors.Is(err, ErrAlreadyDecided):
			response.Conflict(w, "credit request already decided")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "approved_limit must be positive")
		case errors.Is(err, driver.ErrDriverNotFound):
			response.NotFound(w, "driver not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, approved)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject declines a pending request
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	var req rejectRequest
	if r.ContentLength > 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
	}

	rejected, err := h.svc.Reject(r.Context(), id, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, "credit request not found")
		case errors.Is(err, ErrAlreadyDecided):
			response.Conflict(w, "credit request already decided")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, rejected)
}
