package transaction

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type issueRequest struct {
	StationID  uuid.UUID       `json:"station_id"`
	Amount     decimal.Decimal `json:"amount"`
	TTLMinutes int             `json:"ttl_minutes"`
}

// Issue creates an authorization for the authenticated driver.
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req issueRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.StationID == uuid.Nil {
		response.BadRequest(w, "station_id is required")
		return
	}

	issued, err := h.svc.IssueAuthorization(r.Context(), driverID, req.StationID,
		req.Amount, time.Duration(req.TTLMinutes)*time.Minute)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, driver.ErrDriverNotFound):
			response.NotFound(w, "driver not found")
		case errors.Is(err, ErrNoFundingSource):
			response.Error(w, http.StatusUnprocessableEntity, "NO_FUNDING_SOURCE", "driver has no funding bank")
		case errors.Is(err, creditline.ErrCreditLineNotFound):
			response.NotFound(w, "credit line not found")
		case errors.Is(err, creditline.ErrInsufficientCredit):
			response.Error(w, http.StatusConflict, "INSUFFICIENT_CREDIT", "insufficient credit for the requested amount")
		case errors.Is(err, creditline.ErrVersionConflict):
			response.Conflict(w, "credit line busy, try again")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, map[string]interface{}{
		"transaction_id": issued.Transaction.ID,
		"token":          issued.Token,
		"expires_at":     issued.ExpiresAt,
	})
}

type scanRequest struct {
	Token string `json:"token"`
}

// Scan validates a presented token for the authenticated station.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	stationID := middleware.GetSubjectID(r.Context())
	if stationID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req scanRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Token == "" {
		response.BadRequest(w, "token is required")
		return
	}

	result, err := h.svc.ValidateScan(r.Context(), req.Token, stationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOrExpiredToken):
			response.Error(w, http.StatusUnprocessableEntity, "INVALID_OR_EXPIRED_TOKEN", "token is invalid, used or expired")
		case errors.Is(err, ErrStationMismatch):
			response.Forbidden(w, "token was issued for a different station")
		case errors.Is(err, ErrInvalidTransactionState):
			response.Error(w, http.StatusConflict, "INVALID_TRANSACTION_STATE", "transaction is no longer authorized")
		case errors.Is(err, ErrTransactionNotFound):
			response.NotFound(w, "transaction not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

type settleRequest struct {
	SettledAmount decimal.Decimal `json:"settled_amount"`
}

// Settle captures the final amount for a transaction.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid transaction id")
		return
	}

	var req settleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	t, err := h.svc.Settle(r.Context(), id, req.SettledAmount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "settled_amount must not be negative")
		case errors.Is(err, ErrTransactionNotFound):
			response.NotFound(w, "transaction not found")
		case errors.Is(err, ErrAlreadySettled):
			response.Error(w, http.StatusConflict, "ALREADY_SETTLED", "transaction already settled")
		case errors.Is(err, ErrTransactionVoided):
			response.Error(w, http.StatusConflict, "TRANSACTION_VOIDED", "transaction was voided by expiry")
		case errors.Is(err, ErrSettledAmountExceedsAuthorized):
			response.Error(w, http.StatusUnprocessableEntity, "SETTLED_AMOUNT_EXCEEDS_AUTHORIZED", "settled amount exceeds authorized amount")
		case errors.Is(err, creditline.ErrVersionConflict):
			response.Conflict(w, "credit line busy, try again")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"status":         t.Status,
		"settled_amount": t.SettledAmount.Decimal,
	})
}

// Get returns a single transaction.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid transaction id")
		return
	}

	t, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			response.NotFound(w, "transaction not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, t)
}

// GetByKey resolves a transaction by its idempotency key, for callers
// recovering after a lost issue response.
func (h *Handler) GetByKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		response.BadRequest(w, "missing idempotency key")
		return
	}

	t, err := h.svc.GetByIdempotencyKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			response.NotFound(w, "transaction not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, t)
}

// ListMine returns the authenticated driver's transaction history.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.svc.ListByDriver(r.Context(), driverID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}
