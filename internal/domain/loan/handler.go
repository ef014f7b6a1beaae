package loan

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/transaction"
	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RollUp converts a settled transaction into loan debt.
func (h *Handler) RollUp(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid transaction id")
		return
	}

	l, err := h.svc.RollUpSettledTransaction(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrTransactionNotFound):
			response.NotFound(w, "transaction not found")
		case errors.Is(err, ErrTransactionNotSettled):
			response.Error(w, http.StatusConflict, "TRANSACTION_NOT_SETTLED", "transaction is not settled")
		case errors.Is(err, ErrAlreadyRolledUp):
			response.Error(w, http.StatusConflict, "ALREADY_ROLLED_UP", "transaction already rolled up")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, l)
}

type repaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method" validate:"required,payment_method"`
	PaymentReference string          `json:"payment_reference"`
}

// Repay records a payment against a loan.
func (h *Handler) Repay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid loan id")
		return
	}

	var req repaymentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	result, err := h.svc.RecordRepayment(r.Context(), id, req.Amount, req.PaymentMethod, req.PaymentReference)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ErrLoanNotFound):
			response.NotFound(w, "loan not found")
		case errors.Is(err, ErrRepaymentExceedsBalance):
			response.Error(w, http.StatusUnprocessableEntity, "REPAYMENT_EXCEEDS_BALANCE", "repayment exceeds outstanding balance")
		case errors.Is(err, creditline.ErrVersionConflict):
			response.Conflict(w, "credit line busy, try again")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

// ListMine returns the authenticated driver's loans.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := Status(r.URL.Query().Get("status"))

	loans, err := h.svc.List(r.Context(), driverID, status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, loans)
}

// Statement returns the loan and its repayment history.
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid loan id")
		return
	}

	statement, err := h.svc.GetStatement(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			response.NotFound(w, "loan not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, statement)
}

type dueDateRequest struct {
	DueDate time.Time `json:"due_date"`
}

// UpdateDueDate extends the loan's due date.
func (h *Handler) UpdateDueDate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid loan id")
		return
	}

	var req dueDateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.DueDate.IsZero() {
		response.BadRequest(w, "due_date is required")
		return
	}

	l, err := h.svc.UpdateDueDate(r.Context(), id, req.DueDate)
	if err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			response.NotFound(w, "loan not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, l)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.ListMine)
	r.Get("/{id}/statement", h.Statement)
	r.Post("/{id}/repayments", h.Repay)
	r.Patch("/{id}/due-date", h.UpdateDueDate)
	return r
}
