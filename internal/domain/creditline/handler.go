package creditline

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Available returns the authenticated driver's free credit.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())
	if driverID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	available, err := h.svc.AvailableCredit(r.Context(), driverID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"available": available})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/available", h.Available)
	return r
}
