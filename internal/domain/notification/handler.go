package notification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the notification router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/{id}/read", h.MarkRead)
	r.Post("/read-all", h.MarkAllRead)

	return r
}

// List returns the caller's notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.service.List(r.Context(), driverID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"notifications": items})
}

// UnreadCount returns the caller's unread notification count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())

	count, err := h.service.UnreadCount(r.Context(), driverID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"unread_count": count})
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.service.MarkRead(r.Context(), id, driverID); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// MarkAllRead marks all of the caller's notifications as read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	driverID := middleware.GetSubjectID(r.Context())

	if err := h.service.MarkAllRead(r.Context(), driverID); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
