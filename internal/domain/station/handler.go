package station

import (
	"errors"
	"net/http"
	"strconv"

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

type createStationRequest struct {
	Name         string `json:"name" validate:"required"`
	Address      string `json:"address"`
	MerchantName string `json:"merchant_name" validate:"required"`
	FuelType     string `json:"fuel_type" validate:"fuel_type"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	s := &Station{
		Name:         req.Name,
		Address:      req.Address,
		MerchantName: req.MerchantName,
		FuelType:     req.FuelType,
	}
	if err := h.repo.Create(r.Context(), s); err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, s)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid station id")
		return
	}

	s, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			response.NotFound(w, "station not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, s)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	stations, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stations)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}
