package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/availability", h.AvailableTimes)

	doctors := r.Group("/doctors/:id")
	{
		doctors.POST("/availability", h.CreateAvailability)
		doctors.PUT("/availability/:slotId", h.UpdateAvailability)
		doctors.GET("/availability-by-date", h.ByDate)
	}
}

func doctorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "invalid doctor ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateAvailability(c *gin.Context) {
	id, ok := doctorID(c)
	if !ok {
		return
	}

	var req model.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, middleware.BindError(err))
		return
	}

	slots, err := h.service.Generate(c.Request.Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, slots)
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	id, ok := doctorID(c)
	if !ok {
		return
	}
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "invalid slot ID")
		return
	}

	var req model.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, middleware.BindError(err))
		return
	}

	slot, err := h.service.Update(c.Request.Context(), id, slotID, req.StartTime, req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, slot)
}

// AvailableTimes takes doctorId and date as query parameters.
func (h *Handler) AvailableTimes(c *gin.Context) {
	id, err := uuid.Parse(c.Query("doctorId"))
	if err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "invalid doctor ID")
		return
	}

	times, err := h.service.AvailableTimes(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, times)
}

func (h *Handler) ByDate(c *gin.Context) {
	id, ok := doctorID(c)
	if !ok {
		return
	}

	slots, err := h.service.ByDate(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, slots)
}
