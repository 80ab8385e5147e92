package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

const (
	msgNotFound  = "Appointment not found"
	msgCancelled = "Appointment cancelled"
	msgCompleted = "Appointment marked as completed"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/doctor/:id", h.ListByDoctor)
		appointments.GET("/patient/:id", h.ListByPatient)
		appointments.POST("/book", h.BookAppointment)
		appointments.PUT("/cancel/:id", h.CancelAppointment)
		appointments.PUT("/complete/:id", h.CompleteAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, middleware.BindError(err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), req.Doctor.ID, req.Patient.ID, *req.AppointmentTime)
	if err != nil {
		// Unknown references are a bad request here, not a missing resource.
		if errors.IsNotFound(err) {
			httputil.RespondWithStatus(c, http.StatusBadRequest, err)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

// CancelAppointment answers in plain text. An unknown id is reported in the
// body with a 200.
func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, h.service.Cancel, msgCancelled)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.service.Complete, msgCompleted)
}

func (h *Handler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) error, done string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithText(c, http.StatusOK, msgNotFound)
		return
	}

	if err := apply(c.Request.Context(), id); err != nil {
		if errors.IsNotFound(err) {
			httputil.RespondWithText(c, http.StatusOK, msgNotFound)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithText(c, http.StatusOK, done)
}

func (h *Handler) ListByDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "invalid doctor ID")
		return
	}

	apts, err := h.service.ListByDoctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apts)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithMessage(c, http.StatusBadRequest, "invalid patient ID")
		return
	}

	apts, err := h.service.ListByPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apts)
}
