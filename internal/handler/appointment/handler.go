package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

// Service is the part of the appointment engine the HTTP surface uses.
type Service interface {
	Schedule(ctx context.Context, patientID, doctorID int, at time.Time) (*model.Appointment, error)
	ProcessNext(ctx context.Context, complaint, diagnosis, medication string) (*model.Appointment, error)
	Peek() (*model.Appointment, error)
	List(filters model.AppointmentFilters) []*model.Appointment
	History() []*model.Appointment
}

type Handler struct {
	service   Service
	validator validator.Validator
	loc       *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		service:   service,
		validator: validator.New(),
		loc:       loc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.ScheduleAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/next", h.NextAppointment)
		appointments.POST("/process", h.ProcessNext)
		appointments.GET("/history", h.ListHistory)
	}
}

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	var req model.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid appointment data", err))
		return
	}
	at, err := model.ParseDateTime(req.ScheduledAt, h.loc)
	if err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid scheduled_at", err))
		return
	}

	apt, err := h.service.Schedule(c.Request.Context(), req.PatientID, req.DoctorID, at)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

// ListAppointments returns the pending queue, oldest first, optionally
// narrowed by doctor_id and patient_id.
func (h *Handler) ListAppointments(c *gin.Context) {
	doctorID, err := handler.QueryID(c, "doctor_id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	patientID, err := handler.QueryID(c, "patient_id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	appointments := h.service.List(model.AppointmentFilters{DoctorID: doctorID, PatientID: patientID})
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) NextAppointment(c *gin.Context) {
	apt, err := h.service.Peek()
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

// ProcessNext completes the head of the queue. When the appointment was
// completed but a later step failed, the appointment is returned along with
// the error message.
func (h *Handler) ProcessNext(c *gin.Context) {
	var req model.ProcessAppointmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.RespondError(c, apperrors.NewBadRequest("invalid request body", err))
			return
		}
	}
	if err := h.validator.Validate(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid processing data", err))
		return
	}

	apt, err := h.service.ProcessNext(c.Request.Context(), req.Complaint, req.Diagnosis, req.Medication)
	if err != nil && apt == nil {
		handler.RespondError(c, err)
		return
	}
	resp := handler.NewSuccessResponse(apt)
	if err != nil {
		_ = c.Error(err)
		resp.Message = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListHistory(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.service.History()))
}
