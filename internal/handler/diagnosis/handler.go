package diagnosis

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/model"
)

type Service interface {
	List(filters model.DiagnosisFilters) []*model.Diagnosis
	ByAppointment(appointmentID int) []*model.Diagnosis
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	diagnoses := r.Group("/diagnoses")
	{
		diagnoses.GET("", h.ListDiagnoses)
		diagnoses.GET("/appointment/:id", h.ListByAppointment)
	}
}

func (h *Handler) ListDiagnoses(c *gin.Context) {
	patientID, err := handler.QueryID(c, "patient_id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	doctorID, err := handler.QueryID(c, "doctor_id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	records := h.service.List(model.DiagnosisFilters{PatientID: patientID, DoctorID: doctorID})
	c.JSON(http.StatusOK, handler.NewSuccessResponse(records))
}

func (h *Handler) ListByAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.service.ByAppointment(id)))
}
