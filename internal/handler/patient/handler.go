package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/patient"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.RegisterPatient)
		patients.GET("", h.ListPatients)
		patients.GET("/search", h.SearchPatients)
		patients.POST("/authenticate", h.Authenticate)
		patients.GET("/:id", h.GetPatient)
		patients.DELETE("/:id", h.RemovePatient)
		patients.PATCH("/:id/profile", h.UpdateProfile)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	p, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

// ListPatients returns patients in registration order, or by ID with
// ?sort=id.
func (h *Handler) ListPatients(c *gin.Context) {
	var patients []*model.Patient
	if c.Query("sort") == "id" {
		patients = h.service.AllSorted()
	} else {
		patients = h.service.All()
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	p, err := h.service.FindByID(id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// SearchPatients looks a patient up by exact username or by a name fragment.
func (h *Handler) SearchPatients(c *gin.Context) {
	var (
		p   *model.Patient
		err error
	)
	switch {
	case c.Query("username") != "":
		p, err = h.service.FindByUsername(c.Query("username"))
	case c.Query("name") != "":
		p, err = h.service.FindByName(c.Query("name"))
	default:
		err = apperrors.NewBadRequest("name or username is required", nil)
	}
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) RemovePatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	removed, err := h.service.RemoveByID(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if !removed {
		handler.RespondError(c, apperrors.NewNotFound("patient", nil))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) Authenticate(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.NewBadRequest("username and password are required", err))
		return
	}

	p, err := h.service.Authenticate(req.Username, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}
