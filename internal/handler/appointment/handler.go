package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/appointment"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", m.RequirePermission(rbac.AppointmentCreate), h.CreateAppointment)
		appointments.POST("/detailed", m.RequirePermission(rbac.AppointmentCreate), h.CreateDetailedAppointment)
		appointments.GET("", m.RequirePermission(rbac.AppointmentList), h.ListAppointments)
		appointments.GET("/:id", m.RequirePermission(rbac.AppointmentList), h.GetAppointment)
		appointments.PATCH("/:id", m.RequirePermission(rbac.AppointmentReschedule), h.RescheduleAppointment)
		appointments.PATCH("/:id/status", m.RequirePermission(rbac.AppointmentStatus), h.UpdateStatus)
		appointments.DELETE("/:id", m.RequirePermission(rbac.AppointmentDelete), h.DeleteAppointment)
	}
}

func caller(c *gin.Context) (appointment.Caller, bool) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationRequired())
		return appointment.Caller{}, false
	}
	return appointment.Caller{UserID: userID, Role: role}, true
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.Create(c.Request.Context(), who, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

// CreateDetailedAppointment books like CreateAppointment but answers with the
// full doctor and client records.
func (h *Handler) CreateDetailedAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.CreateDetailed(c.Request.Context(), who, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	appointments, err := h.service.List(c.Request.Context(), who)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.Get(c.Request.Context(), who, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), who, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, err := handler.ParseID(c, "id", "appointment")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), who, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
