package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/doctor"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Handler struct {
	svc *doctor.Service
}

func NewHandler(svc *doctor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m *middleware.AuthMiddleware) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", m.RequirePermission(rbac.DoctorList), h.List)
		doctors.GET("/:id", m.RequirePermission(rbac.DoctorView), h.Get)
		doctors.POST("", m.RequirePermission(rbac.DoctorManage), h.Create)
		doctors.PUT("/:id", m.RequirePermission(rbac.DoctorManage), h.Update)
		doctors.DELETE("/:id", m.RequirePermission(rbac.DoctorManage), h.Delete)
		doctors.PATCH("/:id/active", m.RequirePermission(rbac.DoctorManage), h.SetActive)
	}
}

// List accepts an optional specialty_id query filter.
func (h *Handler) List(c *gin.Context) {
	var filter model.DoctorFilter
	if raw := c.Query("specialty_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Error(apperrors.FieldInvalid("specialty_id", "invalid specialty id"))
			return
		}
		filter.SpecialtyID = &id
	}

	doctors, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	d, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDoctorRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	d, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateDoctorRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	d, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetActive sets the linked account's active flag, or toggles it when the
// body carries no is_active.
func (h *Handler) SetActive(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "doctor")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.SetActiveRequest
	if c.Request.ContentLength != 0 {
		if err := handler.BindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
	}

	resp, err := h.svc.SetActive(c.Request.Context(), id, req.IsActive)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
