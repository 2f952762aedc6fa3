package specialty

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/doctor"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	"github.com/jwalitptl/medbook-api/internal/service/specialty"
)

type Handler struct {
	svc       *specialty.Service
	doctorSvc *doctor.Service
}

func NewHandler(svc *specialty.Service, doctorSvc *doctor.Service) *Handler {
	return &Handler{svc: svc, doctorSvc: doctorSvc}
}

// RegisterPublicRoutes mounts the form options endpoint, which needs no token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/specialties/options", h.Options)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m *middleware.AuthMiddleware) {
	specialties := r.Group("/specialties")
	{
		specialties.GET("", m.RequirePermission(rbac.SpecialtyRead), h.List)
		specialties.GET("/:id", m.RequirePermission(rbac.SpecialtyRead), h.Get)
		specialties.GET("/:id/doctors", m.RequirePermission(rbac.DoctorList), h.ListDoctors)
		specialties.POST("", m.RequirePermission(rbac.SpecialtyManage), h.Create)
		specialties.PUT("/:id", m.RequirePermission(rbac.SpecialtyManage), h.Update)
		specialties.DELETE("/:id", m.RequirePermission(rbac.SpecialtyManage), h.Delete)
	}
}

func (h *Handler) Options(c *gin.Context) {
	options, err := h.svc.Options(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(options))
}

func (h *Handler) List(c *gin.Context) {
	specialties, err := h.svc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(specialties))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "specialty")
	if err != nil {
		_ = c.Error(err)
		return
	}

	s, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "specialty")
	if err != nil {
		_ = c.Error(err)
		return
	}

	doctors, err := h.doctorSvc.ListBySpecialty(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) Create(c *gin.Context) {
	var req model.SpecialtyRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	s, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(s))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "specialty")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.SpecialtyRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	s, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParseID(c, "id", "specialty")
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
