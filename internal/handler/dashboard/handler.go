package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/service/dashboard"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Handler struct {
	svc *dashboard.Service
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m *middleware.AuthMiddleware) {
	admin := r.Group("/admin/dashboard", m.RequirePermission(rbac.DashboardAdmin))
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/activities", h.RecentActivities)
	}

	doctor := r.Group("/doctor/dashboard", m.RequirePermission(rbac.DashboardDoctor))
	{
		doctor.GET("/stats", h.DoctorStats)
		doctor.GET("/appointments", h.DoctorAppointments)
	}
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.svc.AdminStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) RecentActivities(c *gin.Context) {
	feed, err := h.svc.RecentActivities(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(feed))
}

func (h *Handler) DoctorStats(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationRequired())
		return
	}

	stats, err := h.svc.DoctorStats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) DoctorAppointments(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationRequired())
		return
	}

	feed, err := h.svc.DoctorRecentAppointments(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(feed))
}
