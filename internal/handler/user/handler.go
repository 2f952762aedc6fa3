package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/auth"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the caller's own profile endpoints on an
// authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m *middleware.AuthMiddleware) {
	users := r.Group("/users")
	{
		users.GET("/me", m.RequirePermission(rbac.ProfileRead), h.GetMe)
		users.PATCH("/me", m.RequirePermission(rbac.ProfileUpdate), h.UpdateMe)
	}
}

func (h *Handler) GetMe(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationRequired())
		return
	}

	user, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.AuthenticationRequired())
		return
	}

	var req model.UpdateProfileRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.svc.UpdateSelf(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}
