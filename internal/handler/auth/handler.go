package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-api/internal/handler"
	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/auth"
	"github.com/jwalitptl/medbook-api/internal/service/reset"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Handler struct {
	svc      *auth.Service
	resetSvc *reset.Service
}

func NewHandler(svc *auth.Service, resetSvc *reset.Service) *Handler {
	return &Handler{svc: svc, resetSvc: resetSvc}
}

// RegisterRoutes mounts the public authentication endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login/:role", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/password/forgot", h.ForgotPassword)
		auth.POST("/password/verify", h.VerifyReset)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

// Login serves one entrance per role; an account can only sign in at its own.
func (h *Handler) Login(c *gin.Context) {
	role, ok := model.ParseRole(c.Param("role"))
	if !ok {
		_ = c.Error(apperrors.NotFound("login entrance", nil))
		return
	}

	var req model.LoginRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), role, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.resetSvc.RequestReset(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "Verification code sent to your email."}))
}

func (h *Handler) VerifyReset(c *gin.Context) {
	var req model.VerifyResetRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.resetSvc.VerifyReset(c.Request.Context(), &req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "Password reset successfully."}))
}
