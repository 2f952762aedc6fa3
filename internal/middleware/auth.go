package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medbook-api/internal/model"
	"github.com/jwalitptl/medbook-api/internal/service/rbac"
	"github.com/jwalitptl/medbook-api/pkg/auth"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

// Context keys set by Authenticate
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

type AuthMiddleware struct {
	jwtService  auth.JWTService
	rbacService *rbac.Service
}

func NewAuthMiddleware(jwtService auth.JWTService, rbacService *rbac.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		rbacService: rbacService,
	}
}

// Authenticate verifies the bearer access token and stores the caller in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.AuthenticationRequired())
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid authorization format"})
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, &apperrors.AppError{Code: apperrors.ErrUnauthorized, Message: "invalid token", Err: err})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequirePermission checks the caller's role against the capability table.
// It must run after Authenticate.
func (m *AuthMiddleware) RequirePermission(permission rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperrors.AuthenticationRequired())
			return
		}

		if !m.rbacService.HasPermission(role, permission) {
			abortWithError(c, apperrors.Forbidden(""))
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (uuid.UUID, model.Role, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, "", false
	}
	userID, ok := id.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, _ := c.Get(ContextUserRole)
	r, ok := role.(model.Role)
	return userID, r, ok
}
