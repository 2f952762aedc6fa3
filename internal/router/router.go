package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medbook-api/internal/handler/appointment"
	"github.com/jwalitptl/medbook-api/internal/handler/auth"
	"github.com/jwalitptl/medbook-api/internal/handler/dashboard"
	"github.com/jwalitptl/medbook-api/internal/handler/doctor"
	"github.com/jwalitptl/medbook-api/internal/handler/health"
	"github.com/jwalitptl/medbook-api/internal/handler/prometheus"
	"github.com/jwalitptl/medbook-api/internal/handler/specialty"
	"github.com/jwalitptl/medbook-api/internal/handler/user"
	"github.com/jwalitptl/medbook-api/internal/middleware"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

// Handler is a route group guarded by the auth middleware.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

// Handlers lists every endpoint group the API serves.
type Handlers struct {
	Health      *health.Handler
	Metrics     *prometheus.Handler
	Auth        *auth.Handler
	User        *user.Handler
	Specialty   *specialty.Handler
	Doctor      *doctor.Handler
	Appointment *appointment.Handler
	Dashboard   *dashboard.Handler
}

type RouterConfig struct {
	RateLimit    rate.Limit
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	MaxBodyBytes int64
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		handlers.Metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(
		rateLimiter.RateLimit(),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.ErrorHandler(),
	)

	engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("route", nil))
	})
	engine.NoMethod(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("route", nil))
	})

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.handlers.Health.RegisterRoutes(api)

	// Public routes
	r.handlers.Auth.RegisterRoutes(api)
	r.handlers.Specialty.RegisterPublicRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range []Handler{
		r.handlers.User,
		r.handlers.Specialty,
		r.handlers.Doctor,
		r.handlers.Appointment,
		r.handlers.Dashboard,
	} {
		h.RegisterRoutes(protected, r.auth)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
