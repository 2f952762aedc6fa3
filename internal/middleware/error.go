package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-api/internal/handler"
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

// ErrorHandler renders the last error pushed with c.Error. Anything that is
// not an AppError becomes a 500 whose cause is only logged.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		appErr, ok := apperrors.As(lastErr)
		if !ok {
			appErr = apperrors.Internal(lastErr)
		}
		status := appErr.StatusCode()

		level := zerolog.DebugLevel
		if status >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		for _, e := range c.Errors {
			log.WithLevel(level).
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Int("status", status).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, handler.NewAppErrorResponse(appErr))
	}
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode(), handler.NewAppErrorResponse(err))
}
