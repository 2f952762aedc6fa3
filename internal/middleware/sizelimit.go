package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

const defaultMaxBodySize = 1 << 20

// SizeLimit rejects declared oversize bodies up front and caps the rest while
// they are read.
func SizeLimit(maxBodySize int64) gin.HandlerFunc {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBodySize {
			abortWithError(c, apperrors.PayloadTooLarge(maxBodySize))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		}
		c.Next()
	}
}
