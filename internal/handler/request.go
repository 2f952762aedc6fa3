package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
	"github.com/jwalitptl/medbook-api/pkg/validator"
)

// BindJSON decodes and validates the body, converting failures to AppErrors.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return validator.FromBindError(err)
	}
	return nil
}

// ParseID reads a UUID path parameter. A malformed id cannot match any
// record, so it reads as not found.
func ParseID(c *gin.Context, param, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, apperrors.NotFound(resource, err)
	}
	return id, nil
}
