package handler

import (
	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type Response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewAppErrorResponse renders an application error with its field details.
func NewAppErrorResponse(err *apperrors.AppError) *Response {
	return &Response{
		Status:  "error",
		Message: err.Message,
		Errors:  err.Fields,
	}
}
