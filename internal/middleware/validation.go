package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appvalidator "github.com/jwalitptl/medbook-api/pkg/validator"
)

// RegisterValidators installs the custom rules and JSON field naming on gin's
// binding validator. Call once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
	}
	return appvalidator.Register(v)
}
