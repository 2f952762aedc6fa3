package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/medbook-api/pkg/errors"
)

type doctorPayload struct {
	Email        string              `json:"email" validate:"required,email"`
	Availability map[string][]string `json:"availability" validate:"omitempty,availability"`
}

func TestAvailabilityRule(t *testing.T) {
	v := New()

	ok := doctorPayload{
		Email:        "doc@example.com",
		Availability: map[string][]string{"2026-11-02": {"09:00", "10:00"}},
	}
	assert.NoError(t, v.Struct(ok))

	bad := doctorPayload{
		Email:        "doc@example.com",
		Availability: map[string][]string{"next monday": {"09:00"}},
	}
	err := v.Struct(bad)
	require.Error(t, err)

	appErr := FromBindError(err)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "availability", appErr.Fields[0].Field)
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := New()

	err := v.Struct(doctorPayload{Email: "not-an-email"})
	require.Error(t, err)

	appErr := FromBindError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "email", appErr.Fields[0].Field)
	assert.Equal(t, "Enter a valid email address.", appErr.Fields[0].Message)
}

func TestFromBindErrorTypeMismatch(t *testing.T) {
	var p doctorPayload
	err := json.Unmarshal([]byte(`{"availability":{"2026-11-02":"09:00"}}`), &p)
	require.Error(t, err)

	appErr := FromBindError(err)
	assert.Equal(t, 400, appErr.StatusCode())
	require.Len(t, appErr.Fields, 1)
}

func TestFromBindErrorSyntax(t *testing.T) {
	var p doctorPayload
	err := json.Unmarshal([]byte(`{"email":`), &p)
	require.Error(t, err)

	appErr := FromBindError(err)
	assert.Equal(t, "malformed JSON body", appErr.Message)
}
