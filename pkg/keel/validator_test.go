package keel

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=18"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(signupRequest{Email: "a@example.com", Age: 30}))

	err := ValidateStruct(signupRequest{Email: "nope", Age: 12})
	require.Error(t, err)

	var httpErr *HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Equal(t, []FieldError{
		{Field: "Email", Rule: "email"},
		{Field: "Age", Rule: "gte", Param: "18"},
	}, httpErr.Details)
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	err := ValidateStruct("plain string")
	assert.Equal(t, http.StatusBadRequest, StatusCodeOf(err))
}
