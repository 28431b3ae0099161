package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
}

func TestToDetailsUsesJSONFieldNames(t *testing.T) {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)

	err := v.Struct(sample{Email: "nope", Password: "short", Phone: "12345"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
	assert.Equal(t, "must be a valid phone number", details["phone"])
}

func TestToDetailsUnknownError(t *testing.T) {
	details := ToDetails(assert.AnError)
	assert.Equal(t, "invalid payload", details["payload"])
}

func TestToDetailsNil(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
}
