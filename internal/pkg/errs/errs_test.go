package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	err := NewError(ErrActionPending)
	assert.Equal(t, ErrActionPending, err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)

	// Templates without a status answer with 200 and carry the code in the envelope.
	assert.Equal(t, http.StatusOK, NewError(ErrRegisterFailed).Status)

	unknown := NewError(999999)
	assert.Equal(t, ErrUnknown, unknown.Code)
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidCredentials, "Role mismatch")
	assert.Equal(t, "Role mismatch", err.Message)
	assert.Equal(t, http.StatusUnauthorized, err.Status)

	assert.Equal(t, "Login error", WithMessage(ErrInvalidCredentials, "").Message)
}

func TestFromAndHasCode(t *testing.T) {
	assert.Nil(t, From(nil))

	wrapped := fmt.Errorf("register: %w", NewError(ErrBookingInvalid))
	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrBookingInvalid, got.Code)
	assert.True(t, HasCode(wrapped, ErrBookingInvalid))
	assert.False(t, HasCode(wrapped, ErrActionPending))

	assert.Equal(t, ErrUnknown, From(errors.New("boom")).Code)
}
