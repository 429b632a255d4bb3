package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	appErr := NewAppError(500, "failed to insert movement", ErrConflict)

	assert.True(t, errors.Is(appErr, ErrConflict))
	assert.Equal(t, "failed to insert movement: conflict", appErr.Error())
	assert.Equal(t, "bare", NewAppError(500, "bare", nil).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("%w: lock busy", ErrTransient)))
	assert.True(t, IsRetryable(NewAppError(503, "serialization failure", ErrTransient)))
	assert.False(t, IsRetryable(ErrInvalidState))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrValidation, Kind(fmt.Errorf("%w: amount must be positive", ErrValidation)))
	assert.Equal(t, ErrNoOpenRegister, Kind(ErrNoOpenRegister))
	assert.Nil(t, Kind(errors.New("unclassified")))
}
