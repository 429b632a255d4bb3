package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

var fast = Policy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestDo_RetriesTransient(t *testing.T) {
	calls, retries := 0, 0
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: serialization failure", apperrors.ErrTransient)
		}
		return nil
	}, func(error, int) { retries++ })

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		return fmt.Errorf("%w: register closed", apperrors.ErrInvalidState)
	}, nil)

	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(context.Context) error {
		calls++
		return apperrors.ErrTransient
	}, nil)

	assert.True(t, errors.Is(err, apperrors.ErrTransient))
	assert.Equal(t, 3, calls)
}
