package repositories

import (
	"context"

	"github.com/SscSPs/cashledger/internal/core/domain"
)

// MovementReader defines read operations for movement data
type MovementReader interface {
	// ListMovementsByRegister retrieves a page of movements, newest first, using token-based pagination.
	// It returns the movements, a token for the next page, and an error.
	ListMovementsByRegister(ctx context.Context, registerID string, limit int, nextToken *string) ([]domain.Movement, *string, error)
}

// MovementWriter defines write operations for movement data
type MovementWriter interface {
	// AppendMovement stores the movement if its register is OPEN, bumping the register version.
	// It fails with apperrors.ErrNotFound for unknown registers and apperrors.ErrInvalidState for
	// closed ones, leaving the log untouched.
	AppendMovement(ctx context.Context, movement domain.Movement) (int64, error)
}

// MovementRepositoryFacade combines all movement-related repository interfaces
type MovementRepositoryFacade interface {
	MovementReader
	MovementWriter
}
