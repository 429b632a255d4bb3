package repositories

import (
	"context"

	"github.com/SscSPs/cashledger/internal/core/domain"
)

// RegisterReader defines read operations for register data
type RegisterReader interface {
	// FindRegisterByID returns apperrors.ErrNotFound when the register does not exist.
	FindRegisterByID(ctx context.Context, registerID string) (*domain.Register, error)

	// FindRegistersByIDs returns the registers found, keyed by ID. Missing IDs are simply absent.
	FindRegistersByIDs(ctx context.Context, registerIDs []string) (map[string]domain.Register, error)

	// ListRegistersByLocation lists registers of a location, oldest first, optionally filtered by status.
	ListRegistersByLocation(ctx context.Context, locationID string, status *domain.RegisterStatus) ([]domain.Register, error)

	// FindRegisterByOpenKey looks up a register created with the given idempotency key.
	FindRegisterByOpenKey(ctx context.Context, locationID, key string) (*domain.Register, error)

	// LoadSession returns a consistent snapshot of a register and its movements, oldest first.
	LoadSession(ctx context.Context, registerID string) (*domain.Session, error)
}

// RegisterWriter defines write operations for register data.
// Every method is atomic: on error nothing it attempted is visible.
type RegisterWriter interface {
	// CreateRegisters inserts freshly opened registers. It fails with apperrors.ErrConflict when a
	// location would end up with two open PRIMARY registers.
	CreateRegisters(ctx context.Context, registers []domain.Register) error

	// CloseRegister posts the close adjustment (if any) and marks the register CLOSED, provided it is
	// still OPEN at expectedVersion. A closed register yields apperrors.ErrInvalidState and a version
	// mismatch yields apperrors.ErrTransient.
	CloseRegister(ctx context.Context, rec domain.Reconciliation, requestKey *string, expectedVersion int64) error

	// ApplyShiftTransfer appends every handover movement and reassigns the responsible operator of
	// every register in the transfer, or nothing at all.
	ApplyShiftTransfer(ctx context.Context, transfer domain.ShiftTransfer) error
}

// RegisterRepositoryFacade combines all register-related repository interfaces
type RegisterRepositoryFacade interface {
	RegisterReader
	RegisterWriter
}
